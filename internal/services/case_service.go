package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brightpath/casedesk/internal/db"
	"brightpath/casedesk/internal/models"
)

// Filter narrows a case list. Both predicates are evaluated client-side over
// the wholesale-loaded collection, mirroring how every legacy admin screen
// filtered its table. The collections are small enough for this; it is a
// known scalability limitation, not an accident.
type Filter struct {
	Status string // exact match against the effective status
	Search string // case-insensitive substring over owner email/name and id
}

// ICaseService is the store adapter for case records: all reads and writes of
// Case documents go through it. Writes are visible to subsequent reads
// immediately; there is no transactional guarantee across calls, and no
// version check before a write (last write wins).
type ICaseService interface {
	FetchAll(ctx context.Context, caseType models.CaseType, filter Filter) ([]models.Case, error)
	FetchOne(ctx context.Context, caseType models.CaseType, id string) (*models.Case, error)
	ApplyPatch(ctx context.Context, caseType models.CaseType, id string, fields map[string]interface{}) (*models.Case, error)
	ClearFields(ctx context.Context, caseType models.CaseType, id string, fields []string) (*models.Case, error)
	Delete(ctx context.Context, caseType models.CaseType, id string) error
}

// caseService implements ICaseService on MongoDB.
type caseService struct {
	db *mongo.Database
}

// NewCaseService creates a new case store adapter.
func NewCaseService(database *mongo.Database) ICaseService {
	return &caseService{db: database}
}

func (s *caseService) collection(caseType models.CaseType) *mongo.Collection {
	return s.db.Collection(caseType.Collection())
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// A malformed id can never match a stored document.
		return primitive.NilObjectID, mongo.ErrNoDocuments
	}
	return oid, nil
}

// FetchAll returns all cases of a type, newest activity first, optionally
// narrowed by the client-side filter.
func (s *caseService) FetchAll(ctx context.Context, caseType models.CaseType, filter Filter) ([]models.Case, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := s.collection(caseType).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing %s cases: %w", caseType, err)
	}
	defer cursor.Close(ctx)

	var all []models.Case
	if err := cursor.All(ctx, &all); err != nil {
		return nil, fmt.Errorf("error decoding %s cases: %w", caseType, err)
	}

	for i := range all {
		normalize(&all[i], caseType)
	}
	if filter.Status == "" && filter.Search == "" {
		return all, nil
	}

	matched := make([]models.Case, 0, len(all))
	for _, c := range all {
		if filter.Status != "" && c.EffectiveStatus() != filter.Status {
			continue
		}
		if filter.Search != "" && !matchesSearch(&c, filter.Search) {
			continue
		}
		matched = append(matched, c)
	}
	return matched, nil
}

// FetchOne returns a single case by id. Missing documents surface as
// mongo.ErrNoDocuments so callers can distinguish not-found from transport
// failure.
func (s *caseService) FetchOne(ctx context.Context, caseType models.CaseType, id string) (*models.Case, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var kase models.Case
	err = s.collection(caseType).FindOne(ctx, bson.M{"_id": oid}).Decode(&kase)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding %s case %s: %w", caseType, id, err)
	}
	normalize(&kase, caseType)
	return &kase, nil
}

// ApplyPatch merges the given fields into the stored document, stamps
// updated_at, and returns the post-update view. No version check is
// performed: concurrent patches resolve last-write-wins.
func (s *caseService) ApplyPatch(ctx context.Context, caseType models.CaseType, id string, fields map[string]interface{}) (*models.Case, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Case
	operation := func() error {
		return s.collection(caseType).FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&updated)
	}
	err = db.Try(operation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error patching %s case %s: %w", caseType, id, err)
	}
	normalize(&updated, caseType)
	return &updated, nil
}

// ClearFields removes fields from the stored document entirely (an attachment
// slot is either absent or fully populated, never null) and stamps updated_at.
func (s *caseService) ClearFields(ctx context.Context, caseType models.CaseType, id string, fields []string) (*models.Case, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	unset := bson.M{}
	for _, f := range fields {
		unset[f] = ""
	}
	update := bson.M{
		"$set":   bson.M{"updated_at": time.Now().UTC()},
		"$unset": unset,
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Case
	operation := func() error {
		return s.collection(caseType).FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&updated)
	}
	err = db.Try(operation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error clearing fields on %s case %s: %w", caseType, id, err)
	}
	normalize(&updated, caseType)
	return &updated, nil
}

// Delete hard-deletes a case document. Deleting an id that is already gone
// returns mongo.ErrNoDocuments, preserving the legacy non-idempotent
// behavior.
func (s *caseService) Delete(ctx context.Context, caseType models.CaseType, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	res, err := s.collection(caseType).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("error deleting %s case %s: %w", caseType, id, err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// normalize backfills fields the unmigrated store may omit: the case type
// discriminator and the status field written under a legacy alias.
func normalize(kase *models.Case, caseType models.CaseType) {
	if kase.CaseType == "" {
		kase.CaseType = caseType
	}
	if kase.Status == "" {
		kase.Status = kase.EffectiveStatus()
	}
}

func matchesSearch(kase *models.Case, search string) bool {
	needle := strings.ToLower(search)
	for _, haystack := range []string{kase.OwnerEmail, kase.OwnerName, kase.OwnerUserID, kase.ID.Hex()} {
		if strings.Contains(strings.ToLower(haystack), needle) {
			return true
		}
	}
	for _, v := range kase.Payload {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}
