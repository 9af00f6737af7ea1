package workflow

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"brightpath/casedesk/internal/models"
	"brightpath/casedesk/internal/services"
	"brightpath/casedesk/internal/uploads"
)

// memStore is an in-memory ICaseService for engine tests. Behavior mirrors
// the Mongo adapter: last write wins, missing ids surface as
// mongo.ErrNoDocuments, updated_at is stamped on every mutation.
type memStore struct {
	mu         sync.Mutex
	cases      map[string]*models.Case
	patchCalls int
	failFetch  error
	failPatch  error
}

func newMemStore() *memStore {
	return &memStore{cases: make(map[string]*models.Case)}
}

func (m *memStore) put(kase *models.Case) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cases[kase.ID.Hex()] = kase
}

func (m *memStore) clone(kase *models.Case) *models.Case {
	copied := *kase
	if kase.Attachments != nil {
		copied.Attachments = make(map[string]*models.Attachment, len(kase.Attachments))
		for k, v := range kase.Attachments {
			att := *v
			copied.Attachments[k] = &att
		}
	}
	return &copied
}

func (m *memStore) FetchAll(ctx context.Context, caseType models.CaseType, filter services.Filter) ([]models.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFetch != nil {
		return nil, m.failFetch
	}
	var out []models.Case
	for _, c := range m.cases {
		if c.CaseType != caseType {
			continue
		}
		if filter.Status != "" && c.EffectiveStatus() != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.OwnerEmail), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *m.clone(c))
	}
	return out, nil
}

func (m *memStore) FetchOne(ctx context.Context, caseType models.CaseType, id string) (*models.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFetch != nil {
		return nil, m.failFetch
	}
	kase, ok := m.cases[id]
	if !ok || kase.CaseType != caseType {
		return nil, mongo.ErrNoDocuments
	}
	return m.clone(kase), nil
}

func (m *memStore) ApplyPatch(ctx context.Context, caseType models.CaseType, id string, fields map[string]interface{}) (*models.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patchCalls++
	if m.failPatch != nil {
		return nil, m.failPatch
	}
	kase, ok := m.cases[id]
	if !ok || kase.CaseType != caseType {
		return nil, mongo.ErrNoDocuments
	}
	for k, v := range fields {
		switch {
		case k == "status":
			kase.Status = v.(string)
		case k == "verified":
			kase.Verified = v.(bool)
		case strings.HasPrefix(k, "attachments."):
			if kase.Attachments == nil {
				kase.Attachments = make(map[string]*models.Attachment)
			}
			kase.Attachments[strings.TrimPrefix(k, "attachments.")] = v.(*models.Attachment)
		}
	}
	kase.UpdatedAt = time.Now().UTC()
	return m.clone(kase), nil
}

func (m *memStore) ClearFields(ctx context.Context, caseType models.CaseType, id string, fields []string) (*models.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPatch != nil {
		return nil, m.failPatch
	}
	kase, ok := m.cases[id]
	if !ok || kase.CaseType != caseType {
		return nil, mongo.ErrNoDocuments
	}
	for _, f := range fields {
		if strings.HasPrefix(f, "attachments.") {
			delete(kase.Attachments, strings.TrimPrefix(f, "attachments."))
		}
	}
	kase.UpdatedAt = time.Now().UTC()
	return m.clone(kase), nil
}

func (m *memStore) Delete(ctx context.Context, caseType models.CaseType, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kase, ok := m.cases[id]
	if !ok || kase.CaseType != caseType {
		return mongo.ErrNoDocuments
	}
	delete(m.cases, id)
	return nil
}

// uploadCall records one Upload invocation on the spy file server client.
type uploadCall struct {
	UserID   string
	CaseID   string
	FileType string
	FileName string
	MimeType string
	Size     int
}

// spyFileServer is an IFileServerClient that records calls and returns
// configured results.
type spyFileServer struct {
	mu        sync.Mutex
	uploads   []uploadCall
	deletes   []string
	uploadErr error
	deleteErr error
	response  *uploads.FileInfo
}

func newSpyFileServer() *spyFileServer {
	return &spyFileServer{
		response: &uploads.FileInfo{
			FileURL:  "files/abc123.pdf",
			FullURL:  "http://files.local/files/abc123.pdf",
			FileName: "abc123.pdf",
			FileSize: 1_000_000,
			Mimetype: "application/pdf",
		},
	}
}

func (s *spyFileServer) Upload(ctx context.Context, userID, caseID, fileType, fileName, mimeType string, data []byte) (*uploads.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, uploadCall{
		UserID: userID, CaseID: caseID, FileType: fileType,
		FileName: fileName, MimeType: mimeType, Size: len(data),
	})
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	info := *s.response
	return &info, nil
}

func (s *spyFileServer) Delete(ctx context.Context, fileURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, fileURL)
	return s.deleteErr
}

// spyNotifier records notices and optionally fails every send.
type spyNotifier struct {
	mu      sync.Mutex
	notices []Notice
	err     error
}

func (n *spyNotifier) Notify(ctx context.Context, notice Notice) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	if n.err != nil {
		return "", n.err
	}
	return "msg-1", nil
}

// spyOrphanReporter records orphan reports.
type spyOrphanReporter struct {
	mu      sync.Mutex
	orphans []string
}

func (r *spyOrphanReporter) ReportOrphan(ctx context.Context, fileURL, caseID, slot string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orphans = append(r.orphans, fileURL)
	return nil
}
