package workflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"brightpath/casedesk/internal/models"
	"brightpath/casedesk/internal/services"
	"brightpath/casedesk/internal/uploads"
)

// FileMeta is what the caller knows about a file before upload. Validation
// runs against it so a rejected file never reaches the network.
type FileMeta struct {
	FileName  string
	MimeType  string
	SizeBytes int64
}

// OrphanReporter records a remote file whose descriptor could not be
// persisted, so it can be cleaned up out of band. Reporting is best-effort;
// the orphan is always logged regardless.
type OrphanReporter interface {
	ReportOrphan(ctx context.Context, fileURL, caseID, slot string) error
}

// Synchronizer coordinates "upload to the file server, then persist the
// descriptor" as one logical operation, and the symmetric detach. The two
// network calls are not atomic; on a persist failure after a successful
// upload the remote file is orphaned, logged, and handed to the orphan
// reporter for cleanup.
type Synchronizer struct {
	cases   services.ICaseService
	files   uploads.IFileServerClient
	orphans OrphanReporter // optional
}

// NewSynchronizer creates an attachment synchronizer. orphans may be nil.
func NewSynchronizer(cases services.ICaseService, files uploads.IFileServerClient, orphans OrphanReporter) *Synchronizer {
	return &Synchronizer{cases: cases, files: files, orphans: orphans}
}

// Attach validates, uploads and persists a file into a named slot. The
// descriptor written to the case is exactly what the file server returned;
// it is only written after the upload succeeded, so a slot is never left
// partially populated.
func (s *Synchronizer) Attach(ctx context.Context, cfg *TypeConfig, kase *models.Case, slot string, data []byte, meta FileMeta) error {
	spec, ok := cfg.Slot(slot)
	if !ok {
		return fmt.Errorf("%w: %s has no slot %q", ErrUnknownSlot, cfg.Type, slot)
	}

	// Validation happens before any network call.
	if !spec.Allows(meta.MimeType) {
		return fmt.Errorf("%w: %q not accepted for slot %q", ErrUnsupportedType, meta.MimeType, slot)
	}
	size := meta.SizeBytes
	if size == 0 {
		size = int64(len(data))
	}
	if size > spec.MaxBytes {
		return fmt.Errorf("%w: %d bytes exceeds the %d byte ceiling for slot %q", ErrFileTooLarge, size, spec.MaxBytes, slot)
	}

	fileType := cfg.FileTypePrefix + "_" + slot
	info, err := s.files.Upload(ctx, kase.OwnerUserID, kase.ID.Hex(), fileType, meta.FileName, meta.MimeType, data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	attachment := &models.Attachment{
		FileName:   info.FileName,
		MimeType:   info.ContentType(),
		SizeBytes:  info.FileSize,
		FileURL:    info.FileURL,
		FullURL:    info.FullURL,
		UploadedAt: time.Now().UTC(),
	}

	_, err = s.cases.ApplyPatch(ctx, cfg.Type, kase.ID.Hex(), map[string]interface{}{
		"attachments." + slot: attachment,
	})
	if err != nil {
		// The upload already happened, so the remote file is now orphaned.
		// There is no compensation transaction; log it and queue a cleanup.
		log.Printf("ORPHANED UPLOAD: case %s slot %s file %s persisted to file server but not to store: %v",
			kase.ID.Hex(), slot, info.FileURL, err)
		if s.orphans != nil {
			if reportErr := s.orphans.ReportOrphan(ctx, info.FileURL, kase.ID.Hex(), slot); reportErr != nil {
				log.Printf("Failed to queue orphan cleanup for %s: %v", info.FileURL, reportErr)
			}
		}
		return mapStoreError(err)
	}
	return nil
}

// Detach removes the file behind a slot from the file server, then clears the
// descriptor. If the remote delete fails the descriptor is left in place:
// clearing it would lose the only pointer to the undeleted file. Detaching an
// already-empty slot is a no-op.
func (s *Synchronizer) Detach(ctx context.Context, cfg *TypeConfig, kase *models.Case, slot string) error {
	if _, ok := cfg.Slot(slot); !ok {
		return fmt.Errorf("%w: %s has no slot %q", ErrUnknownSlot, cfg.Type, slot)
	}

	attachment := kase.Attachment(slot)
	if attachment == nil {
		return nil
	}

	// No remote reference means nothing to delete on the file server:
	// legacy inline-base64 attachments, and corrupt descriptors with no
	// file_url at all. Clearing the descriptor is the whole operation.
	if attachment.FileURL != "" {
		if err := s.files.Delete(ctx, attachment.FileURL); err != nil {
			return fmt.Errorf("%w: %v", ErrDetachFailed, err)
		}
	}

	_, err := s.cases.ClearFields(ctx, cfg.Type, kase.ID.Hex(), []string{"attachments." + slot})
	if err != nil {
		return mapStoreError(err)
	}
	return nil
}
