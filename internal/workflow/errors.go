package workflow

import "errors"

// Error taxonomy for the case workflow engine. Validation errors are raised
// before any I/O; transport errors wrap the underlying cause so callers can
// still unwrap it.
var (
	// ErrInvalidState means the requested status is not recognized for the
	// case type, or the type's transition graph forbids the move.
	ErrInvalidState = errors.New("invalid status transition")

	// ErrCaseNotFound means the case id no longer exists in the store.
	ErrCaseNotFound = errors.New("case not found")

	// ErrStoreUnavailable means a read or write against the document store
	// failed for transport/backend reasons. No automatic retry beyond the
	// driver-level duplicate-key retries is performed.
	ErrStoreUnavailable = errors.New("case store unavailable")

	// ErrUnsupportedType means the uploaded file's mime type is not on the
	// slot's allow-list.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrFileTooLarge means the file exceeds the slot's size ceiling.
	ErrFileTooLarge = errors.New("file too large")

	// ErrUploadFailed means the file server rejected or failed the upload.
	// The case record is left unchanged.
	ErrUploadFailed = errors.New("file upload failed")

	// ErrDetachFailed means the file server failed to delete the remote
	// file. The local descriptor is deliberately NOT cleared, so the
	// pointer to the undeleted file survives for a retry.
	ErrDetachFailed = errors.New("file detach failed")

	// ErrUnknownSlot means the case type declares no such attachment slot.
	ErrUnknownSlot = errors.New("unknown attachment slot")

	// ErrUnknownCaseType means no configuration is registered for the type.
	ErrUnknownCaseType = errors.New("unknown case type")

	// ErrNotVerifiable means a payment case cannot be marked verified
	// because it has not reached a terminal-positive status.
	ErrNotVerifiable = errors.New("case status does not permit verification")

	// ErrDeleteNotAllowed means the case type does not expose the hard
	// administrative delete.
	ErrDeleteNotAllowed = errors.New("case type does not allow deletion")
)
