// Package workflow is the case workflow engine: one parametrized
// implementation of the status-transition and attachment-synchronization
// pattern every legacy admin module used to carry its own copy of.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/mongo"

	"brightpath/casedesk/internal/models"
	"brightpath/casedesk/internal/services"
)

// Notifier dispatches a status-change email. Implemented by *Dispatcher;
// narrowed to an interface so tests can fail it on purpose.
type Notifier interface {
	Notify(ctx context.Context, notice Notice) (string, error)
}

// TransitionResult is the outcome of a status change. Warning is set when the
// status committed but the notification email did not go out; the store write
// is authoritative, the email is best-effort.
type TransitionResult struct {
	Case      *models.Case `json:"case"`
	MessageID string       `json:"message_id,omitempty"`
	Warning   string       `json:"warning,omitempty"`
}

// Engine composes the store adapter, state machine, attachment synchronizer
// and notification dispatcher for every case type. It is the only mutator of
// case records.
type Engine struct {
	registry *Registry
	cases    services.ICaseService
	sync     *Synchronizer
	notifier Notifier
}

// NewEngine creates the workflow engine.
func NewEngine(registry *Registry, cases services.ICaseService, sync *Synchronizer, notifier Notifier) *Engine {
	return &Engine{registry: registry, cases: cases, sync: sync, notifier: notifier}
}

// Registry exposes the per-type configuration, mainly for handlers that need
// slot or state metadata.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// ListCases returns all cases of a type through the store adapter.
func (e *Engine) ListCases(ctx context.Context, caseType models.CaseType, filter services.Filter) ([]models.Case, error) {
	if _, err := e.registry.Lookup(caseType); err != nil {
		return nil, err
	}
	cases, err := e.cases.FetchAll(ctx, caseType, filter)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return cases, nil
}

// GetCase returns a single case.
func (e *Engine) GetCase(ctx context.Context, caseType models.CaseType, id string) (*models.Case, error) {
	if _, err := e.registry.Lookup(caseType); err != nil {
		return nil, err
	}
	kase, err := e.cases.FetchOne(ctx, caseType, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return kase, nil
}

// TransitionStatus validates and applies a status change, then fires the
// notification email. Validation failures never touch the store; a store
// failure after validation is purely an I/O failure; an email failure after
// the store committed is reported as a warning, never rolled back.
func (e *Engine) TransitionStatus(ctx context.Context, caseType models.CaseType, id, nextStatus string) (*TransitionResult, error) {
	cfg, err := e.registry.Lookup(caseType)
	if err != nil {
		return nil, err
	}

	kase, err := e.cases.FetchOne(ctx, caseType, id)
	if err != nil {
		return nil, mapStoreError(err)
	}

	patch, notice, err := Transition(cfg, kase, nextStatus)
	if err != nil {
		return nil, err
	}

	updated, err := e.cases.ApplyPatch(ctx, caseType, id, patch.Fields())
	if err != nil {
		return nil, mapStoreError(err)
	}

	result := &TransitionResult{Case: updated}
	messageID, err := e.notifier.Notify(ctx, notice)
	if err != nil {
		// The status change already committed; the operator sees
		// "status updated (email failed)" rather than a hard failure.
		log.Printf("Status of %s case %s changed to %q but notification failed: %v", caseType, id, nextStatus, err)
		result.Warning = fmt.Sprintf("status updated (email failed: %v)", err)
	} else {
		result.MessageID = messageID
	}
	return result, nil
}

// AttachDocument uploads a file into a slot and persists the descriptor, then
// re-fetches the case to return a consistent view.
func (e *Engine) AttachDocument(ctx context.Context, caseType models.CaseType, id, slot string, data []byte, meta FileMeta) (*models.Case, error) {
	cfg, err := e.registry.Lookup(caseType)
	if err != nil {
		return nil, err
	}

	kase, err := e.cases.FetchOne(ctx, caseType, id)
	if err != nil {
		return nil, mapStoreError(err)
	}

	if err := e.sync.Attach(ctx, cfg, kase, slot, data, meta); err != nil {
		return nil, err
	}

	updated, err := e.cases.FetchOne(ctx, caseType, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return updated, nil
}

// RemoveDocument deletes the remote file behind a slot and clears the
// descriptor, then re-fetches the case.
func (e *Engine) RemoveDocument(ctx context.Context, caseType models.CaseType, id, slot string) (*models.Case, error) {
	cfg, err := e.registry.Lookup(caseType)
	if err != nil {
		return nil, err
	}

	kase, err := e.cases.FetchOne(ctx, caseType, id)
	if err != nil {
		return nil, mapStoreError(err)
	}

	if err := e.sync.Detach(ctx, cfg, kase, slot); err != nil {
		return nil, err
	}

	updated, err := e.cases.FetchOne(ctx, caseType, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return updated, nil
}

// SetVerified toggles the verification flag. For payment types, marking
// verified requires the case to sit in a terminal-positive status, closing
// the "paid but never completed" drift the legacy screens permitted.
func (e *Engine) SetVerified(ctx context.Context, caseType models.CaseType, id string, verified bool) (*models.Case, error) {
	cfg, err := e.registry.Lookup(caseType)
	if err != nil {
		return nil, err
	}

	kase, err := e.cases.FetchOne(ctx, caseType, id)
	if err != nil {
		return nil, mapStoreError(err)
	}

	if verified && cfg.Type.IsPayment() && !cfg.IsTerminalPositive(CurrentStatus(cfg, kase)) {
		return nil, fmt.Errorf("%w: %s case %s is %q", ErrNotVerifiable, caseType, id, CurrentStatus(cfg, kase))
	}

	updated, err := e.cases.ApplyPatch(ctx, caseType, id, map[string]interface{}{"verified": verified})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return updated, nil
}

// DeleteCase hard-deletes a case. Only types that expose the administrative
// delete (LMIA and work permit) allow it; the operation is terminal and sits
// outside the state machine.
func (e *Engine) DeleteCase(ctx context.Context, caseType models.CaseType, id string) error {
	cfg, err := e.registry.Lookup(caseType)
	if err != nil {
		return err
	}
	if !cfg.AllowDelete {
		return fmt.Errorf("%w: %s", ErrDeleteNotAllowed, caseType)
	}
	if err := e.cases.Delete(ctx, caseType, id); err != nil {
		return mapStoreError(err)
	}
	return nil
}

// mapStoreError translates store adapter errors into the engine taxonomy:
// missing documents become ErrCaseNotFound, everything else is a transport
// failure the caller may retry.
func mapStoreError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrCaseNotFound
	}
	if errors.Is(err, ErrCaseNotFound) || errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
