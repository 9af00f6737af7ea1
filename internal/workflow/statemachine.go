package workflow

import (
	"fmt"

	"brightpath/casedesk/internal/models"
)

// Patch is the set of field changes a legal transition produces. The store
// adapter applies it verbatim; nothing here touches I/O.
type Patch struct {
	Status   string
	Verified *bool
	Extra    map[string]interface{}
}

// Fields flattens the patch into the partial-update map the store adapter
// consumes. updated_at is the adapter's job, not the state machine's.
func (p Patch) Fields() map[string]interface{} {
	fields := map[string]interface{}{"status": p.Status}
	if p.Verified != nil {
		fields["verified"] = *p.Verified
	}
	for k, v := range p.Extra {
		fields[k] = v
	}
	return fields
}

// Notice describes the status-change email a transition calls for. The
// dispatcher turns it into a message; the state machine only names it.
type Notice struct {
	Category      string
	Status        string
	Recipient     string
	RecipientName string
	ReferenceID   string
}

// CurrentStatus resolves a stored case's status for transition purposes.
// Documents written before status tracking, or carrying only a legacy status
// field, default to the type's initial state rather than failing.
func CurrentStatus(cfg *TypeConfig, kase *models.Case) string {
	status := kase.EffectiveStatus()
	if status == "" || !cfg.HasState(status) {
		return cfg.Initial
	}
	return status
}

// Transition validates a requested status change and returns the patch to
// persist plus the notice to dispatch. Pure function of (type config, current
// status, requested status): it performs no I/O, so calling it twice with the
// same inputs yields the same outputs.
func Transition(cfg *TypeConfig, kase *models.Case, nextStatus string) (Patch, Notice, error) {
	if !cfg.HasState(nextStatus) {
		return Patch{}, Notice{}, fmt.Errorf("%w: %q is not a %s status", ErrInvalidState, nextStatus, cfg.Type)
	}

	current := CurrentStatus(cfg, kase)
	if !cfg.CanTransition(current, nextStatus) {
		return Patch{}, Notice{}, fmt.Errorf("%w: %s may not move from %q to %q", ErrInvalidState, cfg.Type, current, nextStatus)
	}

	patch := Patch{Status: nextStatus}
	// Payment records completing successfully are auto-verified; application
	// and submission types keep verification as a separate staff action.
	if cfg.Type.IsPayment() && cfg.IsTerminalPositive(nextStatus) {
		verified := true
		patch.Verified = &verified
	}

	notice := Notice{
		Category:      cfg.EmailCategory,
		Status:        nextStatus,
		Recipient:     kase.OwnerEmail,
		RecipientName: kase.OwnerName,
		ReferenceID:   kase.ID.Hex(),
	}
	return patch, notice, nil
}
