package workflow

import (
	"brightpath/casedesk/internal/models"
)

// Common mime types accepted by the file server.
const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimePDF  = "application/pdf"
	MimeDOC  = "application/msword"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

const (
	MB = int64(1) << 20
)

// SlotSpec describes one named attachment slot on a case type: which mime
// types it accepts and how big the file may be. Validation happens before any
// network call.
type SlotSpec struct {
	Name      string
	MaxBytes  int64
	MimeTypes []string
}

// Allows reports whether the slot accepts the given mime type.
func (s SlotSpec) Allows(mimeType string) bool {
	for _, m := range s.MimeTypes {
		if m == mimeType {
			return true
		}
	}
	return false
}

// TypeConfig is the per-case-type configuration the engine is parametrized
// by: status vocabulary, transition graph, attachment slots and notification
// category. One static registry replaces the per-module copies the legacy
// admin screens carried.
type TypeConfig struct {
	Type    models.CaseType
	States  []string
	Initial string

	// Transitions restricts which moves are legal. A nil map means the
	// complete graph: staff can force any declared status from any other,
	// which is what every legacy module allowed via its dropdown.
	Transitions map[string][]string

	// TerminalPositive lists the statuses that count as "successfully
	// done". Entering one of them auto-sets verified on payment types, and
	// only cases sitting in one of them may be explicitly verified.
	TerminalPositive []string

	// EmailCategory selects the notification bundle family.
	EmailCategory string

	// FileTypePrefix namespaces uploads on the file server; the wire
	// discriminator is "<prefix>_<slot>".
	FileTypePrefix string

	// Slots declares the attachment slots this type supports.
	Slots map[string]SlotSpec

	// AllowDelete exposes the hard administrative delete. Only the LMIA
	// and work permit modules ever had it.
	AllowDelete bool
}

// Slot looks up a slot spec by name.
func (c *TypeConfig) Slot(name string) (SlotSpec, bool) {
	s, ok := c.Slots[name]
	return s, ok
}

// HasState reports whether the status belongs to the type's vocabulary.
func (c *TypeConfig) HasState(status string) bool {
	for _, s := range c.States {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminalPositive reports whether the status is in the terminal-positive set.
func (c *TypeConfig) IsTerminalPositive(status string) bool {
	for _, s := range c.TerminalPositive {
		if s == status {
			return true
		}
	}
	return false
}

// CanTransition reports whether moving from one status to another is legal
// under the type's graph. With a nil graph every declared status is reachable
// from every other.
func (c *TypeConfig) CanTransition(from, to string) bool {
	if !c.HasState(to) {
		return false
	}
	if c.Transitions == nil {
		return true
	}
	for _, allowed := range c.Transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

var (
	applicationStates = []string{"pending", "under_review", "approved", "rejected"}
	paymentStates     = []string{"pending", "processing", "approved", "completed", "failed"}
)

// Registry holds the configuration for every supported case type.
type Registry struct {
	configs map[models.CaseType]*TypeConfig
}

// Lookup returns the configuration for a case type.
func (r *Registry) Lookup(t models.CaseType) (*TypeConfig, error) {
	cfg, ok := r.configs[t]
	if !ok {
		return nil, ErrUnknownCaseType
	}
	return cfg, nil
}

// Register adds or replaces a type configuration. Exposed for tests that
// need a restricted transition graph.
func (r *Registry) Register(cfg *TypeConfig) {
	if r.configs == nil {
		r.configs = make(map[models.CaseType]*TypeConfig)
	}
	r.configs[cfg.Type] = cfg
}

// NewRegistry builds the static registry for all eight case types.
func NewRegistry() *Registry {
	r := &Registry{}

	docSlots := func(specs ...SlotSpec) map[string]SlotSpec {
		m := make(map[string]SlotSpec, len(specs))
		for _, s := range specs {
			m[s.Name] = s
		}
		return m
	}

	r.Register(&TypeConfig{
		Type:             models.CaseVisaApplication,
		States:           applicationStates,
		Initial:          "pending",
		TerminalPositive: []string{"approved"},
		EmailCategory:    "visa",
		FileTypePrefix:   "visa",
		Slots: docSlots(
			SlotSpec{Name: "applicationLetter", MaxBytes: 5 * MB, MimeTypes: []string{MimePDF, MimeDOC, MimeDOCX}},
			SlotSpec{Name: "passportScan", MaxBytes: 2 * MB, MimeTypes: []string{MimeJPEG, MimePNG, MimePDF}},
		),
	})

	r.Register(&TypeConfig{
		Type:             models.CaseJobApplication,
		States:           applicationStates,
		Initial:          "pending",
		TerminalPositive: []string{"approved"},
		EmailCategory:    "job",
		FileTypePrefix:   "job",
		Slots: docSlots(
			SlotSpec{Name: "resume", MaxBytes: 5 * MB, MimeTypes: []string{MimePDF, MimeDOC, MimeDOCX}},
			SlotSpec{Name: "offerLetter", MaxBytes: 5 * MB, MimeTypes: []string{MimePDF}},
		),
	})

	r.Register(&TypeConfig{
		Type:             models.CaseBiometricSubmission,
		States:           applicationStates,
		Initial:          "pending",
		TerminalPositive: []string{"approved"},
		EmailCategory:    "biometric",
		FileTypePrefix:   "biometric",
		Slots: docSlots(
			SlotSpec{Name: "vlnDocument", MaxBytes: 5 * MB, MimeTypes: []string{MimePDF, MimeJPEG, MimePNG}},
			SlotSpec{Name: "confirmationDocument", MaxBytes: 5 * MB, MimeTypes: []string{MimePDF}},
		),
	})

	r.Register(&TypeConfig{
		Type:             models.CaseBiometricPayment,
		States:           paymentStates,
		Initial:          "pending",
		TerminalPositive: []string{"approved", "completed"},
		EmailCategory:    "payment",
		FileTypePrefix:   "biometric_payment",
		Slots: docSlots(
			SlotSpec{Name: "receipt", MaxBytes: 2 * MB, MimeTypes: []string{MimeJPEG, MimePNG, MimePDF}},
		),
	})

	r.Register(&TypeConfig{
		Type:             models.CaseLMIASubmission,
		States:           applicationStates,
		Initial:          "pending",
		TerminalPositive: []string{"approved"},
		EmailCategory:    "lmia",
		FileTypePrefix:   "lmia",
		AllowDelete:      true,
		Slots: docSlots(
			SlotSpec{Name: "lmiaCertificate", MaxBytes: 10 * MB, MimeTypes: []string{MimePDF}},
			SlotSpec{Name: "employerLetter", MaxBytes: 5 * MB, MimeTypes: []string{MimePDF, MimeDOC, MimeDOCX}},
		),
	})

	r.Register(&TypeConfig{
		Type:             models.CaseWorkPermitApplication,
		States:           applicationStates,
		Initial:          "pending",
		TerminalPositive: []string{"approved"},
		EmailCategory:    "workpermit",
		FileTypePrefix:   "workpermit",
		AllowDelete:      true,
		Slots: docSlots(
			SlotSpec{Name: "permitLetter", MaxBytes: 10 * MB, MimeTypes: []string{MimePDF, MimeDOC, MimeDOCX}},
			SlotSpec{Name: "passportScan", MaxBytes: 2 * MB, MimeTypes: []string{MimeJPEG, MimePNG, MimePDF}},
		),
	})

	r.Register(&TypeConfig{
		Type:             models.CaseWorkPermitPayment,
		States:           paymentStates,
		Initial:          "pending",
		TerminalPositive: []string{"approved", "completed"},
		EmailCategory:    "payment",
		FileTypePrefix:   "workpermit_payment",
		Slots: docSlots(
			SlotSpec{Name: "receipt", MaxBytes: 2 * MB, MimeTypes: []string{MimeJPEG, MimePNG, MimePDF}},
		),
	})

	r.Register(&TypeConfig{
		Type:             models.CaseJobPayment,
		States:           paymentStates,
		Initial:          "pending",
		TerminalPositive: []string{"approved", "completed"},
		EmailCategory:    "payment",
		FileTypePrefix:   "job_payment",
		Slots: docSlots(
			SlotSpec{Name: "receipt", MaxBytes: 2 * MB, MimeTypes: []string{MimeJPEG, MimePNG, MimePDF}},
		),
	})

	return r
}
