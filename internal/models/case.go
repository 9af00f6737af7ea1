package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CaseType identifies which kind of record a Case document is. Each type lives
// in its own Mongo collection (legacy layout, kept for compatibility with the
// unmigrated store).
type CaseType string

const (
	CaseVisaApplication       CaseType = "visa_application"
	CaseJobApplication        CaseType = "job_application"
	CaseBiometricSubmission   CaseType = "biometric_submission"
	CaseBiometricPayment      CaseType = "biometric_payment"
	CaseLMIASubmission        CaseType = "lmia_submission"
	CaseWorkPermitApplication CaseType = "work_permit_application"
	CaseWorkPermitPayment     CaseType = "work_permit_payment"
	CaseJobPayment            CaseType = "job_payment"
)

// AllCaseTypes lists every supported case type.
var AllCaseTypes = []CaseType{
	CaseVisaApplication,
	CaseJobApplication,
	CaseBiometricSubmission,
	CaseBiometricPayment,
	CaseLMIASubmission,
	CaseWorkPermitApplication,
	CaseWorkPermitPayment,
	CaseJobPayment,
}

// ParseCaseType validates a raw string against the known case types.
func ParseCaseType(s string) (CaseType, bool) {
	for _, t := range AllCaseTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Collection returns the Mongo collection name for a case type. The names
// mirror the legacy per-module collections rather than a unified one.
func (t CaseType) Collection() string {
	switch t {
	case CaseVisaApplication:
		return "visa_applications"
	case CaseJobApplication:
		return "job_applications"
	case CaseBiometricSubmission:
		return "biometric_submissions"
	case CaseBiometricPayment:
		return "biometric_payments"
	case CaseLMIASubmission:
		return "lmia_submissions"
	case CaseWorkPermitApplication:
		return "work_permit_applications"
	case CaseWorkPermitPayment:
		return "work_permit_payments"
	case CaseJobPayment:
		return "job_payments"
	}
	return string(t)
}

// IsPayment reports whether the type follows the payment status vocabulary
// and carries the verified-implies-completed invariant.
func (t CaseType) IsPayment() bool {
	switch t {
	case CaseBiometricPayment, CaseWorkPermitPayment, CaseJobPayment:
		return true
	}
	return false
}

// LegacyStatusField names the status field some unmigrated documents of this
// type still use instead of "status". Empty means no alias exists.
func (t CaseType) LegacyStatusField() string {
	switch t {
	case CaseVisaApplication, CaseJobApplication, CaseWorkPermitApplication:
		return "applicationStatus"
	case CaseBiometricPayment, CaseWorkPermitPayment, CaseJobPayment:
		return "paymentStatus"
	}
	return ""
}

// Attachment is a file descriptor stored under a named slot on a case.
// New attachments are always remote references (FileURL/FullURL from the file
// server). InlineData is read-only legacy: some old documents embedded small
// files as base64 directly in the record.
type Attachment struct {
	FileName   string    `bson:"file_name" json:"file_name"`
	MimeType   string    `bson:"mime_type" json:"mime_type"`
	SizeBytes  int64     `bson:"size_bytes" json:"size_bytes"`
	FileURL    string    `bson:"file_url,omitempty" json:"file_url,omitempty"`
	FullURL    string    `bson:"full_url,omitempty" json:"full_url,omitempty"`
	InlineData string    `bson:"base64Data,omitempty" json:"-"`
	UploadedAt time.Time `bson:"uploaded_at" json:"uploaded_at"`
}

// IsInline reports whether the attachment is legacy inline-base64 data with
// no remote reference. Such attachments cannot be detached through the file
// server; clearing the descriptor is the whole operation.
func (a *Attachment) IsInline() bool {
	return a != nil && a.FileURL == "" && a.InlineData != ""
}

// Case is the generalized record behind every admin module: visa and work
// permit applications, biometric submissions, LMIA submissions and the
// payment records attached to them.
type Case struct {
	ID          primitive.ObjectID     `bson:"_id,omitempty" json:"id,omitempty"`
	CaseType    CaseType               `bson:"case_type" json:"case_type"`
	OwnerUserID string                 `bson:"owner_user_id" json:"owner_user_id"`
	OwnerEmail  string                 `bson:"owner_email" json:"owner_email"`
	OwnerName   string                 `bson:"owner_name,omitempty" json:"owner_name,omitempty"`
	Status      string                 `bson:"status,omitempty" json:"status"`
	Verified    bool                   `bson:"verified" json:"verified"`
	Attachments map[string]*Attachment `bson:"attachments,omitempty" json:"attachments,omitempty"`
	Payload     map[string]interface{} `bson:"payload,omitempty" json:"payload,omitempty"`
	CreatedAt   time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time              `bson:"updated_at" json:"updated_at"`

	// Legacy status aliases present on unmigrated documents. Read-only:
	// writes always go to Status.
	LegacyApplicationStatus string `bson:"applicationStatus,omitempty" json:"-"`
	LegacyPaymentStatus     string `bson:"paymentStatus,omitempty" json:"-"`
}

// EffectiveStatus resolves the status of a possibly-unmigrated document:
// "status" wins, then the per-module legacy alias. An empty result means the
// document predates status tracking entirely; callers treat that as the
// type's default state.
func (c *Case) EffectiveStatus() string {
	if c.Status != "" {
		return c.Status
	}
	switch c.CaseType.LegacyStatusField() {
	case "applicationStatus":
		return c.LegacyApplicationStatus
	case "paymentStatus":
		return c.LegacyPaymentStatus
	}
	return ""
}

// Attachment returns the descriptor in the named slot, or nil.
func (c *Case) Attachment(slot string) *Attachment {
	if c.Attachments == nil {
		return nil
	}
	return c.Attachments[slot]
}
