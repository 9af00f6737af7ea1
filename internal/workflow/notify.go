package workflow

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"brightpath/casedesk/internal/email"
)

// noticeBundle is the per-status template parameter set: subject line, banner
// title and colour, intro paragraph and the next-steps list shown under it.
type noticeBundle struct {
	Subject   string
	Title     string
	Color     string
	Intro     string
	NextSteps []string
}

// noticeBundles is keyed by "<category>/<status>". Unknown combinations fall
// back to genericBundle rather than failing: a status email always goes out.
var noticeBundles = map[string]noticeBundle{
	"visa/under_review": {
		Subject:   "Your visa application is under review",
		Title:     "Application Under Review",
		Color:     "#2b6cb0",
		Intro:     "Our team has started reviewing your visa application.",
		NextSteps: []string{"No action is needed from you right now.", "We will email you as soon as a decision is made."},
	},
	"visa/approved": {
		Subject:   "Your visa application has been approved",
		Title:     "Application Approved",
		Color:     "#2f855a",
		Intro:     "Congratulations! Your visa application has been approved.",
		NextSteps: []string{"Log in to your portal to download your approval letter.", "Book your biometric appointment if you have not already."},
	},
	"visa/rejected": {
		Subject:   "Update on your visa application",
		Title:     "Application Not Approved",
		Color:     "#c53030",
		Intro:     "After careful review, your visa application was not approved at this time.",
		NextSteps: []string{"Contact our office to discuss the decision.", "You may be eligible to re-apply with additional documentation."},
	},
	"biometric/approved": {
		Subject:   "Your biometric submission has been approved",
		Title:     "Biometrics Approved",
		Color:     "#2f855a",
		Intro:     "Your biometric submission has been verified and approved.",
		NextSteps: []string{"Your application will now proceed to the next stage."},
	},
	"biometric/rejected": {
		Subject:   "Your biometric submission needs attention",
		Title:     "Biometrics Not Accepted",
		Color:     "#c53030",
		Intro:     "We could not accept your biometric submission.",
		NextSteps: []string{"Log in to your portal to see what needs to be corrected.", "Re-submit your biometrics as soon as possible."},
	},
	"lmia/approved": {
		Subject:   "Your LMIA submission has been approved",
		Title:     "LMIA Approved",
		Color:     "#2f855a",
		Intro:     "Your LMIA submission has been approved.",
		NextSteps: []string{"Your LMIA certificate is available in your portal."},
	},
	"workpermit/approved": {
		Subject:   "Your work permit application has been approved",
		Title:     "Work Permit Approved",
		Color:     "#2f855a",
		Intro:     "Great news! Your work permit application has been approved.",
		NextSteps: []string{"Download your permit letter from the portal.", "Review the conditions attached to your permit."},
	},
	"payment/processing": {
		Subject:   "Your payment is being processed",
		Title:     "Payment Processing",
		Color:     "#2b6cb0",
		Intro:     "We have received your payment and it is being processed.",
		NextSteps: []string{"You will receive a confirmation once processing completes."},
	},
	"payment/approved": {
		Subject:   "Your payment has been confirmed",
		Title:     "Payment Confirmed",
		Color:     "#2f855a",
		Intro:     "Your payment has been received and confirmed.",
		NextSteps: []string{"A receipt has been attached to your case.", "No further action is required."},
	},
	"payment/completed": {
		Subject:   "Your payment has been completed",
		Title:     "Payment Completed",
		Color:     "#2f855a",
		Intro:     "Your payment has been completed and verified.",
		NextSteps: []string{"No further action is required."},
	},
	"payment/failed": {
		Subject:   "There was a problem with your payment",
		Title:     "Payment Failed",
		Color:     "#c53030",
		Intro:     "Unfortunately your payment could not be processed.",
		NextSteps: []string{"Check your payment details and try again.", "Contact our office if the problem persists."},
	},
}

// genericBundle covers any (category, status) pair without a dedicated entry.
var genericBundle = noticeBundle{
	Subject:   "Your case status has been updated",
	Title:     "Status Updated",
	Color:     "#4a5568",
	Intro:     "The status of your case has been updated.",
	NextSteps: []string{"Log in to your portal to see the details."},
}

var noticeTemplate = template.Must(template.New("status_notice").Parse(`<html>
<body style="font-family: Arial, sans-serif; color: #1a202c;">
  <div style="border-top: 4px solid {{.color}}; padding: 16px;">
    <h2 style="color: {{.color}};">{{.title}}</h2>
    <p>Dear {{.recipient_name}},</p>
    <p>{{.intro}}</p>
    <p>Reference: <strong>{{.reference_id}}</strong><br>New status: <strong>{{.status}}</strong></p>
    {{if .next_steps}}<p><strong>Next steps:</strong></p><p>{{.next_steps}}</p>{{end}}
    <p>Kind regards,<br>{{.app_name}}</p>
  </div>
</body>
</html>`))

// Dispatcher renders and sends status-change emails. It is strictly
// best-effort: callers record its errors as warnings, and a failed send never
// reverses the status change that triggered it.
type Dispatcher struct {
	sender  email.Sender
	from    string
	appName string
	timeout time.Duration
}

// NewDispatcher creates a notification dispatcher on top of an email sender.
func NewDispatcher(sender email.Sender, fromAddress, appName string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{sender: sender, from: fromAddress, appName: appName, timeout: timeout}
}

// Notify sends the status-change email for a notice and returns the message
// id. All template parameters are flat strings; the bundle table supplies the
// per-status subject, colours and copy.
func (d *Dispatcher) Notify(ctx context.Context, notice Notice) (string, error) {
	if notice.Recipient == "" {
		return "", fmt.Errorf("notice for case %s has no recipient email", notice.ReferenceID)
	}

	bundle, ok := noticeBundles[notice.Category+"/"+notice.Status]
	if !ok {
		bundle = genericBundle
	}

	name := notice.RecipientName
	if name == "" {
		name = "Applicant"
	}

	params := map[string]string{
		"title":          bundle.Title,
		"color":          bundle.Color,
		"intro":          bundle.Intro,
		"status":         notice.Status,
		"reference_id":   notice.ReferenceID,
		"recipient_name": name,
		"next_steps":     strings.Join(bundle.NextSteps, " "),
		"app_name":       d.appName,
	}

	var body bytes.Buffer
	if err := noticeTemplate.Execute(&body, params); err != nil {
		return "", fmt.Errorf("failed to render status notice for case %s: %w", notice.ReferenceID, err)
	}

	messageID := uuid.NewString()
	raw := email.BuildHTMLMessage(d.from, notice.Recipient, bundle.Subject, messageID, body.Bytes())

	sendCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.sender.Send(sendCtx, []string{notice.Recipient}, bundle.Subject, raw); err != nil {
		log.Printf("Failed to send %s/%s notice for case %s to %s: %v",
			notice.Category, notice.Status, notice.ReferenceID, notice.Recipient, err)
		return "", err
	}
	return messageID, nil
}
