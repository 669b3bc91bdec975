package notifications

import (
	"fmt"

	"fixpoint/internal/middleware"
	"fixpoint/internal/models"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends customer-facing status emails through SendGrid. With an empty
// API key the mailer logs instead of sending, which keeps local development
// working without credentials.
type Mailer struct {
	apiKey string
	from   string
}

func NewMailer(apiKey, from string) *Mailer {
	return &Mailer{apiKey: apiKey, from: from}
}

// SendStatusEmail delivers a status-change notice for the event.
func (m *Mailer) SendStatusEmail(event StatusChangedEvent) error {
	subject := fmt.Sprintf("Your repair request %s is now %s", event.TrackingCode, event.Status)
	body := statusEmailBody(event)

	if m.apiKey == "" {
		middleware.Logger.Info("mailer disabled, skipping status email",
			"to", event.Email,
			"subject", subject)
		return nil
	}

	from := mail.NewEmail("FixPoint Service", m.from)
	to := mail.NewEmail(event.Name, event.Email)
	message := mail.NewSingleEmail(from, subject, to, body, body)

	client := sendgrid.NewSendClient(m.apiKey)
	resp, err := client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}

func statusEmailBody(event StatusChangedEvent) string {
	body := fmt.Sprintf(
		"Hello %s,\n\nYour repair request %s has moved to status %s.",
		event.Name, event.TrackingCode, event.Status)
	if event.Note != "" {
		body += "\n\nNote from our technicians: " + event.Note
	}
	if event.Status == models.RequestStatusApproved {
		body += "\n\nPlease bring or ship your device to our service center."
	}
	body += "\n\nYou can follow progress any time with your tracking code."
	return body
}
