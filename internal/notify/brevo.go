package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// BrevoMailer sends email through the Brevo transactional email API.
type BrevoMailer struct {
	cfg        *brevo.Configuration
	client     *brevo.APIClient
	sender     string
	senderName string
}

// NewBrevoMailer constructs a BrevoMailer sending as sender.
func NewBrevoMailer(apiKey, sender, senderName string) *BrevoMailer {
	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", apiKey)
	cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	return &BrevoMailer{
		cfg:        cfg,
		client:     brevo.NewAPIClient(cfg),
		sender:     sender,
		senderName: senderName,
	}
}

// WithBasePath points the mailer at another API root. Used by tests.
func (m *BrevoMailer) WithBasePath(url string) *BrevoMailer {
	m.cfg.BasePath = url
	m.client = brevo.NewAPIClient(m.cfg)
	return m
}

// Send submits msg as a transactional email. A rejected request is an error
// carrying the status code and the provider's message.
func (m *BrevoMailer) Send(ctx context.Context, msg Message) error {
	_, resp, err := m.client.TransactionalEmailsApi.SendTransacEmail(ctx, brevo.SendSmtpEmail{
		Sender:      &brevo.SendSmtpEmailSender{Email: m.sender, Name: m.senderName},
		To:          []brevo.SendSmtpEmailTo{{Email: msg.ToEmail, Name: msg.ToName}},
		Subject:     msg.Subject,
		HtmlContent: msg.HTML,
	})
	if err == nil {
		return nil
	}
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	var apiErr brevo.GenericSwaggerError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("notify.BrevoMailer.Send: status %d: %s", status, apiErr.Body())
	}
	return fmt.Errorf("notify.BrevoMailer.Send: %w", err)
}
