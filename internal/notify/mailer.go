// Package notify turns reservation events into guest emails.
//
// Events reach a Notifier either in-process through a Dispatcher or from a
// RabbitMQ queue (see cmd/notifier). Every attempt is recorded in the
// email_queues table; a failed delivery never affects the reservation.
package notify

import (
	"context"
	"log/slog"
)

// Message is one rendered email.
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	HTML    string
}

// Mailer sends a rendered email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SenderName is the display name of outgoing email.
const SenderName = "Room Reservation"

// NewMailer returns a BrevoMailer when apiKey is set, otherwise a LogMailer.
func NewMailer(apiKey, sender string, log *slog.Logger) Mailer {
	if apiKey == "" {
		return NewLogMailer(log)
	}
	return NewBrevoMailer(apiKey, sender, SenderName)
}

// LogMailer writes emails to the log instead of sending them.
// It is used when no email provider key is configured.
type LogMailer struct {
	log *slog.Logger
}

// NewLogMailer constructs a LogMailer.
func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// Send logs the recipient and subject.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.log.InfoContext(ctx, "email not sent: no provider configured",
		"to", msg.ToEmail, "subject", msg.Subject, "bytes", len(msg.HTML))
	return nil
}
