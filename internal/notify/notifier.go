package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/pkordes/room-reservation/internal/domain"
	"github.com/pkordes/room-reservation/internal/repo"
)

const defaultMaxAttempts = 3

// Notifier renders an event, records it in the delivery log and sends it,
// retrying up to the email's max attempts.
type Notifier struct {
	mailer  Mailer
	emails  repo.EmailRepo
	log     *slog.Logger
	backoff time.Duration
	now     func() time.Time
}

// NewNotifier constructs a Notifier. backoff is the pause before the second
// attempt; it doubles for each further one. A zero backoff retries after a
// millisecond.
func NewNotifier(mailer Mailer, emails repo.EmailRepo, log *slog.Logger, backoff time.Duration) *Notifier {
	return &Notifier{mailer: mailer, emails: emails, log: log, backoff: backoff, now: time.Now}
}

// Handle delivers the email for evt. It returns an error only when the email
// could not be rendered or recorded; send failures end up in the log row.
func (n *Notifier) Handle(ctx context.Context, evt domain.ReservationEvent) error {
	msg, kind, err := Render(evt)
	if err != nil {
		return err
	}

	var reservationID *uuid.UUID
	if evt.ReservationID != uuid.Nil {
		id := evt.ReservationID
		reservationID = &id
	}
	queued, err := n.emails.Create(ctx, domain.Email{
		ToEmail:       msg.ToEmail,
		ToName:        msg.ToName,
		Subject:       msg.Subject,
		Body:          msg.HTML,
		Type:          kind,
		MaxAttempts:   defaultMaxAttempts,
		ScheduledAt:   n.now().UTC(),
		ReservationID: reservationID,
	})
	if err != nil {
		return fmt.Errorf("notify.Notifier.Handle: %w", err)
	}

	maxAttempts := queued.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	base := n.backoff
	if base <= 0 {
		base = time.Millisecond
	}
	backoff := retry.WithMaxRetries(uint64(maxAttempts-1), retry.NewExponential(base))

	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		sendErr := n.mailer.Send(ctx, msg)
		if sendErr != nil {
			n.log.WarnContext(ctx, "email attempt failed",
				"email_id", queued.ID, "type", kind, "attempt", attempt, "error", sendErr)
			if err := n.emails.MarkFailed(ctx, queued.ID, sendErr.Error()); err != nil {
				n.log.ErrorContext(ctx, "email failure not recorded", "email_id", queued.ID, "error", err)
			}
			return retry.RetryableError(sendErr)
		}
		if err := n.emails.MarkSent(ctx, queued.ID, n.now().UTC()); err != nil {
			n.log.ErrorContext(ctx, "email sent but not recorded", "email_id", queued.ID, "error", err)
		}
		return nil
	})
	if err == nil {
		n.log.InfoContext(ctx, "email sent",
			"email_id", queued.ID, "type", kind, "to", msg.ToEmail, "attempt", attempt)
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}
	n.log.ErrorContext(ctx, "email given up", "email_id", queued.ID, "type", kind, "to", msg.ToEmail)
	return nil
}
