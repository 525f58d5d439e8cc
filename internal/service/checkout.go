package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/room-reservation/internal/domain"
	"github.com/pkordes/room-reservation/internal/payment"
)

// PaymentGateway opens, inspects, closes and refunds hosted checkout sessions.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req payment.SessionRequest) (payment.Session, error)
	GetSession(ctx context.Context, id string) (payment.Session, error)
	// ExpireSession closes a session for payment. A session that was already
	// paid or expired is returned as it stands.
	ExpireSession(ctx context.Context, id string) (payment.Session, error)
	Refund(ctx context.Context, sess payment.Session) error
}

// CheckoutConfig tunes a CheckoutService.
type CheckoutConfig struct {
	// Currency is the ISO code charged.
	Currency string
	// SessionTTL is how long a checkout session accepts payment.
	SessionTTL time.Duration
	// HoldTTL is how long a PENDING reservation holds its room before
	// ReleaseExpired frees it.
	HoldTTL time.Duration
}

// CheckoutService drives a PENDING reservation through payment.
// It is the only way a reservation becomes CONFIRMED.
type CheckoutService struct {
	reservations *ReservationService
	gateway      PaymentGateway
	cfg          CheckoutConfig
}

// NewCheckoutService constructs a CheckoutService.
func NewCheckoutService(reservations *ReservationService, gateway PaymentGateway, cfg CheckoutConfig) *CheckoutService {
	return &CheckoutService{reservations: reservations, gateway: gateway, cfg: cfg}
}

// Start opens a checkout session for a PENDING reservation owned by the caller.
// The amount charged is the total price stored on the reservation, and the
// session is recorded on the reservation so an expired hold can close it.
func (s *CheckoutService) Start(ctx context.Context, caller domain.Caller, reservationID uuid.UUID) (payment.Session, error) {
	r, err := s.reservations.owned(ctx, caller, reservationID)
	if err != nil {
		return payment.Session{}, fmt.Errorf("service.CheckoutService.Start: %w", err)
	}
	if r.Status != domain.StatusPending {
		return payment.Session{}, fmt.Errorf("service.CheckoutService.Start: %w: reservation is %s",
			domain.ErrIllegalTransition, r.Status)
	}

	req := payment.SessionRequest{
		CustomerEmail: r.Email,
		Name:          "Room " + r.RoomNumber,
		Description:   fmt.Sprintf("%d night(s), %s to %s", r.Nights(), r.Stay.CheckIn.Format(domain.DateLayout), r.Stay.CheckOut.Format(domain.DateLayout)),
		AmountMinor:   domain.MinorUnits(r.TotalPrice),
		Currency:      s.cfg.Currency,
		Metadata: map[string]string{
			payment.MetaReservationID: r.ID.String(),
			payment.MetaRoomID:        r.RoomID.String(),
			payment.MetaCheckIn:       r.Stay.CheckIn.Format(domain.DateLayout),
			payment.MetaCheckOut:      r.Stay.CheckOut.Format(domain.DateLayout),
			payment.MetaGuests:        strconv.Itoa(r.Guests),
			payment.MetaUserEmail:     r.Email,
		},
	}
	if s.cfg.SessionTTL > 0 {
		req.ExpiresAt = s.reservations.now().Add(s.cfg.SessionTTL)
	}
	sess, err := s.gateway.CreateSession(ctx, req)
	if err != nil {
		return payment.Session{}, fmt.Errorf("service.CheckoutService.Start: %w", err)
	}

	if err := s.reservations.reservations.AttachPayment(ctx, r.ID, sess.ID); err != nil {
		// The hold went away while the session was being opened.
		if _, expErr := s.gateway.ExpireSession(ctx, sess.ID); expErr != nil {
			s.reservations.log.ErrorContext(ctx, "orphaned checkout session left open",
				"session_id", sess.ID, "reservation_id", r.ID, "error", expErr)
		}
		return payment.Session{}, fmt.Errorf("service.CheckoutService.Start: %w", err)
	}
	return sess, nil
}

// Verify settles the reservation paid for by a completed checkout session.
// Returns domain.ErrPaymentIncomplete while the session is unpaid. When the
// hold was released before payment and the room has been booked since, the
// payment is refunded and domain.ErrPaymentRefunded is returned.
func (s *CheckoutService) Verify(ctx context.Context, caller domain.Caller, sessionID string) (domain.Reservation, error) {
	sess, id, err := s.session(ctx, caller, sessionID)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.CheckoutService.Verify: %w", err)
	}
	if !sess.Paid {
		return domain.Reservation{}, fmt.Errorf("service.CheckoutService.Verify: %w", domain.ErrPaymentIncomplete)
	}
	r, err := s.reservations.Settle(ctx, caller, id, PaymentConfirmation{Reference: sess.ID})
	if errors.Is(err, domain.ErrRoomUnavailable) {
		return domain.Reservation{}, fmt.Errorf("service.CheckoutService.Verify: %w", s.refund(ctx, sess, id))
	}
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.CheckoutService.Verify: %w", err)
	}
	return r, nil
}

// Cancel releases the reservation of an abandoned checkout session. The
// session is closed first so it can no longer be paid; if payment got in
// before that, the reservation is left alone.
func (s *CheckoutService) Cancel(ctx context.Context, caller domain.Caller, sessionID string) (domain.Reservation, error) {
	sess, id, err := s.session(ctx, caller, sessionID)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.CheckoutService.Cancel: %w", err)
	}
	if !sess.Paid && sess.Open {
		if sess, err = s.gateway.ExpireSession(ctx, sess.ID); err != nil {
			return domain.Reservation{}, fmt.Errorf("service.CheckoutService.Cancel: %w", err)
		}
	}
	if sess.Paid {
		return domain.Reservation{}, fmt.Errorf("service.CheckoutService.Cancel: %w: session already paid", domain.ErrIllegalTransition)
	}
	r, err := s.reservations.Release(ctx, caller, id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.CheckoutService.Cancel: %w", err)
	}
	return r, nil
}

// ReleaseExpired frees every PENDING reservation older than the hold TTL.
// A hold with a checkout session has the session closed first; if it turns
// out to be paid, the reservation is confirmed instead. Holds whose session
// cannot be closed are left for the next run. Returns how many were released.
func (s *CheckoutService) ReleaseExpired(ctx context.Context) (int, error) {
	cutoff := s.reservations.now().Add(-s.cfg.HoldTTL)
	stale, err := s.reservations.reservations.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("service.CheckoutService.ReleaseExpired: %w", err)
	}

	log := s.reservations.log
	released := 0
	for _, r := range stale {
		if r.PaymentReference != "" {
			sess, err := s.gateway.ExpireSession(ctx, r.PaymentReference)
			if err != nil {
				log.WarnContext(ctx, "expired hold kept: checkout session not closed",
					"reservation_id", r.ID, "session_id", r.PaymentReference, "error", err)
				continue
			}
			if sess.Paid {
				if _, err := s.reservations.settle(ctx, r, PaymentConfirmation{Reference: sess.ID}); err != nil {
					log.ErrorContext(ctx, "paid hold not confirmed", "reservation_id", r.ID, "error", err)
				}
				continue
			}
		}
		if _, err := s.reservations.release(ctx, r); err != nil {
			log.WarnContext(ctx, "expired hold not released", "reservation_id", r.ID, "error", err)
			continue
		}
		released++
	}
	if released > 0 {
		log.InfoContext(ctx, "expired holds released", "count", released)
	}
	return released, nil
}

// RunReleaser calls ReleaseExpired every interval until ctx is cancelled.
func (s *CheckoutService) RunReleaser(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.ReleaseExpired(ctx); err != nil && ctx.Err() == nil {
				s.reservations.log.ErrorContext(ctx, "expired hold sweep failed", "error", err)
			}
		}
	}
}

// refund returns a payment whose reservation could not be settled and
// reports the outcome as an error for the guest.
func (s *CheckoutService) refund(ctx context.Context, sess payment.Session, reservationID uuid.UUID) error {
	if err := s.gateway.Refund(ctx, sess); err != nil {
		s.reservations.log.ErrorContext(ctx, "late payment not refunded",
			"session_id", sess.ID, "reservation_id", reservationID, "error", err)
		return fmt.Errorf("refund of session %s: %w", sess.ID, err)
	}
	s.reservations.log.WarnContext(ctx, "late payment refunded",
		"session_id", sess.ID, "reservation_id", reservationID)
	return fmt.Errorf("%w: the room was booked after your hold expired", domain.ErrPaymentRefunded)
}

// session loads a checkout session and checks it belongs to the caller.
func (s *CheckoutService) session(ctx context.Context, caller domain.Caller, sessionID string) (payment.Session, uuid.UUID, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return payment.Session{}, uuid.Nil, fmt.Errorf("%w: session_id is required", domain.ErrValidation)
	}
	sess, err := s.gateway.GetSession(ctx, sessionID)
	if err != nil {
		return payment.Session{}, uuid.Nil, err
	}
	if !strings.EqualFold(sess.Metadata[payment.MetaUserEmail], caller.Email) {
		return payment.Session{}, uuid.Nil, domain.ErrForbidden
	}
	id, err := uuid.Parse(sess.Metadata[payment.MetaReservationID])
	if err != nil {
		return payment.Session{}, uuid.Nil, fmt.Errorf("%w: session carries no reservation", domain.ErrValidation)
	}
	return sess, id, nil
}
