// Package payment talks to the hosted checkout provider (Stripe).
package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Metadata keys attached to every checkout session.
const (
	MetaReservationID = "reservation_id"
	MetaRoomID        = "room_id"
	MetaCheckIn       = "check_in_date"
	MetaCheckOut      = "check_out_date"
	MetaGuests        = "number_of_guests"
	MetaUserEmail     = "user_email"
)

// ErrNotConfigured is returned when no provider key was supplied.
var ErrNotConfigured = errors.New("payment provider not configured")

// SessionRequest describes the single line item a checkout session charges for.
type SessionRequest struct {
	CustomerEmail string
	Name          string
	Description   string
	AmountMinor   int64
	Currency      string
	Metadata      map[string]string
	// ExpiresAt closes the session for payment. Stripe accepts 30 minutes to
	// 24 hours from creation; zero leaves Stripe's default of 24 hours.
	ExpiresAt time.Time
}

// Session is the provider-neutral view of a checkout session.
type Session struct {
	ID   string
	URL  string
	Paid bool
	// Open is true while the guest can still pay on the session.
	Open            bool
	PaymentIntentID string
	Metadata        map[string]string
}

// sessionClient is the subset of the Stripe checkout session client in use.
type sessionClient interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Expire(id string, params *stripe.CheckoutSessionExpireParams) (*stripe.CheckoutSession, error)
}

// refundClient is the subset of the Stripe refund client in use.
type refundClient interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

// StripeGateway creates and inspects Stripe Checkout sessions.
type StripeGateway struct {
	sessions   sessionClient
	refunds    refundClient
	successURL string
	cancelURL  string
}

// NewStripeGateway constructs a StripeGateway. publicBaseURL is where the
// browser returns after checkout. An empty secretKey yields a gateway whose
// every call fails with ErrNotConfigured.
func NewStripeGateway(secretKey, publicBaseURL string) *StripeGateway {
	base := strings.TrimRight(publicBaseURL, "/")
	g := &StripeGateway{
		successURL: base + "/payment/success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:  base + "/payment/cancel?session_id={CHECKOUT_SESSION_ID}",
	}
	if secretKey != "" {
		sc := &client.API{}
		sc.Init(secretKey, nil)
		g.sessions = sc.CheckoutSessions
		g.refunds = sc.Refunds
	}
	return g
}

// CreateSession opens a hosted checkout session for req.
func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	if g.sessions == nil {
		return Session{}, ErrNotConfigured
	}
	s, err := g.sessions.New(g.sessionParams(ctx, req))
	if err != nil {
		return Session{}, fmt.Errorf("payment.StripeGateway.CreateSession: %w", err)
	}
	return toSession(s), nil
}

// GetSession retrieves a checkout session by ID.
func (g *StripeGateway) GetSession(ctx context.Context, id string) (Session, error) {
	if g.sessions == nil {
		return Session{}, ErrNotConfigured
	}
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.sessions.Get(id, params)
	if err != nil {
		return Session{}, fmt.Errorf("payment.StripeGateway.GetSession: %w", err)
	}
	return toSession(s), nil
}

// ExpireSession closes an open session so it can no longer be paid.
// A session that is already complete or expired is returned as it stands,
// so the caller can tell whether payment got in first.
func (g *StripeGateway) ExpireSession(ctx context.Context, id string) (Session, error) {
	if g.sessions == nil {
		return Session{}, ErrNotConfigured
	}
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx
	s, err := g.sessions.Expire(id, params)
	if err == nil {
		return toSession(s), nil
	}
	current, getErr := g.GetSession(ctx, id)
	if getErr == nil && !current.Open {
		return current, nil
	}
	return Session{}, fmt.Errorf("payment.StripeGateway.ExpireSession: %w", err)
}

// Refund returns the full amount paid on a completed session.
// The refund is keyed on the session, so repeating it is harmless.
func (g *StripeGateway) Refund(ctx context.Context, sess Session) error {
	if g.refunds == nil {
		return ErrNotConfigured
	}
	if sess.PaymentIntentID == "" {
		return fmt.Errorf("payment.StripeGateway.Refund: session %s has no payment", sess.ID)
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(sess.PaymentIntentID),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	params.SetIdempotencyKey("refund-" + sess.ID)
	params.AddMetadata(MetaReservationID, sess.Metadata[MetaReservationID])
	if _, err := g.refunds.New(params); err != nil {
		return fmt.Errorf("payment.StripeGateway.Refund: %w", err)
	}
	return nil
}

func (g *StripeGateway) sessionParams(ctx context.Context, req SessionRequest) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(g.successURL),
		CancelURL:     stripe.String(g.cancelURL),
		CustomerEmail: stripe.String(req.CustomerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(req.Currency)),
				UnitAmount: stripe.Int64(req.AmountMinor),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(req.Name),
					Description: stripe.String(req.Description),
				},
			},
			Quantity: stripe.Int64(1),
		}},
	}
	if !req.ExpiresAt.IsZero() {
		params.ExpiresAt = stripe.Int64(req.ExpiresAt.Unix())
	}
	if id, ok := req.Metadata[MetaReservationID]; ok {
		params.ClientReferenceID = stripe.String(id)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	return params
}

func toSession(s *stripe.CheckoutSession) Session {
	out := Session{
		ID:       s.ID,
		URL:      s.URL,
		Paid:     s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Open:     s.Status == stripe.CheckoutSessionStatusOpen,
		Metadata: s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out
}
