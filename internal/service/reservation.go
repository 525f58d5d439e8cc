package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pkordes/room-reservation/internal/domain"
	"github.com/pkordes/room-reservation/internal/repo"
)

// EventPublisher delivers reservation events to whoever sends notifications.
// Delivery is best effort: a failed Publish never undoes a state change.
type EventPublisher interface {
	Publish(ctx context.Context, evt domain.ReservationEvent) error
}

// PaymentCancelledReason is stored on reservations released because the guest
// abandoned checkout.
const PaymentCancelledReason = "payment cancelled"

// BookingRequest is the input to ReservationService.Create.
type BookingRequest struct {
	RoomID uuid.UUID
	Stay   domain.Stay
	Guests int
}

// PaymentConfirmation identifies the payment that settles a PENDING reservation.
type PaymentConfirmation struct {
	Reference string
}

// Quote is the answer to an availability question for one room and stay.
type Quote struct {
	Room       domain.Room
	Stay       domain.Stay
	Nights     int
	TotalPrice decimal.Decimal
	Available  bool
}

// ReservationService implements the booking lifecycle: quote, create, confirm,
// cancel, release and complete.
type ReservationService struct {
	reservations repo.ReservationRepo
	rooms        repo.RoomRepo
	users        repo.UserRepo
	availability *AvailabilityChecker
	events       EventPublisher
	log          *slog.Logger
	now          func() time.Time
}

// ReservationOption customises a ReservationService.
type ReservationOption func(*ReservationService)

// WithClock replaces time.Now as the source of the current instant.
func WithClock(now func() time.Time) ReservationOption {
	return func(s *ReservationService) { s.now = now }
}

// NewReservationService constructs a ReservationService.
// events may be nil, in which case no notifications are emitted.
func NewReservationService(
	reservations repo.ReservationRepo,
	rooms repo.RoomRepo,
	users repo.UserRepo,
	events EventPublisher,
	log *slog.Logger,
	opts ...ReservationOption,
) *ReservationService {
	s := &ReservationService{
		reservations: reservations,
		rooms:        rooms,
		users:        users,
		availability: NewAvailabilityChecker(reservations),
		events:       events,
		log:          log,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckAvailability quotes a stay in an active room: whether it is free, for
// how many nights, and at what total price.
func (s *ReservationService) CheckAvailability(ctx context.Context, roomID uuid.UUID, stay domain.Stay) (Quote, error) {
	room, err := s.rooms.GetActive(ctx, roomID)
	if err != nil {
		return Quote{}, fmt.Errorf("service.ReservationService.CheckAvailability: %w", err)
	}
	free, err := s.availability.IsAvailable(ctx, roomID, stay, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("service.ReservationService.CheckAvailability: %w", err)
	}
	total, err := domain.TotalPrice(stay.CheckIn, stay.CheckOut, room.Type.PricePerNight)
	if err != nil {
		return Quote{}, fmt.Errorf("service.ReservationService.CheckAvailability: %w", err)
	}
	return Quote{Room: room, Stay: stay, Nights: stay.Nights(), TotalPrice: total, Available: free}, nil
}

// Create books a room for the caller. The reservation starts PENDING and
// holds the room until it is confirmed by payment or released.
//
// Capacity is checked before anything is written. Returns
// domain.ErrCapacityExceeded, domain.ErrRoomUnavailable (at pre-check or when
// a concurrent booking wins the insert) or domain.ErrNotFound for an unknown
// or inactive room.
func (s *ReservationService) Create(ctx context.Context, caller domain.Caller, req BookingRequest) (domain.Reservation, error) {
	if caller.Email == "" {
		return domain.Reservation{}, domain.ErrUnauthorized
	}
	if req.Guests < 1 {
		return domain.Reservation{}, fmt.Errorf("%w: number of guests must be at least 1", domain.ErrValidation)
	}

	room, err := s.rooms.GetActive(ctx, req.RoomID)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Create: %w", err)
	}
	if !room.Fits(req.Guests) {
		return domain.Reservation{}, fmt.Errorf("%w: room %s holds %d guests, requested %d",
			domain.ErrCapacityExceeded, room.RoomNumber, room.Type.Capacity, req.Guests)
	}

	free, err := s.availability.IsAvailable(ctx, room.ID, req.Stay, nil)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Create: %w", err)
	}
	if !free {
		return domain.Reservation{}, fmt.Errorf("%w: room %s for %s", domain.ErrRoomUnavailable, room.RoomNumber, req.Stay)
	}

	total, err := domain.TotalPrice(req.Stay.CheckIn, req.Stay.CheckOut, room.Type.PricePerNight)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Create: %w", err)
	}

	created, err := s.reservations.Create(ctx, domain.Reservation{
		Email:      caller.Email,
		RoomID:     room.ID,
		Status:     domain.StatusPending,
		ReservedAt: s.now().UTC(),
		Stay:       req.Stay,
		Guests:     req.Guests,
		TotalPrice: total,
	})
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Create: %w", err)
	}
	if created.RoomNumber == "" {
		created.RoomNumber = room.RoomNumber
	}
	return created, nil
}

// Get returns a reservation the caller owns. Admins may read any reservation.
func (s *ReservationService) Get(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Get: %w", err)
	}
	if !caller.Owns(r) && !caller.IsAdmin() {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Get: %w", domain.ErrForbidden)
	}
	return r, nil
}

// owned loads a reservation the caller owns. Admin callers are not exempt.
func (s *ReservationService) owned(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, err
	}
	if !caller.Owns(r) {
		return domain.Reservation{}, domain.ErrForbidden
	}
	return r, nil
}

// Confirm settles a PENDING reservation with a completed payment.
// Confirming an already CONFIRMED reservation with the same payment reference
// is a no-op, so payment verification can be retried safely.
func (s *ReservationService) Confirm(ctx context.Context, caller domain.Caller, id uuid.UUID, pay PaymentConfirmation) (domain.Reservation, error) {
	if strings.TrimSpace(pay.Reference) == "" {
		return domain.Reservation{}, fmt.Errorf("%w: payment reference is required", domain.ErrValidation)
	}
	r, err := s.Get(ctx, caller, id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Confirm: %w", err)
	}
	updated, err := s.confirm(ctx, r, pay)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Confirm: %w", err)
	}
	return updated, nil
}

func (s *ReservationService) confirm(ctx context.Context, r domain.Reservation, pay PaymentConfirmation) (domain.Reservation, error) {
	if r.Status == domain.StatusConfirmed && r.PaymentReference == pay.Reference {
		return r, nil
	}
	from := r.Status
	if err := r.Transition(domain.StatusConfirmed, s.now(), ""); err != nil {
		return domain.Reservation{}, err
	}
	r.PaymentReference = pay.Reference

	updated, err := s.reservations.UpdateStatus(ctx, r, from)
	if err != nil {
		return domain.Reservation{}, err
	}
	s.publish(ctx, domain.EventReservationConfirmed, updated)
	return updated, nil
}

// Settle applies a verified payment to the reservation it was taken for.
//
// A PENDING reservation is confirmed. When the hold was released before the
// payment completed, the same stay is booked again as a new CONFIRMED
// reservation if the room is still free; otherwise domain.ErrRoomUnavailable
// is returned and the payment must be refunded. Settling a payment that
// already backs a reservation returns that reservation.
func (s *ReservationService) Settle(ctx context.Context, caller domain.Caller, id uuid.UUID, pay PaymentConfirmation) (domain.Reservation, error) {
	if strings.TrimSpace(pay.Reference) == "" {
		return domain.Reservation{}, fmt.Errorf("%w: payment reference is required", domain.ErrValidation)
	}
	r, err := s.Get(ctx, caller, id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Settle: %w", err)
	}
	settled, err := s.settle(ctx, r, pay)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Settle: %w", err)
	}
	return settled, nil
}

func (s *ReservationService) settle(ctx context.Context, r domain.Reservation, pay PaymentConfirmation) (domain.Reservation, error) {
	prior, err := s.reservations.GetByPaymentReference(ctx, pay.Reference)
	switch {
	case err == nil && prior.Status != domain.StatusPending:
		return prior, nil
	case err == nil:
		// The hold this payment was started for, or a rebooking that was
		// stored but not yet confirmed.
		return s.confirm(ctx, prior, pay)
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Reservation{}, err
	}
	if r.Status == domain.StatusCancelled {
		return s.rebook(ctx, r, pay)
	}
	return s.confirm(ctx, r, pay)
}

// rebook books the stay of a released reservation again for the same guest
// and price, then confirms it with pay.
func (s *ReservationService) rebook(ctx context.Context, released domain.Reservation, pay PaymentConfirmation) (domain.Reservation, error) {
	free, err := s.availability.IsAvailable(ctx, released.RoomID, released.Stay, nil)
	if err != nil {
		return domain.Reservation{}, err
	}
	if !free {
		return domain.Reservation{}, fmt.Errorf("%w: room %s was booked after the hold was released",
			domain.ErrRoomUnavailable, released.RoomNumber)
	}
	created, err := s.reservations.Create(ctx, domain.Reservation{
		Email:            released.Email,
		RoomID:           released.RoomID,
		Status:           domain.StatusPending,
		ReservedAt:       s.now().UTC(),
		Stay:             released.Stay,
		Guests:           released.Guests,
		TotalPrice:       released.TotalPrice,
		PaymentReference: pay.Reference,
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	if created.RoomNumber == "" {
		created.RoomNumber = released.RoomNumber
	}
	s.log.InfoContext(ctx, "released reservation booked again after late payment",
		"released_id", released.ID, "reservation_id", created.ID, "payment_reference", pay.Reference)
	return s.confirm(ctx, created, pay)
}

// Cancel applies the cancellation policy on behalf of the caller, who must
// own the reservation. Admins get no exemption.
// An empty reason is replaced with domain.DefaultCancellationReason.
// Returns domain.ErrAlreadyTerminal for CANCELLED or COMPLETED reservations and
// domain.ErrCancellationWindow when check-in is 24 hours away or less.
func (s *ReservationService) Cancel(ctx context.Context, caller domain.Caller, id uuid.UUID, reason string) (domain.Reservation, error) {
	r, err := s.owned(ctx, caller, id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Cancel: %w", err)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = domain.DefaultCancellationReason
	}

	cancelled, err := domain.Cancel(r, s.now(), reason)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Cancel: %w", err)
	}
	updated, err := s.reservations.UpdateStatus(ctx, cancelled, r.Status)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Cancel: %w", err)
	}
	s.publish(ctx, domain.EventReservationCancelled, updated)
	return updated, nil
}

// Release frees the room held by a PENDING reservation whose payment the
// owner abandoned. The 24 hour window does not apply since nothing was confirmed.
// Releasing an already cancelled reservation returns it unchanged.
func (s *ReservationService) Release(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Reservation, error) {
	r, err := s.owned(ctx, caller, id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Release: %w", err)
	}
	updated, err := s.release(ctx, r)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Release: %w", err)
	}
	return updated, nil
}

func (s *ReservationService) release(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	if r.Status == domain.StatusCancelled {
		return r, nil
	}
	if r.Status != domain.StatusPending {
		return domain.Reservation{}, fmt.Errorf("%w: %s reservation cannot be released", domain.ErrIllegalTransition, r.Status)
	}
	if err := r.Transition(domain.StatusCancelled, s.now(), PaymentCancelledReason); err != nil {
		return domain.Reservation{}, err
	}
	updated, err := s.reservations.UpdateStatus(ctx, r, domain.StatusPending)
	if err != nil {
		return domain.Reservation{}, err
	}
	s.publish(ctx, domain.EventReservationPaymentCancelled, updated)
	return updated, nil
}

// Complete marks a CONFIRMED reservation as stayed. Admin only.
func (s *ReservationService) Complete(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Reservation, error) {
	if !caller.IsAdmin() {
		return domain.Reservation{}, domain.ErrForbidden
	}
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Complete: %w", err)
	}
	from := r.Status
	if err := r.Transition(domain.StatusCompleted, s.now(), ""); err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Complete: %w", err)
	}
	updated, err := s.reservations.UpdateStatus(ctx, r, from)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationService.Complete: %w", err)
	}
	return updated, nil
}

// ListMine returns the caller's non-cancelled reservations, newest first.
// Always returns a non-nil slice.
func (s *ReservationService) ListMine(ctx context.Context, caller domain.Caller) ([]domain.Reservation, error) {
	if caller.Email == "" {
		return nil, domain.ErrUnauthorized
	}
	out, err := s.reservations.ListByEmail(ctx, caller.Email)
	if err != nil {
		return nil, fmt.Errorf("service.ReservationService.ListMine: %w", err)
	}
	if out == nil {
		out = []domain.Reservation{}
	}
	return out, nil
}

// ListPaged returns one page of all reservations, optionally filtered by status.
func (s *ReservationService) ListPaged(ctx context.Context, status *domain.Status, p domain.PaginationParams) ([]domain.Reservation, int64, error) {
	items, total, err := s.reservations.ListPaged(ctx, status, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ReservationService.ListPaged: %w", err)
	}
	if items == nil {
		items = []domain.Reservation{}
	}
	return items, total, nil
}

// Calendar returns the active reservations of a room that overlap window.
func (s *ReservationService) Calendar(ctx context.Context, roomID uuid.UUID, window domain.Stay) ([]domain.Reservation, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, fmt.Errorf("service.ReservationService.Calendar: %w", err)
	}
	booked, err := s.availability.Conflicts(ctx, roomID, window, nil)
	if err != nil {
		return nil, fmt.Errorf("service.ReservationService.Calendar: %w", err)
	}
	return booked, nil
}

// publish emits an event for r after its state change has been stored.
// Failures are logged only.
func (s *ReservationService) publish(ctx context.Context, kind domain.EventKind, r domain.Reservation) {
	if s.events == nil {
		return
	}
	evt := domain.NewReservationEvent(kind, r, s.now())
	if u, err := s.users.GetByEmail(ctx, r.Email); err == nil {
		evt.FullName = u.FullName
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.log.WarnContext(ctx, "reservation event: load guest", "reservation_id", r.ID, "error", err)
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.log.ErrorContext(ctx, "reservation event not delivered",
			"kind", kind, "reservation_id", r.ID, "error", err)
	}
}
