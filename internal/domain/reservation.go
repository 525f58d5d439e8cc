package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reservation is one booking of one room for one stay.
// Room, dates and guest count never change after creation; only the status
// (and the cancellation stamp that comes with CANCELLED) moves.
type Reservation struct {
	ID                 uuid.UUID
	Email              string
	RoomID             uuid.UUID
	Status             Status
	ReservedAt         time.Time
	Stay               Stay
	Guests             int
	TotalPrice         decimal.Decimal
	CancelledAt        *time.Time
	CancellationReason string
	PaymentReference   string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// RoomNumber is filled by list queries that join rooms; empty otherwise.
	RoomNumber string
}

// Transition moves r to the target status if the state machine allows it.
// Moving to CANCELLED also stamps the cancellation time and reason.
// Returns ErrIllegalTransition otherwise; r is left unchanged on error.
func (r *Reservation) Transition(to Status, at time.Time, reason string) error {
	if !r.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, r.Status, to)
	}
	r.Status = to
	if to == StatusCancelled {
		ts := at.UTC()
		r.CancelledAt = &ts
		r.CancellationReason = reason
	}
	return nil
}

// Nights returns the number of nights reserved.
func (r Reservation) Nights() int {
	return r.Stay.Nights()
}

// IsActive reports whether r still holds its room, i.e. it is not cancelled.
func (r Reservation) IsActive() bool {
	return r.Status != StatusCancelled
}
