package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names a reservation event. The values double as message routing keys.
type EventKind string

const (
	EventReservationConfirmed        EventKind = "reservation.confirmed"
	EventReservationCancelled        EventKind = "reservation.cancelled"
	EventReservationPaymentCancelled EventKind = "reservation.payment_cancelled"
)

// ReservationEvent is emitted after a reservation state change has been
// committed. Consumers use it to notify the guest; nothing depends on
// delivery succeeding.
type ReservationEvent struct {
	Kind          EventKind `json:"kind"`
	ReservationID uuid.UUID `json:"reservation_id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name,omitempty"`
	RoomNumber    string    `json:"room_number,omitempty"`
	CheckIn       string    `json:"check_in_date"`
	CheckOut      string    `json:"check_out_date"`
	Guests        int       `json:"number_of_guests"`
	TotalPrice    string    `json:"total_price"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewReservationEvent builds an event of the given kind from r.
func NewReservationEvent(kind EventKind, r Reservation, occurredAt time.Time) ReservationEvent {
	return ReservationEvent{
		Kind:          kind,
		ReservationID: r.ID,
		Email:         r.Email,
		RoomNumber:    r.RoomNumber,
		CheckIn:       r.Stay.CheckIn.Format(DateLayout),
		CheckOut:      r.Stay.CheckOut.Format(DateLayout),
		Guests:        r.Guests,
		TotalPrice:    r.TotalPrice.StringFixed(2),
		Reason:        r.CancellationReason,
		OccurredAt:    occurredAt.UTC(),
	}
}
