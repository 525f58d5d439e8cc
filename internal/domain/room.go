// Package domain contains the core data types and booking rules for the Room
// Reservation API: date intervals, the reservation state machine, pricing and
// the cancellation policy. It is imported by every other internal package
// (repo, service, handler) and performs no I/O.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RoomType describes a category of rooms sharing a nightly rate and capacity.
// It is read-only input to pricing and capacity checks.
type RoomType struct {
	ID            uuid.UUID
	Name          string
	Description   string
	PricePerNight decimal.Decimal
	Capacity      int
	Amenities     []string
}

// Room is a single bookable room. Inactive rooms cannot be booked.
type Room struct {
	ID          uuid.UUID
	RoomNumber  string
	Type        RoomType
	IsActive    bool
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Fits reports whether guests people may stay in the room.
func (r Room) Fits(guests int) bool {
	return guests >= 1 && guests <= r.Type.Capacity
}

// RoomFilter narrows a room listing. Zero values mean "no filter".
type RoomFilter struct {
	// MinCapacity keeps rooms whose type holds at least this many guests.
	MinCapacity int
	// Stay keeps rooms free for the whole stay.
	Stay *Stay
}
