package domain

import "time"

// ExportRow is a single row in the admin reservation export.
// It is a flat, denormalized view: one row per reservation with the room and
// room type fields repeated.
type ExportRow struct {
	ReservationID string
	Email         string
	RoomNumber    string
	RoomType      string
	Status        string
	CheckIn       string // "2006-01-02"
	CheckOut      string // "2006-01-02"
	Nights        int
	Guests        int
	TotalPrice    string // fixed two decimals
	ReservedAt    time.Time
	CancelledAt   *time.Time
	Reason        string
}
