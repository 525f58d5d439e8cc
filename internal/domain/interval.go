package domain

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// Stay is a half-open interval of calendar dates [CheckIn, CheckOut).
// The guest occupies the room on the night of CheckIn and leaves on CheckOut,
// so another stay may begin on this stay's CheckOut date.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NewStay truncates both dates to midnight UTC and validates the range.
// Returns ErrInvalidRange if checkOut is not after checkIn.
func NewStay(checkIn, checkOut time.Time) (Stay, error) {
	s := Stay{CheckIn: DateOf(checkIn), CheckOut: DateOf(checkOut)}
	if !s.CheckIn.Before(s.CheckOut) {
		return Stay{}, fmt.Errorf("%w: check-out %s must be after check-in %s",
			ErrInvalidRange, s.CheckOut.Format(DateLayout), s.CheckIn.Format(DateLayout))
	}
	return s, nil
}

// ParseStay builds a Stay from two "2006-01-02" strings.
func ParseStay(checkIn, checkOut string) (Stay, error) {
	in, err := time.Parse(DateLayout, checkIn)
	if err != nil {
		return Stay{}, fmt.Errorf("%w: check-in %q is not a date", ErrInvalidRange, checkIn)
	}
	out, err := time.Parse(DateLayout, checkOut)
	if err != nil {
		return Stay{}, fmt.Errorf("%w: check-out %q is not a date", ErrInvalidRange, checkOut)
	}
	return NewStay(in, out)
}

// Nights returns the number of nights in the stay.
func (s Stay) Nights() int {
	n, _ := NightsBetween(s.CheckIn, s.CheckOut)
	return n
}

// Overlaps reports whether two stays share at least one night.
func (s Stay) Overlaps(other Stay) bool {
	return Overlaps(s.CheckIn, s.CheckOut, other.CheckIn, other.CheckOut)
}

// String renders the stay as "2024-01-01/2024-01-05".
func (s Stay) String() string {
	return s.CheckIn.Format(DateLayout) + "/" + s.CheckOut.Format(DateLayout)
}

// DateOf drops the time-of-day component, keeping the calendar date as seen in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NightsBetween returns ceil((checkOut - checkIn) / 1 day).
// Returns ErrInvalidRange when checkOut is not after checkIn.
func NightsBetween(checkIn, checkOut time.Time) (int, error) {
	if !checkOut.After(checkIn) {
		return 0, fmt.Errorf("%w: check-out must be after check-in", ErrInvalidRange)
	}
	nights := int(math.Ceil(float64(checkOut.Sub(checkIn)) / float64(day)))
	return nights, nil
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching intervals (aEnd == bStart) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
