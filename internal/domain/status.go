package domain

import "fmt"

// Status is the lifecycle state of a reservation.
// The set is closed and seeded once into reservation_statuses.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// statusIDs are the stable identifiers seeded by the migrations.
var statusIDs = map[Status]int16{
	StatusPending:   1,
	StatusConfirmed: 2,
	StatusCancelled: 3,
	StatusCompleted: 4,
}

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
	StatusCancelled: {},
	StatusCompleted: {},
}

// ParseStatus converts a status name into a Status.
// Returns ErrValidation for unknown names.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", fmt.Errorf("%w: unknown reservation status %q", ErrValidation, s)
	}
	return st, nil
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// ID returns the stable identifier of s, or 0 for an unknown status.
func (s Status) ID() int16 {
	return statusIDs[s]
}

// IsTerminal reports whether no further transition is possible from s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether s may move to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}
