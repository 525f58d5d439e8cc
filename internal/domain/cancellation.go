package domain

import (
	"fmt"
	"time"
)

// CancellationWindow is the minimum lead time before check-in (midnight UTC of
// the check-in date) for a guest to cancel.
const CancellationWindow = 24 * time.Hour

// DefaultCancellationReason is recorded when the guest gives no reason.
const DefaultCancellationReason = "User cancelled via My Reservations"

// CanCancel reports whether r may be cancelled at now.
func CanCancel(r Reservation, now time.Time) bool {
	return checkCancel(r, now) == nil
}

// Cancel applies the cancellation policy and returns the cancelled copy of r.
// Returns ErrAlreadyTerminal if r is CANCELLED or COMPLETED, and
// ErrCancellationWindow if check-in is CancellationWindow or less away.
func Cancel(r Reservation, now time.Time, reason string) (Reservation, error) {
	if err := checkCancel(r, now); err != nil {
		return Reservation{}, err
	}
	if err := r.Transition(StatusCancelled, now, reason); err != nil {
		return Reservation{}, err
	}
	return r, nil
}

func checkCancel(r Reservation, now time.Time) error {
	if r.Status.IsTerminal() {
		return fmt.Errorf("%w: reservation is %s", ErrAlreadyTerminal, r.Status)
	}
	if r.Stay.CheckIn.Sub(now) <= CancellationWindow {
		return fmt.Errorf("%w: reservations can only be cancelled more than 24 hours before check-in", ErrCancellationWindow)
	}
	return nil
}
