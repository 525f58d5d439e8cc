package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, malformed email).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrInvalidRange is returned when a check-out date is not after its check-in date.
var ErrInvalidRange = errors.New("invalid date range")

// ErrInvalidPrice is returned when a nightly rate is negative.
var ErrInvalidPrice = errors.New("invalid price")

// ErrCapacityExceeded is returned when the guest count exceeds the room type capacity.
// It is always raised before anything is written to the store.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrRoomUnavailable is returned when the requested stay overlaps an active
// reservation, either at pre-check time or when the store rejects the insert
// because a concurrent writer won. Handlers should map this to HTTP 409.
var ErrRoomUnavailable = errors.New("room unavailable")

// ErrCancellationWindow is returned when a cancellation is attempted less than
// CancellationWindow before check-in.
var ErrCancellationWindow = errors.New("cancellation window closed")

// ErrAlreadyTerminal is returned when cancelling a reservation that is already
// CANCELLED or COMPLETED.
var ErrAlreadyTerminal = errors.New("reservation already in terminal state")

// ErrIllegalTransition is returned for any status change not allowed by the
// reservation state machine.
var ErrIllegalTransition = errors.New("illegal status transition")

// ErrUnauthorized is returned when credentials are missing or invalid.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is returned when the caller is authenticated but may not act on the resource.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a unique value (email, room number) is already taken.
var ErrConflict = errors.New("conflict")

// ErrPaymentIncomplete is returned when the payment provider reports that a
// checkout session has not been paid.
var ErrPaymentIncomplete = errors.New("payment not completed")

// ErrPaymentRefunded is returned when a payment arrived after its hold was
// released and the room had been booked since. The payment has been refunded.
var ErrPaymentRefunded = errors.New("payment refunded")
