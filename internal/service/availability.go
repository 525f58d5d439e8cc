// Package service contains the business logic for the Room Reservation API.
// Services validate inputs, enforce booking rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/room-reservation/internal/domain"
	"github.com/pkordes/room-reservation/internal/repo"
)

// AvailabilityChecker answers whether a room is free for a stay.
// It only reads; the exclusion constraint on the reservations table is what
// makes the final insert safe against concurrent writers.
type AvailabilityChecker struct {
	reservations repo.ReservationRepo
}

// NewAvailabilityChecker constructs an AvailabilityChecker backed by the reservation repo.
func NewAvailabilityChecker(r repo.ReservationRepo) *AvailabilityChecker {
	return &AvailabilityChecker{reservations: r}
}

// IsAvailable reports whether no active reservation of roomID overlaps stay.
// A non-nil excludeID is ignored when looking for conflicts.
func (c *AvailabilityChecker) IsAvailable(ctx context.Context, roomID uuid.UUID, stay domain.Stay, excludeID *uuid.UUID) (bool, error) {
	conflicts, err := c.Conflicts(ctx, roomID, stay, excludeID)
	if err != nil {
		return false, fmt.Errorf("service.AvailabilityChecker.IsAvailable: %w", err)
	}
	return len(conflicts) == 0, nil
}

// Conflicts returns the active reservations of roomID that overlap stay,
// ordered by check-in. Always returns a non-nil slice.
func (c *AvailabilityChecker) Conflicts(ctx context.Context, roomID uuid.UUID, stay domain.Stay, excludeID *uuid.UUID) ([]domain.Reservation, error) {
	active, err := c.reservations.ListActiveByRoom(ctx, roomID, excludeID)
	if err != nil {
		return nil, fmt.Errorf("service.AvailabilityChecker.Conflicts: %w", err)
	}
	out := []domain.Reservation{}
	for _, r := range active {
		if !r.IsActive() {
			continue
		}
		if r.Stay.Overlaps(stay) {
			out = append(out, r)
		}
	}
	return out, nil
}
