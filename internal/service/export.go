package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/room-reservation/internal/domain"
	"github.com/pkordes/room-reservation/internal/repo"
)

// ExportService assembles a flat export of every reservation.
type ExportService struct {
	reservations repo.ReservationRepo
	rooms        repo.RoomRepo
}

// NewExportService constructs an ExportService backed by the provided repos.
func NewExportService(reservations repo.ReservationRepo, rooms repo.RoomRepo) *ExportService {
	return &ExportService{reservations: reservations, rooms: rooms}
}

// Export returns one ExportRow per reservation, cancelled ones included,
// in reservation order. Rooms that have since been deactivated still resolve.
func (s *ExportService) Export(ctx context.Context) ([]domain.ExportRow, error) {
	rooms, err := s.rooms.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: list rooms: %w", err)
	}
	byID := make(map[uuid.UUID]domain.Room, len(rooms))
	for _, r := range rooms {
		byID[r.ID] = r
	}

	all, err := s.reservations.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: list reservations: %w", err)
	}

	rows := make([]domain.ExportRow, 0, len(all))
	for _, r := range all {
		room := byID[r.RoomID]
		number := r.RoomNumber
		if number == "" {
			number = room.RoomNumber
		}
		rows = append(rows, domain.ExportRow{
			ReservationID: r.ID.String(),
			Email:         r.Email,
			RoomNumber:    number,
			RoomType:      room.Type.Name,
			Status:        r.Status.String(),
			CheckIn:       r.Stay.CheckIn.Format(domain.DateLayout),
			CheckOut:      r.Stay.CheckOut.Format(domain.DateLayout),
			Nights:        r.Nights(),
			Guests:        r.Guests,
			TotalPrice:    r.TotalPrice.StringFixed(2),
			ReservedAt:    r.ReservedAt,
			CancelledAt:   r.CancelledAt,
			Reason:        r.CancellationReason,
		})
	}
	return rows, nil
}
