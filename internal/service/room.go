package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/karlseguin/ccache/v3"

	"github.com/pkordes/room-reservation/internal/domain"
	"github.com/pkordes/room-reservation/internal/repo"
)

const activeRoomsKey = "rooms:active"

// RoomService serves the room catalogue and its admin maintenance.
// The list of active rooms is cached for ttl; every admin write clears it.
type RoomService struct {
	rooms        repo.RoomRepo
	availability *AvailabilityChecker
	cache        *ccache.Cache[[]domain.Room]
	ttl          time.Duration
}

// NewRoomService constructs a RoomService. A ttl of zero disables caching.
func NewRoomService(rooms repo.RoomRepo, reservations repo.ReservationRepo, ttl time.Duration) *RoomService {
	return &RoomService{
		rooms:        rooms,
		availability: NewAvailabilityChecker(reservations),
		cache:        ccache.New(ccache.Configure[[]domain.Room]().MaxSize(16)),
		ttl:          ttl,
	}
}

// List returns active rooms ordered by room number, narrowed by filter.
// Always returns a non-nil slice.
func (s *RoomService) List(ctx context.Context, filter domain.RoomFilter) ([]domain.Room, error) {
	all, err := s.activeRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.RoomService.List: %w", err)
	}

	out := make([]domain.Room, 0, len(all))
	for _, room := range all {
		if filter.MinCapacity > 0 && !room.Fits(filter.MinCapacity) {
			continue
		}
		if filter.Stay != nil {
			free, err := s.availability.IsAvailable(ctx, room.ID, *filter.Stay, nil)
			if err != nil {
				return nil, fmt.Errorf("service.RoomService.List: %w", err)
			}
			if !free {
				continue
			}
		}
		out = append(out, room)
	}
	return out, nil
}

// Get returns an active room. Returns domain.ErrNotFound for inactive rooms.
func (s *RoomService) Get(ctx context.Context, id uuid.UUID) (domain.Room, error) {
	room, err := s.rooms.GetActive(ctx, id)
	if err != nil {
		return domain.Room{}, fmt.Errorf("service.RoomService.Get: %w", err)
	}
	return room, nil
}

// ListTypes returns every room type ordered by nightly price.
func (s *RoomService) ListTypes(ctx context.Context) ([]domain.RoomType, error) {
	types, err := s.rooms.ListTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.RoomService.ListTypes: %w", err)
	}
	if types == nil {
		types = []domain.RoomType{}
	}
	return types, nil
}

// Create validates and persists a new room.
func (s *RoomService) Create(ctx context.Context, room domain.Room) (domain.Room, error) {
	room.RoomNumber = strings.TrimSpace(room.RoomNumber)
	if err := validateRoom(room); err != nil {
		return domain.Room{}, err
	}
	created, err := s.rooms.Create(ctx, room)
	if err != nil {
		return domain.Room{}, fmt.Errorf("service.RoomService.Create: %w", err)
	}
	s.invalidate()
	return created, nil
}

// Update validates and overwrites an existing room.
func (s *RoomService) Update(ctx context.Context, room domain.Room) (domain.Room, error) {
	room.RoomNumber = strings.TrimSpace(room.RoomNumber)
	if err := validateRoom(room); err != nil {
		return domain.Room{}, err
	}
	updated, err := s.rooms.Update(ctx, room)
	if err != nil {
		return domain.Room{}, fmt.Errorf("service.RoomService.Update: %w", err)
	}
	s.invalidate()
	return updated, nil
}

// Deactivate takes a room out of the catalogue. Reservations already made for
// it are kept.
func (s *RoomService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.rooms.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("service.RoomService.Deactivate: %w", err)
	}
	s.invalidate()
	return nil
}

func (s *RoomService) activeRooms(ctx context.Context) ([]domain.Room, error) {
	if s.ttl <= 0 {
		return s.rooms.List(ctx, true)
	}
	item, err := s.cache.Fetch(activeRoomsKey, s.ttl, func() ([]domain.Room, error) {
		return s.rooms.List(ctx, true)
	})
	if err != nil {
		return nil, err
	}
	return item.Value(), nil
}

func (s *RoomService) invalidate() {
	s.cache.Delete(activeRoomsKey)
}

func validateRoom(room domain.Room) error {
	if room.RoomNumber == "" {
		return fmt.Errorf("%w: room number is required", domain.ErrValidation)
	}
	if len(room.RoomNumber) > 20 {
		return fmt.Errorf("%w: room number must be at most 20 characters", domain.ErrValidation)
	}
	if room.Type.ID == uuid.Nil {
		return fmt.Errorf("%w: room type is required", domain.ErrValidation)
	}
	return nil
}
