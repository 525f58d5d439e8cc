package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/room-reservation/internal/domain"
	"github.com/pkordes/room-reservation/internal/handler"
	"github.com/pkordes/room-reservation/internal/service"
)

func roomFixture() domain.Room {
	return domain.Room{
		ID:         uuid.New(),
		RoomNumber: "101",
		IsActive:   true,
		Type: domain.RoomType{
			ID:            uuid.New(),
			Name:          "Deluxe",
			PricePerNight: decimal.RequireFromString("120"),
			Capacity:      2,
		},
	}
}

// ---- GET /rooms ------------------------------------------------------------

func TestListRooms_PassesFilters(t *testing.T) {
	var got domain.RoomFilter
	rooms := &mockRoomServicer{
		list: func(_ context.Context, f domain.RoomFilter) ([]domain.Room, error) {
			got = f
			return []domain.Room{roomFixture()}, nil
		},
	}
	h := newHTTPHandler(handler.Services{Rooms: rooms})

	rec := do(t, h, http.MethodGet, "/rooms?guests=3&check_in=2030-01-01&check_out=2030-01-04", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, got.MinCapacity)
	require.NotNil(t, got.Stay)
	assert.Equal(t, 3, got.Stay.Nights())

	var body []handler.Room
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "120.00", body[0].RoomType.PricePerNight)
	assert.NotNil(t, body[0].RoomType.Amenities)
}

func TestListRooms_HalfStay_Returns422(t *testing.T) {
	h := newHTTPHandler(handler.Services{Rooms: &mockRoomServicer{}})

	rec := do(t, h, http.MethodGet, "/rooms?check_in=2030-01-01", "", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_error", decodeError(t, rec).Code)
}

func TestListRooms_InvertedStay_Returns422InvalidRange(t *testing.T) {
	h := newHTTPHandler(handler.Services{Rooms: &mockRoomServicer{}})

	rec := do(t, h, http.MethodGet, "/rooms?check_in=2030-01-05&check_out=2030-01-01", "", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "invalid_range", decodeError(t, rec).Code)
}

// ---- GET /rooms/{id} -------------------------------------------------------

func TestGetRoom_NotFound(t *testing.T) {
	rooms := &mockRoomServicer{
		get: func(_ context.Context, _ uuid.UUID) (domain.Room, error) {
			return domain.Room{}, fmt.Errorf("service.RoomService.Get: %w", domain.ErrNotFound)
		},
	}
	h := newHTTPHandler(handler.Services{Rooms: rooms})

	rec := do(t, h, http.MethodGet, "/rooms/"+uuid.NewString(), "", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "room not found", decodeError(t, rec).Message)
}

func TestGetRoom_BadID_Returns422(t *testing.T) {
	h := newHTTPHandler(handler.Services{Rooms: &mockRoomServicer{}})

	rec := do(t, h, http.MethodGet, "/rooms/not-a-uuid", "", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// ---- GET /rooms/{id}/availability ------------------------------------------

func TestCheckAvailability_ReturnsQuote(t *testing.T) {
	room := roomFixture()
	res := &mockReservationServicer{
		checkAvailability: func(_ context.Context, id uuid.UUID, stay domain.Stay) (service.Quote, error) {
			return service.Quote{
				Room: room, Stay: stay, Nights: stay.Nights(),
				TotalPrice: decimal.RequireFromString("360"), Available: false,
			}, nil
		},
	}
	h := newHTTPHandler(handler.Services{Reservations: res})

	rec := do(t, h, http.MethodGet, "/rooms/"+room.ID.String()+"/availability?check_in=2030-01-01&check_out=2030-01-04", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var q handler.Quote
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&q))
	assert.Equal(t, 3, q.Nights)
	assert.Equal(t, "360.00", q.TotalPrice)
	assert.False(t, q.Available)
	assert.Equal(t, "2030-01-04", q.CheckOut.String())
}

func TestCheckAvailability_MissingDates_Returns422(t *testing.T) {
	h := newHTTPHandler(handler.Services{Reservations: &mockReservationServicer{}})

	rec := do(t, h, http.MethodGet, "/rooms/"+uuid.NewString()+"/availability", "", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// ---- GET /room-types -------------------------------------------------------

func TestListRoomTypes(t *testing.T) {
	rooms := &mockRoomServicer{
		listTypes: func(_ context.Context) ([]domain.RoomType, error) {
			return []domain.RoomType{roomFixture().Type}, nil
		},
	}
	h := newHTTPHandler(handler.Services{Rooms: rooms})

	rec := do(t, h, http.MethodGet, "/room-types", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []handler.RoomType
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, 2, body[0].Capacity)
}

// ---- admin rooms -----------------------------------------------------------

func TestCreateRoom_AdminOnly(t *testing.T) {
	h := newHTTPHandler(handler.Services{Rooms: &mockRoomServicer{}})
	body := map[string]any{"room_number": "201", "room_type_id": uuid.NewString()}

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/admin/rooms", "", body).Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodPost, "/admin/rooms", guestToken, body).Code)
}

func TestCreateRoom_DefaultsActive(t *testing.T) {
	var got domain.Room
	rooms := &mockRoomServicer{
		create: func(_ context.Context, r domain.Room) (domain.Room, error) {
			got = r
			r.ID = uuid.New()
			return r, nil
		},
	}
	h := newHTTPHandler(handler.Services{Rooms: rooms})
	typeID := uuid.New()

	rec := do(t, h, http.MethodPost, "/admin/rooms", adminToken,
		map[string]any{"room_number": "201", "room_type_id": typeID.String()})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, got.IsActive)
	assert.Equal(t, typeID, got.Type.ID)
	assert.Equal(t, uuid.Nil, got.ID)
}

func TestCreateRoom_MissingNumber_Returns422(t *testing.T) {
	h := newHTTPHandler(handler.Services{Rooms: &mockRoomServicer{}})

	rec := do(t, h, http.MethodPost, "/admin/rooms", adminToken, map[string]any{"room_type_id": uuid.NewString()})

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "room_number: failed required", decodeError(t, rec).Message)
}

func TestCreateRoom_DuplicateNumber_Returns409(t *testing.T) {
	rooms := &mockRoomServicer{
		create: func(_ context.Context, _ domain.Room) (domain.Room, error) {
			return domain.Room{}, fmt.Errorf("service.RoomService.Create: %w", domain.ErrConflict)
		},
	}
	h := newHTTPHandler(handler.Services{Rooms: rooms})

	rec := do(t, h, http.MethodPost, "/admin/rooms", adminToken,
		map[string]any{"room_number": "201", "room_type_id": uuid.NewString()})

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateRoom_UsesPathID(t *testing.T) {
	id := uuid.New()
	var got domain.Room
	rooms := &mockRoomServicer{
		update: func(_ context.Context, r domain.Room) (domain.Room, error) {
			got = r
			return r, nil
		},
	}
	h := newHTTPHandler(handler.Services{Rooms: rooms})

	rec := do(t, h, http.MethodPut, "/admin/rooms/"+id.String(), adminToken,
		map[string]any{"room_number": "201", "room_type_id": uuid.NewString(), "is_active": false})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, got.ID)
	assert.False(t, got.IsActive)
}

func TestDeactivateRoom(t *testing.T) {
	id := uuid.New()
	var got uuid.UUID
	rooms := &mockRoomServicer{
		deactivate: func(_ context.Context, rid uuid.UUID) error {
			got = rid
			return nil
		},
	}
	h := newHTTPHandler(handler.Services{Rooms: rooms})

	rec := do(t, h, http.MethodDelete, "/admin/rooms/"+id.String(), adminToken, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, id, got)
}

func TestRoomCalendar(t *testing.T) {
	stay, err := domain.ParseStay("2030-01-02", "2030-01-04")
	require.NoError(t, err)
	var window domain.Stay
	res := &mockReservationServicer{
		calendar: func(_ context.Context, _ uuid.UUID, w domain.Stay) ([]domain.Reservation, error) {
			window = w
			return []domain.Reservation{{ID: uuid.New(), Status: domain.StatusConfirmed, Stay: stay, Guests: 1}}, nil
		},
	}
	h := newHTTPHandler(handler.Services{Reservations: res})

	rec := do(t, h, http.MethodGet, "/admin/rooms/"+uuid.NewString()+"/calendar?from=2030-01-01&to=2030-02-01", adminToken, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 31, window.Nights())
	var body []handler.Reservation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, 2, body[0].Nights)
}
