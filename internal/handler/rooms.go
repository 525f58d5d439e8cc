package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/pkordes/room-reservation/internal/domain"
)

// listRooms handles GET /rooms.
// ?guests= keeps rooms that hold that many people; ?check_in=&check_out=
// keeps rooms free for the whole stay.
func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	var filter domain.RoomFilter

	guests, err := queryInt(r, "guests")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	if guests != nil {
		filter.MinCapacity = *guests
	}

	stay, ok, err := queryStay(r, "check_in", "check_out")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if ok {
		filter.Stay = &stay
	}

	rooms, err := s.svc.Rooms.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]Room, len(rooms))
	for i, room := range rooms {
		out[i] = roomToResponse(room)
	}
	writeJSON(w, http.StatusOK, out)
}

// getRoom handles GET /rooms/{id}.
func (s *Server) getRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	room, err := s.svc.Rooms.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("room not found"))
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roomToResponse(room))
}

// checkAvailability handles GET /rooms/{id}/availability?check_in=&check_out=.
func (s *Server) checkAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	stay, ok, err := queryStay(r, "check_in", "check_out")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("check_in and check_out are required"))
		return
	}

	q, err := s.svc.Reservations.CheckAvailability(r.Context(), id, stay)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("room not found"))
			return
		}
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, Quote{
		RoomID:     q.Room.ID,
		CheckIn:    toDate(q.Stay.CheckIn),
		CheckOut:   toDate(q.Stay.CheckOut),
		Nights:     q.Nights,
		TotalPrice: q.TotalPrice.StringFixed(2),
		Available:  q.Available,
	})
}

// listRoomTypes handles GET /room-types.
func (s *Server) listRoomTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.svc.Rooms.ListTypes(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]RoomType, len(types))
	for i, t := range types {
		out[i] = roomTypeToResponse(t)
	}
	writeJSON(w, http.StatusOK, out)
}

// createRoom handles POST /admin/rooms.
func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	var body roomRequest
	if !s.bind(w, r, &body) {
		return
	}

	created, err := s.svc.Rooms.Create(r.Context(), body.toDomain(uuid.Nil))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, roomToResponse(created))
}

// updateRoom handles PUT /admin/rooms/{id}.
func (s *Server) updateRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body roomRequest
	if !s.bind(w, r, &body) {
		return
	}

	updated, err := s.svc.Rooms.Update(r.Context(), body.toDomain(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("room not found"))
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roomToResponse(updated))
}

// deactivateRoom handles DELETE /admin/rooms/{id}.
// The room leaves the catalogue; its reservations are kept.
func (s *Server) deactivateRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.svc.Rooms.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("room not found"))
			return
		}
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// roomCalendar handles GET /admin/rooms/{id}/calendar?from=&to=.
// It lists the active reservations that occupy the room inside the window.
func (s *Server) roomCalendar(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	window, ok, err := queryStay(r, "from", "to")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("from and to are required"))
		return
	}

	booked, err := s.svc.Reservations.Calendar(r.Context(), id, window)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("room not found"))
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reservationsToResponse(booked))
}
