package handler

import (
	"errors"
	"net/http"

	"github.com/pkordes/room-reservation/internal/domain"
	"github.com/pkordes/room-reservation/internal/service"
)

// createReservation handles POST /reservations.
// The reservation is created PENDING; it is confirmed once paid.
func (s *Server) createReservation(w http.ResponseWriter, r *http.Request) {
	var body createReservationRequest
	if !s.bind(w, r, &body) {
		return
	}
	stay, err := domain.NewStay(body.CheckIn.Time, body.CheckOut.Time)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.svc.Reservations.Create(r.Context(), caller(r), service.BookingRequest{
		RoomID: body.RoomID,
		Stay:   stay,
		Guests: body.Guests,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("room not found"))
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.reservationToResponse(created))
}

// listMyReservations handles GET /reservations.
func (s *Server) listMyReservations(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Reservations.ListMine(r.Context(), caller(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reservationsToResponse(items))
}

// getReservation handles GET /reservations/{id}.
func (s *Server) getReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	res, err := s.svc.Reservations.Get(r.Context(), caller(r), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("reservation not found"))
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reservationToResponse(res))
}

// cancelReservation handles POST /reservations/{id}/cancel.
// The body is optional; an empty reason gets the default one.
func (s *Server) cancelReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body cancelReservationRequest
	if !s.bindOptional(w, r, &body) {
		return
	}

	cancelled, err := s.svc.Reservations.Cancel(r.Context(), caller(r), id, body.Reason)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("reservation not found"))
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reservationToResponse(cancelled))
}

// completeReservation handles POST /admin/reservations/{id}/complete.
func (s *Server) completeReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	done, err := s.svc.Reservations.Complete(r.Context(), caller(r), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("reservation not found"))
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reservationToResponse(done))
}

// listAllReservations handles GET /admin/reservations.
// Supports ?status= plus ?page= and ?limit= (defaults: page=1, limit=20, max=100).
func (s *Server) listAllReservations(w http.ResponseWriter, r *http.Request) {
	params, err := queryPagination(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	var status *domain.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := domain.ParseStatus(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		status = &st
	}

	items, total, err := s.svc.Reservations.ListPaged(r.Context(), status, params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(s.reservationsToResponse(items), params, total))
}
