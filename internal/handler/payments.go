package handler

import (
	"errors"
	"net/http"

	"github.com/pkordes/room-reservation/internal/domain"
)

// startCheckout handles POST /reservations/{id}/checkout.
// It opens a hosted payment session for a PENDING reservation.
func (s *Server) startCheckout(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	sess, err := s.svc.Checkout.Start(r.Context(), caller(r), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, notFoundBody("reservation not found"))
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Checkout{SessionID: sess.ID, URL: sess.URL})
}

// verifyPayment handles POST /payments/verify.
// A paid session confirms its reservation.
func (s *Server) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var body paymentSessionRequest
	if !s.bind(w, r, &body) {
		return
	}

	res, err := s.svc.Checkout.Verify(r.Context(), caller(r), body.SessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reservationToResponse(res))
}

// cancelPayment handles POST /payments/cancel.
// An abandoned session releases the PENDING hold on the room.
func (s *Server) cancelPayment(w http.ResponseWriter, r *http.Request) {
	var body paymentSessionRequest
	if !s.bind(w, r, &body) {
		return
	}

	res, err := s.svc.Checkout.Cancel(r.Context(), caller(r), body.SessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.reservationToResponse(res))
}
