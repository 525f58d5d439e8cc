package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/room-reservation/internal/domain"
	"github.com/pkordes/room-reservation/internal/payment"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine-readable code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorMapping ties a sentinel error to its HTTP status and code.
type errorMapping struct {
	target error
	status int
	code   string
}

var errorTable = []errorMapping{
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_error"},
	{domain.ErrInvalidRange, http.StatusUnprocessableEntity, "invalid_range"},
	{domain.ErrInvalidPrice, http.StatusUnprocessableEntity, "invalid_price"},
	{domain.ErrCapacityExceeded, http.StatusUnprocessableEntity, "capacity_exceeded"},
	{domain.ErrCancellationWindow, http.StatusUnprocessableEntity, "cancellation_window"},
	{domain.ErrPaymentRefunded, http.StatusConflict, "payment_refunded"},
	{domain.ErrRoomUnavailable, http.StatusConflict, "room_unavailable"},
	{domain.ErrAlreadyTerminal, http.StatusConflict, "already_terminal"},
	{domain.ErrIllegalTransition, http.StatusConflict, "illegal_transition"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrPaymentIncomplete, http.StatusPaymentRequired, "payment_incomplete"},
	{payment.ErrNotConfigured, http.StatusServiceUnavailable, "payment_unavailable"},
}

// writeError maps err onto the error table and writes the envelope.
// Anything unmapped is logged and reported as a bare 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			writeJSON(w, m.status, ErrorResponse{Error: ErrorDetail{Code: m.code, Message: unwrapMessage(err, m.target)}})
			return
		}
	}
	s.log.ErrorContext(r.Context(), "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{Code: "internal_error", Message: "internal server error"}})
}

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the message because the handler knows what was being
// looked up.
func notFoundBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "not_found", Message: message}}
}

// requestBody returns an ErrorResponse for a request rejected before it
// reaches the service layer (malformed JSON, bad path or query parameter).
func requestBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}}
}

// unwrapMessage extracts the human-readable part that follows the sentinel in
// a wrapped error chain.
// e.g. "service.ReservationService.Create: capacity exceeded: room 101 holds 2 guests"
// → "room 101 holds 2 guests"
func unwrapMessage(err, sentinel error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return sentinel.Error()
}
