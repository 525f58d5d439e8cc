package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/room-reservation/internal/domain"
)

// --- request decoding -------------------------------------------------------

// newValidator reports field errors by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind decodes the JSON body into dst and validates it.
// On failure the error response is already written and bind returns false.
func (s *Server) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	return s.decode(w, r, dst, false)
}

// bindOptional is bind for endpoints whose body may be omitted entirely.
func (s *Server) bindOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	return s.decode(w, r, dst, true)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if optional && errors.Is(err, io.EOF) {
		err = nil
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{
				Code: "request_too_large", Message: "request body too large",
			}})
		case errors.Is(err, io.EOF):
			writeJSON(w, http.StatusUnprocessableEntity, requestBody("request body is required"))
		default:
			writeJSON(w, http.StatusUnprocessableEntity, requestBody("malformed request body: "+err.Error()))
		}
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(validationMessage(err)))
		return false
	}
	return true
}

// validationMessage renders the first failed rule, e.g. "number_of_guests: failed min=1".
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}
	fe := fieldErrs[0]
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += "=" + fe.Param()
	}
	return fmt.Sprintf("%s: failed %s", fe.Field(), rule)
}

// pathID parses the {id} URL parameter. Writes 422 and returns false when it
// is not a UUID.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

// queryInt returns the integer query parameter name, or nil when absent.
func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", name)
	}
	return &n, nil
}

// queryStay parses a pair of date query parameters. ok is false when both
// are absent.
func queryStay(r *http.Request, fromKey, toKey string) (stay domain.Stay, ok bool, err error) {
	q := r.URL.Query()
	from, to := q.Get(fromKey), q.Get(toKey)
	if from == "" && to == "" {
		return domain.Stay{}, false, nil
	}
	if from == "" || to == "" {
		return domain.Stay{}, false, fmt.Errorf("%w: %s and %s must be given together", domain.ErrValidation, fromKey, toKey)
	}
	stay, err = domain.ParseStay(from, to)
	if err != nil {
		return domain.Stay{}, false, err
	}
	return stay, true, nil
}

// queryPagination reads ?page= and ?limit= (defaults: page=1, limit=20, max=100).
func queryPagination(r *http.Request) (domain.PaginationParams, error) {
	page, err := queryInt(r, "page")
	if err != nil {
		return domain.PaginationParams{}, err
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		return domain.PaginationParams{}, err
	}
	return domain.NewPaginationParams(page, limit), nil
}

// writeJSON writes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // the client is gone if the write fails.
	json.NewEncoder(w).Encode(v)
}

// --- request bodies ---------------------------------------------------------

type registerRequest struct {
	Email    openapi_types.Email `json:"email" validate:"required,email"`
	Password string              `json:"password" validate:"required,min=6"`
	FullName string              `json:"full_name" validate:"required,max=255"`
	Phone    string              `json:"phone" validate:"omitempty,max=20"`
}

type loginRequest struct {
	Email    openapi_types.Email `json:"email" validate:"required,email"`
	Password string              `json:"password" validate:"required"`
}

type profileRequest struct {
	FullName string `json:"full_name" validate:"required,max=255"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
}

type createReservationRequest struct {
	RoomID   uuid.UUID           `json:"room_id" validate:"required"`
	CheckIn  *openapi_types.Date `json:"check_in_date" validate:"required"`
	CheckOut *openapi_types.Date `json:"check_out_date" validate:"required"`
	Guests   int                 `json:"number_of_guests" validate:"required,min=1"`
}

type cancelReservationRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type paymentSessionRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type roomRequest struct {
	RoomNumber  string    `json:"room_number" validate:"required,max=20"`
	RoomTypeID  uuid.UUID `json:"room_type_id" validate:"required"`
	Description string    `json:"description"`
	IsActive    *bool     `json:"is_active"`
}

func (req roomRequest) toDomain(id uuid.UUID) domain.Room {
	room := domain.Room{
		ID:          id,
		RoomNumber:  req.RoomNumber,
		Type:        domain.RoomType{ID: req.RoomTypeID},
		IsActive:    true,
		Description: req.Description,
	}
	if req.IsActive != nil {
		room.IsActive = *req.IsActive
	}
	return room
}

// --- responses --------------------------------------------------------------

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Page is the envelope of paged listings.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func newPage[T any](data []T, p domain.PaginationParams, total int64) Page[T] {
	return Page[T]{Data: data, Pagination: Pagination{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      int(total),
		TotalPages: p.TotalPages(total),
	}}
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// RoomType is the wire form of domain.RoomType.
type RoomType struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	PricePerNight string    `json:"price_per_night"`
	Capacity      int       `json:"capacity"`
	Amenities     []string  `json:"amenities"`
}

// Room is the wire form of domain.Room.
type Room struct {
	ID          uuid.UUID `json:"id"`
	RoomNumber  string    `json:"room_number"`
	RoomType    RoomType  `json:"room_type"`
	IsActive    bool      `json:"is_active"`
	Description string    `json:"description,omitempty"`
}

// Quote answers an availability question.
type Quote struct {
	RoomID     uuid.UUID          `json:"room_id"`
	CheckIn    openapi_types.Date `json:"check_in_date"`
	CheckOut   openapi_types.Date `json:"check_out_date"`
	Nights     int                `json:"nights"`
	TotalPrice string             `json:"total_price"`
	Available  bool               `json:"available"`
}

// Reservation is the wire form of domain.Reservation.
type Reservation struct {
	ID                 uuid.UUID          `json:"id"`
	Email              string             `json:"email"`
	RoomID             uuid.UUID          `json:"room_id"`
	RoomNumber         string             `json:"room_number,omitempty"`
	Status             string             `json:"status"`
	ReservedAt         time.Time          `json:"reserved_at"`
	CheckIn            openapi_types.Date `json:"check_in_date"`
	CheckOut           openapi_types.Date `json:"check_out_date"`
	Nights             int                `json:"nights"`
	Guests             int                `json:"number_of_guests"`
	TotalPrice         string             `json:"total_price"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`
	CancellationReason string             `json:"cancellation_reason,omitempty"`
	PaymentReference   string             `json:"payment_reference,omitempty"`
	CanCancel          bool               `json:"can_cancel"`
}

// User is the wire form of domain.User. The password hash never leaves the server.
type User struct {
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the body of a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// Checkout points the guest at the hosted payment page.
type Checkout struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// Email is one entry of the notification delivery log.
type Email struct {
	ID            uuid.UUID  `json:"id"`
	ToEmail       string     `json:"to_email"`
	Subject       string     `json:"subject"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	Attempts      int        `json:"attempts"`
	MaxAttempts   int        `json:"max_attempts"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	ReservationID *uuid.UUID `json:"reservation_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// --- mapping helpers --------------------------------------------------------

func toDate(t time.Time) openapi_types.Date {
	return openapi_types.Date{Time: t}
}

func roomTypeToResponse(t domain.RoomType) RoomType {
	amenities := t.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return RoomType{
		ID:            t.ID,
		Name:          t.Name,
		Description:   t.Description,
		PricePerNight: t.PricePerNight.StringFixed(2),
		Capacity:      t.Capacity,
		Amenities:     amenities,
	}
}

func roomToResponse(r domain.Room) Room {
	return Room{
		ID:          r.ID,
		RoomNumber:  r.RoomNumber,
		RoomType:    roomTypeToResponse(r.Type),
		IsActive:    r.IsActive,
		Description: r.Description,
	}
}

func (s *Server) reservationToResponse(r domain.Reservation) Reservation {
	return Reservation{
		ID:                 r.ID,
		Email:              r.Email,
		RoomID:             r.RoomID,
		RoomNumber:         r.RoomNumber,
		Status:             r.Status.String(),
		ReservedAt:         r.ReservedAt,
		CheckIn:            toDate(r.Stay.CheckIn),
		CheckOut:           toDate(r.Stay.CheckOut),
		Nights:             r.Nights(),
		Guests:             r.Guests,
		TotalPrice:         r.TotalPrice.StringFixed(2),
		CancelledAt:        r.CancelledAt,
		CancellationReason: r.CancellationReason,
		PaymentReference:   r.PaymentReference,
		CanCancel:          domain.CanCancel(r, s.now()),
	}
}

func (s *Server) reservationsToResponse(rs []domain.Reservation) []Reservation {
	out := make([]Reservation, len(rs))
	for i, r := range rs {
		out[i] = s.reservationToResponse(r)
	}
	return out
}

func userToResponse(u domain.User) User {
	return User{
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func emailToResponse(e domain.Email) Email {
	return Email{
		ID:            e.ID,
		ToEmail:       e.ToEmail,
		Subject:       e.Subject,
		Type:          e.Type,
		Status:        string(e.Status),
		Attempts:      e.Attempts,
		MaxAttempts:   e.MaxAttempts,
		SentAt:        e.SentAt,
		ErrorMessage:  e.ErrorMessage,
		ReservationID: e.ReservationID,
		CreatedAt:     e.CreatedAt,
	}
}
