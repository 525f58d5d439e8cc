// Package handler implements the HTTP handlers for the Room Reservation API.
// All handlers are methods on Server. Methods are split into resource files
// (rooms.go, reservations.go, etc.) but share the same Server struct so they
// can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pkordes/room-reservation/internal/domain"
	"github.com/pkordes/room-reservation/internal/middleware"
	"github.com/pkordes/room-reservation/internal/payment"
	"github.com/pkordes/room-reservation/internal/service"
)

// RoomServicer defines the room catalogue operations the handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type RoomServicer interface {
	List(ctx context.Context, filter domain.RoomFilter) ([]domain.Room, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Room, error)
	ListTypes(ctx context.Context) ([]domain.RoomType, error)
	Create(ctx context.Context, room domain.Room) (domain.Room, error)
	Update(ctx context.Context, room domain.Room) (domain.Room, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// ReservationServicer defines the booking lifecycle operations.
type ReservationServicer interface {
	CheckAvailability(ctx context.Context, roomID uuid.UUID, stay domain.Stay) (service.Quote, error)
	Create(ctx context.Context, caller domain.Caller, req service.BookingRequest) (domain.Reservation, error)
	Get(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Reservation, error)
	Cancel(ctx context.Context, caller domain.Caller, id uuid.UUID, reason string) (domain.Reservation, error)
	Complete(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Reservation, error)
	ListMine(ctx context.Context, caller domain.Caller) ([]domain.Reservation, error)
	ListPaged(ctx context.Context, status *domain.Status, p domain.PaginationParams) ([]domain.Reservation, int64, error)
	Calendar(ctx context.Context, roomID uuid.UUID, window domain.Stay) ([]domain.Reservation, error)
}

// CheckoutServicer defines the payment flow operations.
type CheckoutServicer interface {
	Start(ctx context.Context, caller domain.Caller, reservationID uuid.UUID) (payment.Session, error)
	Verify(ctx context.Context, caller domain.Caller, sessionID string) (domain.Reservation, error)
	Cancel(ctx context.Context, caller domain.Caller, sessionID string) (domain.Reservation, error)
}

// AuthServicer defines account operations.
type AuthServicer interface {
	Register(ctx context.Context, in service.Registration) (domain.User, error)
	Login(ctx context.Context, email, password string) (service.Session, error)
	Profile(ctx context.Context, caller domain.Caller) (domain.User, error)
	UpdateProfile(ctx context.Context, caller domain.Caller, fullName, phone string) (domain.User, error)
	ListUsers(ctx context.Context, caller domain.Caller, p domain.PaginationParams) ([]domain.User, int64, error)
}

// ExportServicer defines the operation the export handler depends on.
type ExportServicer interface {
	Export(ctx context.Context) ([]domain.ExportRow, error)
}

// EmailLogServicer exposes the notification delivery log.
type EmailLogServicer interface {
	Recent(ctx context.Context) ([]domain.Email, error)
}

// Services bundles every dependency of Server. A nil field leaves its
// routes wired but unusable; tests only fill what they exercise.
type Services struct {
	Rooms        RoomServicer
	Reservations ReservationServicer
	Checkout     CheckoutServicer
	Auth         AuthServicer
	Export       ExportServicer
	Emails       EmailLogServicer
}

// Server serves every API endpoint.
type Server struct {
	svc      Services
	log      *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewServer constructs the Server with all its dependencies.
func NewServer(svc Services, log *slog.Logger) *Server {
	return &Server{
		svc:      svc,
		log:      log,
		validate: newValidator(),
		now:      time.Now,
	}
}

// Handler returns the routed API. Routes below /users, /reservations and
// /payments need a bearer token accepted by verifier; /admin also needs the
// admin role.
func (s *Server) Handler(verifier middleware.TokenVerifier) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.getHealth)
	r.Post("/auth/register", s.register)
	r.Post("/auth/login", s.login)
	r.Get("/rooms", s.listRooms)
	r.Get("/rooms/{id}", s.getRoom)
	r.Get("/rooms/{id}/availability", s.checkAvailability)
	r.Get("/room-types", s.listRoomTypes)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthenticator(verifier))

		r.Get("/users/me", s.getProfile)
		r.Put("/users/me", s.updateProfile)

		r.Get("/reservations", s.listMyReservations)
		r.Post("/reservations", s.createReservation)
		r.Get("/reservations/{id}", s.getReservation)
		r.Post("/reservations/{id}/cancel", s.cancelReservation)
		r.Post("/reservations/{id}/checkout", s.startCheckout)

		r.Post("/payments/verify", s.verifyPayment)
		r.Post("/payments/cancel", s.cancelPayment)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Post("/rooms", s.createRoom)
			r.Put("/rooms/{id}", s.updateRoom)
			r.Delete("/rooms/{id}", s.deactivateRoom)
			r.Get("/rooms/{id}/calendar", s.roomCalendar)

			r.Get("/reservations", s.listAllReservations)
			r.Get("/reservations/export", s.getExport)
			r.Post("/reservations/{id}/complete", s.completeReservation)

			r.Get("/users", s.listUsers)
			r.Get("/email-queue", s.listEmails)
		})
	})

	return r
}

// caller returns the identity stored by the authenticator. Outside an
// authenticated route it is the zero Caller, which services reject.
func caller(r *http.Request) domain.Caller {
	c, _ := middleware.CallerFrom(r.Context())
	return c
}
