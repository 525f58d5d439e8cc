package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/room-reservation/internal/domain"
	"github.com/pkordes/room-reservation/internal/handler"
	"github.com/pkordes/room-reservation/internal/payment"
	"github.com/pkordes/room-reservation/internal/service"
)

// ---- mock servicers --------------------------------------------------------

type mockRoomServicer struct {
	list       func(ctx context.Context, filter domain.RoomFilter) ([]domain.Room, error)
	get        func(ctx context.Context, id uuid.UUID) (domain.Room, error)
	listTypes  func(ctx context.Context) ([]domain.RoomType, error)
	create     func(ctx context.Context, room domain.Room) (domain.Room, error)
	update     func(ctx context.Context, room domain.Room) (domain.Room, error)
	deactivate func(ctx context.Context, id uuid.UUID) error
}

func (m *mockRoomServicer) List(ctx context.Context, filter domain.RoomFilter) ([]domain.Room, error) {
	return m.list(ctx, filter)
}
func (m *mockRoomServicer) Get(ctx context.Context, id uuid.UUID) (domain.Room, error) {
	return m.get(ctx, id)
}
func (m *mockRoomServicer) ListTypes(ctx context.Context) ([]domain.RoomType, error) {
	return m.listTypes(ctx)
}
func (m *mockRoomServicer) Create(ctx context.Context, room domain.Room) (domain.Room, error) {
	return m.create(ctx, room)
}
func (m *mockRoomServicer) Update(ctx context.Context, room domain.Room) (domain.Room, error) {
	return m.update(ctx, room)
}
func (m *mockRoomServicer) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.deactivate(ctx, id)
}

var _ handler.RoomServicer = (*mockRoomServicer)(nil)

type mockReservationServicer struct {
	checkAvailability func(ctx context.Context, roomID uuid.UUID, stay domain.Stay) (service.Quote, error)
	create            func(ctx context.Context, caller domain.Caller, req service.BookingRequest) (domain.Reservation, error)
	get               func(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Reservation, error)
	cancel            func(ctx context.Context, caller domain.Caller, id uuid.UUID, reason string) (domain.Reservation, error)
	complete          func(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Reservation, error)
	listMine          func(ctx context.Context, caller domain.Caller) ([]domain.Reservation, error)
	listPaged         func(ctx context.Context, status *domain.Status, p domain.PaginationParams) ([]domain.Reservation, int64, error)
	calendar          func(ctx context.Context, roomID uuid.UUID, window domain.Stay) ([]domain.Reservation, error)
}

func (m *mockReservationServicer) CheckAvailability(ctx context.Context, roomID uuid.UUID, stay domain.Stay) (service.Quote, error) {
	return m.checkAvailability(ctx, roomID, stay)
}
func (m *mockReservationServicer) Create(ctx context.Context, caller domain.Caller, req service.BookingRequest) (domain.Reservation, error) {
	return m.create(ctx, caller, req)
}
func (m *mockReservationServicer) Get(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Reservation, error) {
	return m.get(ctx, caller, id)
}
func (m *mockReservationServicer) Cancel(ctx context.Context, caller domain.Caller, id uuid.UUID, reason string) (domain.Reservation, error) {
	return m.cancel(ctx, caller, id, reason)
}
func (m *mockReservationServicer) Complete(ctx context.Context, caller domain.Caller, id uuid.UUID) (domain.Reservation, error) {
	return m.complete(ctx, caller, id)
}
func (m *mockReservationServicer) ListMine(ctx context.Context, caller domain.Caller) ([]domain.Reservation, error) {
	return m.listMine(ctx, caller)
}
func (m *mockReservationServicer) ListPaged(ctx context.Context, status *domain.Status, p domain.PaginationParams) ([]domain.Reservation, int64, error) {
	return m.listPaged(ctx, status, p)
}
func (m *mockReservationServicer) Calendar(ctx context.Context, roomID uuid.UUID, window domain.Stay) ([]domain.Reservation, error) {
	return m.calendar(ctx, roomID, window)
}

var _ handler.ReservationServicer = (*mockReservationServicer)(nil)

type mockCheckoutServicer struct {
	start  func(ctx context.Context, caller domain.Caller, reservationID uuid.UUID) (payment.Session, error)
	verify func(ctx context.Context, caller domain.Caller, sessionID string) (domain.Reservation, error)
	cancel func(ctx context.Context, caller domain.Caller, sessionID string) (domain.Reservation, error)
}

func (m *mockCheckoutServicer) Start(ctx context.Context, caller domain.Caller, reservationID uuid.UUID) (payment.Session, error) {
	return m.start(ctx, caller, reservationID)
}
func (m *mockCheckoutServicer) Verify(ctx context.Context, caller domain.Caller, sessionID string) (domain.Reservation, error) {
	return m.verify(ctx, caller, sessionID)
}
func (m *mockCheckoutServicer) Cancel(ctx context.Context, caller domain.Caller, sessionID string) (domain.Reservation, error) {
	return m.cancel(ctx, caller, sessionID)
}

var _ handler.CheckoutServicer = (*mockCheckoutServicer)(nil)

type mockAuthServicer struct {
	register      func(ctx context.Context, in service.Registration) (domain.User, error)
	login         func(ctx context.Context, email, password string) (service.Session, error)
	profile       func(ctx context.Context, caller domain.Caller) (domain.User, error)
	updateProfile func(ctx context.Context, caller domain.Caller, fullName, phone string) (domain.User, error)
	listUsers     func(ctx context.Context, caller domain.Caller, p domain.PaginationParams) ([]domain.User, int64, error)
}

func (m *mockAuthServicer) Register(ctx context.Context, in service.Registration) (domain.User, error) {
	return m.register(ctx, in)
}
func (m *mockAuthServicer) Login(ctx context.Context, email, password string) (service.Session, error) {
	return m.login(ctx, email, password)
}
func (m *mockAuthServicer) Profile(ctx context.Context, caller domain.Caller) (domain.User, error) {
	return m.profile(ctx, caller)
}
func (m *mockAuthServicer) UpdateProfile(ctx context.Context, caller domain.Caller, fullName, phone string) (domain.User, error) {
	return m.updateProfile(ctx, caller, fullName, phone)
}
func (m *mockAuthServicer) ListUsers(ctx context.Context, caller domain.Caller, p domain.PaginationParams) ([]domain.User, int64, error) {
	return m.listUsers(ctx, caller, p)
}

var _ handler.AuthServicer = (*mockAuthServicer)(nil)

type mockExportServicer struct {
	export func(ctx context.Context) ([]domain.ExportRow, error)
}

func (m *mockExportServicer) Export(ctx context.Context) ([]domain.ExportRow, error) {
	return m.export(ctx)
}

var _ handler.ExportServicer = (*mockExportServicer)(nil)

type mockEmailLogServicer struct {
	recent func(ctx context.Context) ([]domain.Email, error)
}

func (m *mockEmailLogServicer) Recent(ctx context.Context) ([]domain.Email, error) {
	return m.recent(ctx)
}

var _ handler.EmailLogServicer = (*mockEmailLogServicer)(nil)

// ---- auth ------------------------------------------------------------------

const (
	guestToken = "guest-token"
	adminToken = "admin-token"
)

var (
	guest = domain.Caller{Email: "guest@example.com", Role: domain.RoleUser}
	admin = domain.Caller{Email: "admin@example.com", Role: domain.RoleAdmin}
)

// stubVerifier accepts exactly guestToken and adminToken.
type stubVerifier struct{}

func (stubVerifier) Verify(token string) (domain.Caller, error) {
	switch token {
	case guestToken:
		return guest, nil
	case adminToken:
		return admin, nil
	}
	return domain.Caller{}, domain.ErrUnauthorized
}

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mocks behind the full router.
func newHTTPHandler(svc handler.Services) http.Handler {
	log := slog.New(slog.DiscardHandler)
	return handler.NewServer(svc, log).Handler(stubVerifier{})
}

// do sends a request through h. body is JSON-encoded unless it is nil or a string.
func do(t *testing.T, h http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// decodeError reads the error envelope from rec.
func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

var errBoom = errors.New("boom")
