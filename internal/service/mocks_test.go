package service_test

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/room-reservation/internal/domain"
	"github.com/pkordes/room-reservation/internal/payment"
	"github.com/pkordes/room-reservation/internal/repo"
	"github.com/pkordes/room-reservation/internal/service"
)

// Hand-written test doubles. Each method is a function field; set only the
// ones a test needs. Calling an unset one panics, which fails the test loudly.

type mockReservationRepo struct {
	create            func(ctx context.Context, r domain.Reservation) (domain.Reservation, error)
	getByID           func(ctx context.Context, id uuid.UUID) (domain.Reservation, error)
	listActiveByRoom  func(ctx context.Context, roomID uuid.UUID, excludeID *uuid.UUID) ([]domain.Reservation, error)
	listByEmail       func(ctx context.Context, email string) ([]domain.Reservation, error)
	listPaged         func(ctx context.Context, status *domain.Status, p domain.PaginationParams) ([]domain.Reservation, int64, error)
	listAll           func(ctx context.Context) ([]domain.Reservation, error)
	getByPaymentRef   func(ctx context.Context, ref string) (domain.Reservation, error)
	listPendingBefore func(ctx context.Context, cutoff time.Time) ([]domain.Reservation, error)
	attachPayment     func(ctx context.Context, id uuid.UUID, ref string) error
	updateStatus      func(ctx context.Context, r domain.Reservation, from domain.Status) (domain.Reservation, error)
}

func (m *mockReservationRepo) Create(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	return m.create(ctx, r)
}
func (m *mockReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	return m.getByID(ctx, id)
}
func (m *mockReservationRepo) ListActiveByRoom(ctx context.Context, roomID uuid.UUID, excludeID *uuid.UUID) ([]domain.Reservation, error) {
	return m.listActiveByRoom(ctx, roomID, excludeID)
}
func (m *mockReservationRepo) ListByEmail(ctx context.Context, email string) ([]domain.Reservation, error) {
	return m.listByEmail(ctx, email)
}
func (m *mockReservationRepo) ListPaged(ctx context.Context, status *domain.Status, p domain.PaginationParams) ([]domain.Reservation, int64, error) {
	return m.listPaged(ctx, status, p)
}
func (m *mockReservationRepo) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	return m.listAll(ctx)
}
func (m *mockReservationRepo) GetByPaymentReference(ctx context.Context, ref string) (domain.Reservation, error) {
	return m.getByPaymentRef(ctx, ref)
}
func (m *mockReservationRepo) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Reservation, error) {
	return m.listPendingBefore(ctx, cutoff)
}
func (m *mockReservationRepo) AttachPayment(ctx context.Context, id uuid.UUID, ref string) error {
	return m.attachPayment(ctx, id, ref)
}
func (m *mockReservationRepo) UpdateStatus(ctx context.Context, r domain.Reservation, from domain.Status) (domain.Reservation, error) {
	return m.updateStatus(ctx, r, from)
}

var _ repo.ReservationRepo = (*mockReservationRepo)(nil)

type mockRoomRepo struct {
	list       func(ctx context.Context, activeOnly bool) ([]domain.Room, error)
	getByID    func(ctx context.Context, id uuid.UUID) (domain.Room, error)
	getActive  func(ctx context.Context, id uuid.UUID) (domain.Room, error)
	create     func(ctx context.Context, room domain.Room) (domain.Room, error)
	update     func(ctx context.Context, room domain.Room) (domain.Room, error)
	deactivate func(ctx context.Context, id uuid.UUID) error
	listTypes  func(ctx context.Context) ([]domain.RoomType, error)
}

func (m *mockRoomRepo) List(ctx context.Context, activeOnly bool) ([]domain.Room, error) {
	return m.list(ctx, activeOnly)
}
func (m *mockRoomRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Room, error) {
	return m.getByID(ctx, id)
}
func (m *mockRoomRepo) GetActive(ctx context.Context, id uuid.UUID) (domain.Room, error) {
	return m.getActive(ctx, id)
}
func (m *mockRoomRepo) Create(ctx context.Context, room domain.Room) (domain.Room, error) {
	return m.create(ctx, room)
}
func (m *mockRoomRepo) Update(ctx context.Context, room domain.Room) (domain.Room, error) {
	return m.update(ctx, room)
}
func (m *mockRoomRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.deactivate(ctx, id)
}
func (m *mockRoomRepo) ListTypes(ctx context.Context) ([]domain.RoomType, error) {
	return m.listTypes(ctx)
}

var _ repo.RoomRepo = (*mockRoomRepo)(nil)

type mockUserRepo struct {
	create        func(ctx context.Context, u domain.User) (domain.User, error)
	getByEmail    func(ctx context.Context, email string) (domain.User, error)
	updateProfile func(ctx context.Context, u domain.User) (domain.User, error)
	listPaged     func(ctx context.Context, p domain.PaginationParams) ([]domain.User, int64, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	return m.create(ctx, u)
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return m.getByEmail(ctx, email)
}
func (m *mockUserRepo) UpdateProfile(ctx context.Context, u domain.User) (domain.User, error) {
	return m.updateProfile(ctx, u)
}
func (m *mockUserRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.User, int64, error) {
	return m.listPaged(ctx, p)
}

var _ repo.UserRepo = (*mockUserRepo)(nil)

// guestsRepo answers every lookup with a guest named after the email.
func guestsRepo() *mockUserRepo {
	return &mockUserRepo{
		getByEmail: func(_ context.Context, email string) (domain.User, error) {
			return domain.User{Email: email, FullName: "Ana Guest", Role: domain.RoleUser}, nil
		},
	}
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evt domain.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) kinds() []domain.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventKind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

var _ service.EventPublisher = (*recordingPublisher)(nil)

type mockGateway struct {
	createSession func(ctx context.Context, req payment.SessionRequest) (payment.Session, error)
	getSession    func(ctx context.Context, id string) (payment.Session, error)
	expireSession func(ctx context.Context, id string) (payment.Session, error)
	refund        func(ctx context.Context, sess payment.Session) error
}

func (m *mockGateway) CreateSession(ctx context.Context, req payment.SessionRequest) (payment.Session, error) {
	return m.createSession(ctx, req)
}
func (m *mockGateway) GetSession(ctx context.Context, id string) (payment.Session, error) {
	return m.getSession(ctx, id)
}
func (m *mockGateway) ExpireSession(ctx context.Context, id string) (payment.Session, error) {
	return m.expireSession(ctx, id)
}
func (m *mockGateway) Refund(ctx context.Context, sess payment.Session) error {
	return m.refund(ctx, sess)
}

var _ service.PaymentGateway = (*mockGateway)(nil)

// memReservations is an in-memory ReservationRepo that enforces the same
// no-overlap rule as the database exclusion constraint, atomically.
type memReservations struct {
	mu   sync.Mutex
	rows map[uuid.UUID]domain.Reservation
	// beforeInsert runs after the overlap pre-check has been answered but
	// before the insert takes the lock. Tests use it to line up racers.
	beforeInsert func()
}

func newMemReservations() *memReservations {
	return &memReservations{rows: map[uuid.UUID]domain.Reservation{}}
}

func (m *memReservations) Create(_ context.Context, r domain.Reservation) (domain.Reservation, error) {
	if m.beforeInsert != nil {
		m.beforeInsert()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.rows {
		if other.RoomID == r.RoomID && other.IsActive() && other.Stay.Overlaps(r.Stay) {
			return domain.Reservation{}, domain.ErrRoomUnavailable
		}
	}
	r.ID = uuid.New()
	m.rows[r.ID] = r
	return r, nil
}

func (m *memReservations) GetByID(_ context.Context, id uuid.UUID) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return domain.Reservation{}, domain.ErrNotFound
	}
	return r, nil
}

func (m *memReservations) ListActiveByRoom(_ context.Context, roomID uuid.UUID, excludeID *uuid.UUID) ([]domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Reservation
	for _, r := range m.rows {
		if r.RoomID != roomID || !r.IsActive() || (excludeID != nil && r.ID == *excludeID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *memReservations) ListByEmail(context.Context, string) ([]domain.Reservation, error) {
	return nil, nil
}

func (m *memReservations) ListPaged(context.Context, *domain.Status, domain.PaginationParams) ([]domain.Reservation, int64, error) {
	return nil, 0, nil
}

func (m *memReservations) ListAll(context.Context) ([]domain.Reservation, error) {
	return nil, nil
}

func (m *memReservations) GetByPaymentReference(_ context.Context, ref string) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.PaymentReference == ref && r.IsActive() {
			return r, nil
		}
	}
	return domain.Reservation{}, domain.ErrNotFound
}

func (m *memReservations) ListPendingBefore(_ context.Context, cutoff time.Time) ([]domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Reservation
	for _, r := range m.rows {
		if r.Status == domain.StatusPending && r.ReservedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReservations) AttachPayment(_ context.Context, id uuid.UUID, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	if r.Status != domain.StatusPending {
		return domain.ErrIllegalTransition
	}
	r.PaymentReference = ref
	m.rows[id] = r
	return nil
}

// put stores r as is, bypassing the overlap rule.
func (m *memReservations) put(r domain.Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[r.ID] = r
}

// byEmail returns every stored reservation of email.
func (m *memReservations) byEmail(email string) []domain.Reservation {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Reservation
	for _, r := range m.rows {
		if r.Email == email {
			out = append(out, r)
		}
	}
	return out
}

func (m *memReservations) UpdateStatus(_ context.Context, r domain.Reservation, from domain.Status) (domain.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[r.ID]
	if !ok {
		return domain.Reservation{}, domain.ErrNotFound
	}
	if cur.Status != from {
		return domain.Reservation{}, domain.ErrIllegalTransition
	}
	m.rows[r.ID] = r
	return r, nil
}

var _ repo.ReservationRepo = (*memReservations)(nil)

// ---- shared fixtures -------------------------------------------------------

var (
	guest = domain.Caller{Email: "ana@example.com", Role: domain.RoleUser}
	admin = domain.Caller{Email: "ops@example.com", Role: domain.RoleAdmin}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func fixedClock(s string) func() time.Time {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return ts }
}
