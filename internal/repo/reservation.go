package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/room-reservation/internal/domain"
)

// ReservationRepo defines the persistence operations for Reservations.
//
// The reservations table carries an exclusion constraint over
// (room_id, daterange(check_in_date, check_out_date, '[)')) for every row whose
// status is not CANCELLED. Create therefore cannot commit an overlapping
// reservation even when two callers pass the availability pre-check at the
// same time: the loser receives domain.ErrRoomUnavailable.
type ReservationRepo interface {
	// Create inserts a reservation and returns the persisted record.
	// Returns domain.ErrRoomUnavailable if an active reservation for the same
	// room overlaps the stay, and domain.ErrNotFound if the room or user is missing.
	Create(ctx context.Context, r domain.Reservation) (domain.Reservation, error)

	// GetByID retrieves a reservation by primary key.
	// Returns domain.ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error)

	// ListActiveByRoom returns every non-cancelled reservation of a room,
	// ordered by check-in. A non-nil excludeID is left out of the result.
	ListActiveByRoom(ctx context.Context, roomID uuid.UUID, excludeID *uuid.UUID) ([]domain.Reservation, error)

	// ListByEmail returns the non-cancelled reservations of one user, newest first.
	ListByEmail(ctx context.Context, email string) ([]domain.Reservation, error)

	// ListPaged returns one page of reservations, optionally filtered by status,
	// newest first, plus the total count.
	ListPaged(ctx context.Context, status *domain.Status, p domain.PaginationParams) ([]domain.Reservation, int64, error)

	// ListAll returns every reservation ordered by reservation date.
	ListAll(ctx context.Context) ([]domain.Reservation, error)

	// GetByPaymentReference returns the non-cancelled reservation carrying ref.
	// Returns domain.ErrNotFound if there is none.
	GetByPaymentReference(ctx context.Context, ref string) (domain.Reservation, error)

	// ListPendingBefore returns PENDING reservations made before cutoff,
	// oldest first.
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Reservation, error)

	// AttachPayment records the checkout session opened for a PENDING
	// reservation. Returns domain.ErrIllegalTransition if it is no longer PENDING.
	AttachPayment(ctx context.Context, id uuid.UUID, ref string) error

	// UpdateStatus persists r's status, cancellation stamp and payment reference,
	// but only if the stored status still equals from. Returns
	// domain.ErrIllegalTransition when another writer changed the status first.
	UpdateStatus(ctx context.Context, r domain.Reservation, from domain.Status) (domain.Reservation, error)
}

// pgReservationRepo is the Postgres implementation of ReservationRepo.
type pgReservationRepo struct {
	db db
}

// NewReservationRepo constructs a ReservationRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewReservationRepo(db db) ReservationRepo {
	return &pgReservationRepo{db: db}
}

const reservationColumns = `
	v.reservation_id, v.email, v.room_id, v.status, v.reservation_date,
	v.check_in_date, v.check_out_date, v.number_of_guests, v.total_price::text,
	v.cancellation_date, v.cancellation_reason, v.payment_reference,
	v.created_at, v.updated_at, rm.room_number`

const reservationFrom = `
	FROM reservations v
	JOIN rooms rm ON rm.room_id = v.room_id`

func (r *pgReservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	const q = `
		INSERT INTO reservations
			(email, room_id, status, reservation_date, check_in_date, check_out_date,
			 number_of_guests, total_price, payment_reference)
		VALUES
			(@email, @room_id, @status, @reservation_date, @check_in_date, @check_out_date,
			 @number_of_guests, @total_price, @payment_reference)
		RETURNING reservation_id`

	args := pgx.NamedArgs{
		"email":             res.Email,
		"room_id":           res.RoomID,
		"status":            string(res.Status),
		"reservation_date":  res.ReservedAt,
		"check_in_date":     res.Stay.CheckIn,
		"check_out_date":    res.Stay.CheckOut,
		"number_of_guests":  res.Guests,
		"total_price":       res.TotalPrice.StringFixed(2),
		"payment_reference": nullableText(res.PaymentReference),
	}

	var id pgtype.UUID
	if err := r.db.QueryRow(ctx, q, args).Scan(&id); err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Create: %w", mapPgError(err))
	}
	return r.GetByID(ctx, uuid.UUID(id.Bytes))
}

func (r *pgReservationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Reservation, error) {
	q := `SELECT ` + reservationColumns + reservationFrom + ` WHERE v.reservation_id = @id`

	res, err := scanReservation(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.GetByID: %w", mapPgError(err))
	}
	return res, nil
}

func (r *pgReservationRepo) ListActiveByRoom(ctx context.Context, roomID uuid.UUID, excludeID *uuid.UUID) ([]domain.Reservation, error) {
	q := `SELECT ` + reservationColumns + reservationFrom + `
		WHERE v.room_id = @room_id
		  AND v.status <> 'CANCELLED'
		  AND (@exclude_id::uuid IS NULL OR v.reservation_id <> @exclude_id::uuid)
		ORDER BY v.check_in_date`

	args := pgx.NamedArgs{"room_id": roomID, "exclude_id": excludeID}
	out, err := r.query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListActiveByRoom: %w", err)
	}
	return out, nil
}

func (r *pgReservationRepo) ListByEmail(ctx context.Context, email string) ([]domain.Reservation, error) {
	q := `SELECT ` + reservationColumns + reservationFrom + `
		WHERE v.email = @email AND v.status <> 'CANCELLED'
		ORDER BY v.reservation_date DESC`

	out, err := r.query(ctx, q, pgx.NamedArgs{"email": email})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListByEmail: %w", err)
	}
	return out, nil
}

func (r *pgReservationRepo) ListPaged(ctx context.Context, status *domain.Status, p domain.PaginationParams) ([]domain.Reservation, int64, error) {
	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}

	const countQ = `
		SELECT count(*) FROM reservations
		WHERE (@status::text IS NULL OR status = @status::text)`

	var total int64
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"status": statusArg}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.ReservationRepo.ListPaged: count: %w", err)
	}

	q := `SELECT ` + reservationColumns + reservationFrom + `
		WHERE (@status::text IS NULL OR v.status = @status::text)
		ORDER BY v.reservation_date DESC
		LIMIT @limit OFFSET @offset`

	args := pgx.NamedArgs{"status": statusArg, "limit": p.Limit, "offset": p.Offset()}
	out, err := r.query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ReservationRepo.ListPaged: %w", err)
	}
	return out, total, nil
}

func (r *pgReservationRepo) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	q := `SELECT ` + reservationColumns + reservationFrom + ` ORDER BY v.reservation_date`

	out, err := r.query(ctx, q, pgx.NamedArgs{})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListAll: %w", err)
	}
	return out, nil
}

func (r *pgReservationRepo) GetByPaymentReference(ctx context.Context, ref string) (domain.Reservation, error) {
	q := `SELECT ` + reservationColumns + reservationFrom + `
		WHERE v.payment_reference = @ref AND v.status <> 'CANCELLED'
		ORDER BY v.reservation_date DESC
		LIMIT 1`

	res, err := scanReservation(r.db.QueryRow(ctx, q, pgx.NamedArgs{"ref": ref}))
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.GetByPaymentReference: %w", mapPgError(err))
	}
	return res, nil
}

func (r *pgReservationRepo) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Reservation, error) {
	q := `SELECT ` + reservationColumns + reservationFrom + `
		WHERE v.status = 'PENDING' AND v.reservation_date < @cutoff
		ORDER BY v.reservation_date`

	out, err := r.query(ctx, q, pgx.NamedArgs{"cutoff": cutoff})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListPendingBefore: %w", err)
	}
	return out, nil
}

func (r *pgReservationRepo) AttachPayment(ctx context.Context, id uuid.UUID, ref string) error {
	const q = `
		UPDATE reservations
		SET payment_reference = @ref, updated_at = now()
		WHERE reservation_id = @id AND status = 'PENDING'`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "ref": ref})
	if err != nil {
		return fmt.Errorf("repo.ReservationRepo.AttachPayment: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("repo.ReservationRepo.AttachPayment: %w", err)
		}
		return fmt.Errorf("repo.ReservationRepo.AttachPayment: %w: status is now %s",
			domain.ErrIllegalTransition, current.Status)
	}
	return nil
}

func (r *pgReservationRepo) UpdateStatus(ctx context.Context, res domain.Reservation, from domain.Status) (domain.Reservation, error) {
	const q = `
		UPDATE reservations
		SET status              = @status,
		    cancellation_date   = @cancellation_date,
		    cancellation_reason = @cancellation_reason,
		    payment_reference   = @payment_reference,
		    updated_at          = now()
		WHERE reservation_id = @id AND status = @from`

	args := pgx.NamedArgs{
		"id":                  res.ID,
		"status":              string(res.Status),
		"from":                string(from),
		"cancellation_date":   res.CancelledAt,
		"cancellation_reason": nullableText(res.CancellationReason),
		"payment_reference":   nullableText(res.PaymentReference),
	}

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.UpdateStatus: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		// Either the row is gone or someone else moved it out of `from`.
		current, err := r.GetByID(ctx, res.ID)
		if err != nil {
			return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.UpdateStatus: %w", err)
		}
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.UpdateStatus: %w: status is now %s",
			domain.ErrIllegalTransition, current.Status)
	}
	return r.GetByID(ctx, res.ID)
}

func (r *pgReservationRepo) query(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// scanReservation maps a row selected with reservationColumns into a domain.Reservation.
// It handles the UUID, date, numeric and nullable cancellation conversions.
func scanReservation(s scanner) (domain.Reservation, error) {
	var (
		res         domain.Reservation
		id          pgtype.UUID
		roomID      pgtype.UUID
		status      string
		checkIn     pgtype.Date
		checkOut    pgtype.Date
		price       string
		cancelledAt pgtype.Timestamptz
		reason      pgtype.Text
		paymentRef  pgtype.Text
	)

	err := s.Scan(
		&id, &res.Email, &roomID, &status, &res.ReservedAt,
		&checkIn, &checkOut, &res.Guests, &price,
		&cancelledAt, &reason, &paymentRef,
		&res.CreatedAt, &res.UpdatedAt, &res.RoomNumber,
	)
	if err != nil {
		return domain.Reservation{}, err
	}

	res.ID = uuid.UUID(id.Bytes)
	res.RoomID = uuid.UUID(roomID.Bytes)
	res.Status = domain.Status(status)
	res.Stay = domain.Stay{CheckIn: domain.DateOf(checkIn.Time), CheckOut: domain.DateOf(checkOut.Time)}
	if res.TotalPrice, err = parseMoney(price); err != nil {
		return domain.Reservation{}, err
	}
	if cancelledAt.Valid {
		ts := cancelledAt.Time.UTC()
		res.CancelledAt = &ts
	}
	res.CancellationReason = reason.String
	res.PaymentReference = paymentRef.String
	return res, nil
}

// nullableText maps "" to SQL NULL.
func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
