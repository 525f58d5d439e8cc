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

// EmailRepo records outbound notification emails and their delivery attempts.
type EmailRepo interface {
	// Create queues an email in pending state and returns it with its ID.
	Create(ctx context.Context, e domain.Email) (domain.Email, error)

	// MarkSent records a successful attempt.
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error

	// MarkFailed records a failed attempt. The email stays pending until
	// max_attempts is reached, then becomes failed.
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error

	// ListRecent returns the newest emails first.
	ListRecent(ctx context.Context, limit int) ([]domain.Email, error)
}

type pgEmailRepo struct {
	db db
}

// NewEmailRepo constructs an EmailRepo backed by the provided db connection.
func NewEmailRepo(db db) EmailRepo {
	return &pgEmailRepo{db: db}
}

const emailColumns = `
	email_queue_id, to_email, to_name, subject, body, email_type, status, attempts,
	max_attempts, scheduled_send_time, sent_at, error_message, reservation_id, created_at`

func (r *pgEmailRepo) Create(ctx context.Context, e domain.Email) (domain.Email, error) {
	const q = `
		INSERT INTO email_queues
			(to_email, to_name, subject, body, email_type, status, max_attempts,
			 scheduled_send_time, reservation_id)
		VALUES
			(@to_email, @to_name, @subject, @body, @email_type, 'pending', @max_attempts,
			 @scheduled_send_time, @reservation_id)
		RETURNING ` + emailColumns

	maxAttempts := e.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	scheduled := e.ScheduledAt
	if scheduled.IsZero() {
		scheduled = time.Now().UTC()
	}

	args := pgx.NamedArgs{
		"to_email":            e.ToEmail,
		"to_name":             e.ToName,
		"subject":             e.Subject,
		"body":                e.Body,
		"email_type":          e.Type,
		"max_attempts":        maxAttempts,
		"scheduled_send_time": scheduled,
		"reservation_id":      e.ReservationID,
	}

	got, err := scanEmail(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Email{}, fmt.Errorf("repo.EmailRepo.Create: %w", mapPgError(err))
	}
	return got, nil
}

func (r *pgEmailRepo) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	const q = `
		UPDATE email_queues
		SET status = 'sent', attempts = attempts + 1, sent_at = @sent_at, error_message = ''
		WHERE email_queue_id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "sent_at": at})
	if err != nil {
		return fmt.Errorf("repo.EmailRepo.MarkSent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.EmailRepo.MarkSent: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgEmailRepo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	const q = `
		UPDATE email_queues
		SET attempts      = attempts + 1,
		    status        = CASE WHEN attempts + 1 >= max_attempts THEN 'failed' ELSE 'pending' END,
		    error_message = left(@reason, 1000)
		WHERE email_queue_id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "reason": reason})
	if err != nil {
		return fmt.Errorf("repo.EmailRepo.MarkFailed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.EmailRepo.MarkFailed: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgEmailRepo) ListRecent(ctx context.Context, limit int) ([]domain.Email, error) {
	const q = `SELECT ` + emailColumns + ` FROM email_queues ORDER BY created_at DESC LIMIT @limit`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("repo.EmailRepo.ListRecent: %w", err)
	}
	defer rows.Close()

	var out []domain.Email
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.EmailRepo.ListRecent: scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.EmailRepo.ListRecent: rows: %w", err)
	}
	return out, nil
}

func scanEmail(s scanner) (domain.Email, error) {
	var (
		e             domain.Email
		id            pgtype.UUID
		status        string
		sentAt        pgtype.Timestamptz
		reservationID pgtype.UUID
	)
	err := s.Scan(
		&id, &e.ToEmail, &e.ToName, &e.Subject, &e.Body, &e.Type, &status, &e.Attempts,
		&e.MaxAttempts, &e.ScheduledAt, &sentAt, &e.ErrorMessage, &reservationID, &e.CreatedAt,
	)
	if err != nil {
		return domain.Email{}, err
	}
	e.ID = uuid.UUID(id.Bytes)
	e.Status = domain.EmailStatus(status)
	if sentAt.Valid {
		ts := sentAt.Time
		e.SentAt = &ts
	}
	if reservationID.Valid {
		rid := uuid.UUID(reservationID.Bytes)
		e.ReservationID = &rid
	}
	return e, nil
}
