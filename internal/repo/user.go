package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/room-reservation/internal/domain"
)

// UserRepo defines the persistence operations for Users.
// Users are keyed by email; it never changes once the account exists.
type UserRepo interface {
	// Create inserts a user. Returns domain.ErrConflict if the email is taken.
	Create(ctx context.Context, u domain.User) (domain.User, error)

	// GetByEmail returns domain.ErrNotFound if no user has that email.
	GetByEmail(ctx context.Context, email string) (domain.User, error)

	// UpdateProfile overwrites the full name and phone.
	UpdateProfile(ctx context.Context, u domain.User) (domain.User, error)

	// ListPaged returns one page of users ordered by creation time, plus the total count.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.User, int64, error)
}

// pgUserRepo is the Postgres implementation of UserRepo.
type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

const userColumns = `email, full_name, phone, role, password_hash, created_at`

func (r *pgUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	const q = `
		INSERT INTO users (email, full_name, phone, role, password_hash)
		VALUES (@email, @full_name, @phone, @role, @password_hash)
		RETURNING ` + userColumns

	args := pgx.NamedArgs{
		"email":         u.Email,
		"full_name":     u.FullName,
		"phone":         u.Phone,
		"role":          string(u.Role),
		"password_hash": u.PasswordHash,
	}

	got, err := scanUser(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", mapPgError(err))
	}
	return got, nil
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = @email`

	got, err := scanUser(r.db.QueryRow(ctx, q, pgx.NamedArgs{"email": email}))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByEmail: %w", mapPgError(err))
	}
	return got, nil
}

func (r *pgUserRepo) UpdateProfile(ctx context.Context, u domain.User) (domain.User, error) {
	const q = `
		UPDATE users SET full_name = @full_name, phone = @phone
		WHERE email = @email
		RETURNING ` + userColumns

	args := pgx.NamedArgs{"email": u.Email, "full_name": u.FullName, "phone": u.Phone}
	got, err := scanUser(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.UpdateProfile: %w", mapPgError(err))
	}
	return got, nil
}

func (r *pgUserRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.User, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.UserRepo.ListPaged: count: %w", err)
	}

	const q = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT @limit OFFSET @offset`
	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.UserRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.UserRepo.ListPaged: scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.UserRepo.ListPaged: rows: %w", err)
	}
	return users, total, nil
}

func scanUser(s scanner) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := s.Scan(&u.Email, &u.FullName, &u.Phone, &role, &u.PasswordHash, &u.CreatedAt); err != nil {
		return domain.User{}, err
	}
	u.Role = domain.Role(role)
	return u, nil
}
