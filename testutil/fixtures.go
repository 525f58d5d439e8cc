package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Execer is satisfied by pgx.Tx, *pgx.Conn and *pgxpool.Pool.
type Execer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SeedRoomType inserts a room type with a unique name and returns its ID.
func SeedRoomType(t *testing.T, db Execer, price string, capacity int) uuid.UUID {
	t.Helper()
	const q = `
		INSERT INTO room_types (name, price_per_night, capacity)
		VALUES ($1, $2::numeric, $3)
		RETURNING room_type_id`

	var id pgtype.UUID
	name := "type-" + uuid.NewString()[:8]
	if err := db.QueryRow(context.Background(), q, name, price, capacity).Scan(&id); err != nil {
		t.Fatalf("testutil.SeedRoomType: %v", err)
	}
	return uuid.UUID(id.Bytes)
}

// SeedRoom inserts an active room of the given type and returns its ID.
func SeedRoom(t *testing.T, db Execer, roomTypeID uuid.UUID) uuid.UUID {
	t.Helper()
	const q = `
		INSERT INTO rooms (room_number, room_type_id)
		VALUES ($1, $2)
		RETURNING room_id`

	var id pgtype.UUID
	number := fmt.Sprintf("R-%s", uuid.NewString()[:8])
	if err := db.QueryRow(context.Background(), q, number, roomTypeID).Scan(&id); err != nil {
		t.Fatalf("testutil.SeedRoom: %v", err)
	}
	return uuid.UUID(id.Bytes)
}

// SeedUser inserts a user with a throwaway password hash and returns the email.
func SeedUser(t *testing.T, db Execer) string {
	t.Helper()
	const q = `
		INSERT INTO users (email, full_name, password_hash)
		VALUES ($1, 'Test Guest', 'x')
		RETURNING email`

	var email string
	addr := "guest-" + uuid.NewString()[:8] + "@example.com"
	if err := db.QueryRow(context.Background(), q, addr).Scan(&email); err != nil {
		t.Fatalf("testutil.SeedUser: %v", err)
	}
	return email
}
