package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/room-reservation/internal/domain"
)

// RoomRepo defines the persistence operations for Rooms and RoomTypes.
type RoomRepo interface {
	// List returns rooms with their type, ordered by room number.
	// When activeOnly is true, deactivated rooms are left out.
	List(ctx context.Context, activeOnly bool) ([]domain.Room, error)

	// GetByID retrieves a room regardless of its active flag.
	// Returns domain.ErrNotFound if no room with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Room, error)

	// GetActive retrieves a bookable room.
	// Returns domain.ErrNotFound if the room does not exist or is inactive.
	GetActive(ctx context.Context, id uuid.UUID) (domain.Room, error)

	// Create inserts a room. Returns domain.ErrConflict on a duplicate room
	// number and domain.ErrNotFound if the room type does not exist.
	Create(ctx context.Context, room domain.Room) (domain.Room, error)

	// Update overwrites number, type, description and active flag.
	Update(ctx context.Context, room domain.Room) (domain.Room, error)

	// Deactivate marks a room inactive. Existing reservations are untouched.
	Deactivate(ctx context.Context, id uuid.UUID) error

	// ListTypes returns all room types ordered by nightly price.
	ListTypes(ctx context.Context) ([]domain.RoomType, error)
}

// pgRoomRepo is the Postgres implementation of RoomRepo.
type pgRoomRepo struct {
	db db
}

// NewRoomRepo constructs a RoomRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewRoomRepo(db db) RoomRepo {
	return &pgRoomRepo{db: db}
}

const roomColumns = `
	r.room_id, r.room_number, r.is_active, r.description, r.created_at, r.updated_at,
	t.room_type_id, t.name, t.description, t.price_per_night::text, t.capacity, t.amenities`

const roomFrom = `
	FROM rooms r
	JOIN room_types t ON t.room_type_id = r.room_type_id`

func (r *pgRoomRepo) List(ctx context.Context, activeOnly bool) ([]domain.Room, error) {
	q := `SELECT ` + roomColumns + roomFrom + `
		WHERE (NOT @active_only OR r.is_active)
		ORDER BY r.room_number`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"active_only": activeOnly})
	if err != nil {
		return nil, fmt.Errorf("repo.RoomRepo.List: %w", err)
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.RoomRepo.List: scan: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.RoomRepo.List: rows: %w", err)
	}
	return rooms, nil
}

func (r *pgRoomRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Room, error) {
	q := `SELECT ` + roomColumns + roomFrom + ` WHERE r.room_id = @id`

	room, err := scanRoom(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Room{}, fmt.Errorf("repo.RoomRepo.GetByID: %w", mapPgError(err))
	}
	return room, nil
}

func (r *pgRoomRepo) GetActive(ctx context.Context, id uuid.UUID) (domain.Room, error) {
	q := `SELECT ` + roomColumns + roomFrom + ` WHERE r.room_id = @id AND r.is_active`

	room, err := scanRoom(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Room{}, fmt.Errorf("repo.RoomRepo.GetActive: %w", mapPgError(err))
	}
	return room, nil
}

func (r *pgRoomRepo) Create(ctx context.Context, room domain.Room) (domain.Room, error) {
	const q = `
		INSERT INTO rooms (room_number, room_type_id, is_active, description)
		VALUES (@room_number, @room_type_id, @is_active, @description)
		RETURNING room_id`

	args := pgx.NamedArgs{
		"room_number":  room.RoomNumber,
		"room_type_id": room.Type.ID,
		"is_active":    room.IsActive,
		"description":  room.Description,
	}

	var id pgtype.UUID
	if err := r.db.QueryRow(ctx, q, args).Scan(&id); err != nil {
		return domain.Room{}, fmt.Errorf("repo.RoomRepo.Create: %w", mapPgError(err))
	}
	return r.GetByID(ctx, uuid.UUID(id.Bytes))
}

func (r *pgRoomRepo) Update(ctx context.Context, room domain.Room) (domain.Room, error) {
	const q = `
		UPDATE rooms
		SET room_number  = @room_number,
		    room_type_id = @room_type_id,
		    is_active    = @is_active,
		    description  = @description,
		    updated_at   = now()
		WHERE room_id = @id`

	args := pgx.NamedArgs{
		"id":           room.ID,
		"room_number":  room.RoomNumber,
		"room_type_id": room.Type.ID,
		"is_active":    room.IsActive,
		"description":  room.Description,
	}

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return domain.Room{}, fmt.Errorf("repo.RoomRepo.Update: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.Room{}, fmt.Errorf("repo.RoomRepo.Update: %w", domain.ErrNotFound)
	}
	return r.GetByID(ctx, room.ID)
}

func (r *pgRoomRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE rooms SET is_active = false, updated_at = now() WHERE room_id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.RoomRepo.Deactivate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.RoomRepo.Deactivate: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgRoomRepo) ListTypes(ctx context.Context) ([]domain.RoomType, error) {
	const q = `
		SELECT room_type_id, name, description, price_per_night::text, capacity, amenities
		FROM room_types
		ORDER BY price_per_night, name`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.RoomRepo.ListTypes: %w", err)
	}
	defer rows.Close()

	var types []domain.RoomType
	for rows.Next() {
		var (
			rt    domain.RoomType
			id    pgtype.UUID
			price string
		)
		if err := rows.Scan(&id, &rt.Name, &rt.Description, &price, &rt.Capacity, &rt.Amenities); err != nil {
			return nil, fmt.Errorf("repo.RoomRepo.ListTypes: scan: %w", err)
		}
		rt.ID = uuid.UUID(id.Bytes)
		if rt.PricePerNight, err = parseMoney(price); err != nil {
			return nil, fmt.Errorf("repo.RoomRepo.ListTypes: %w", err)
		}
		types = append(types, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.RoomRepo.ListTypes: rows: %w", err)
	}
	return types, nil
}

// scanRoom maps a row selected with roomColumns into a domain.Room.
func scanRoom(s scanner) (domain.Room, error) {
	var (
		room   domain.Room
		id     pgtype.UUID
		typeID pgtype.UUID
		price  string
	)

	err := s.Scan(
		&id, &room.RoomNumber, &room.IsActive, &room.Description, &room.CreatedAt, &room.UpdatedAt,
		&typeID, &room.Type.Name, &room.Type.Description, &price, &room.Type.Capacity, &room.Type.Amenities,
	)
	if err != nil {
		return domain.Room{}, err
	}

	room.ID = uuid.UUID(id.Bytes)
	room.Type.ID = uuid.UUID(typeID.Bytes)
	if room.Type.PricePerNight, err = parseMoney(price); err != nil {
		return domain.Room{}, err
	}
	return room, nil
}
