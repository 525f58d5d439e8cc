package repo_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/room-reservation/internal/domain"
	"github.com/pkordes/room-reservation/internal/repo"
	"github.com/pkordes/room-reservation/testutil"
)

func TestRoomRepo_CreateAndGet(t *testing.T) {
	tx := testutil.NewTx(t)
	r := repo.NewRoomRepo(tx)
	ctx := context.Background()
	typeID := testutil.SeedRoomType(t, tx, "99.50", 3)

	created, err := r.Create(ctx, domain.Room{
		RoomNumber: "T-" + uuid.NewString()[:6],
		Type:       domain.RoomType{ID: typeID},
		IsActive:   true,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	got, err := r.GetActive(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.RoomNumber, got.RoomNumber)
	assert.Equal(t, "99.50", got.Type.PricePerNight.StringFixed(2))
	assert.Equal(t, 3, got.Type.Capacity)
	assert.NotNil(t, got.Type.Amenities)
}

func TestRoomRepo_Create_DuplicateNumber(t *testing.T) {
	tx := testutil.NewTx(t)
	r := repo.NewRoomRepo(tx)
	ctx := context.Background()
	typeID := testutil.SeedRoomType(t, tx, "80.00", 2)
	room := domain.Room{RoomNumber: "D-" + uuid.NewString()[:6], Type: domain.RoomType{ID: typeID}, IsActive: true}

	_, err := r.Create(ctx, room)
	require.NoError(t, err)
	_, err = r.Create(ctx, room)

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRoomRepo_Create_UnknownType(t *testing.T) {
	tx := testutil.NewTx(t)
	r := repo.NewRoomRepo(tx)

	_, err := r.Create(context.Background(), domain.Room{RoomNumber: "X-1", Type: domain.RoomType{ID: uuid.New()}})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoomRepo_Deactivate_HidesFromActive(t *testing.T) {
	tx := testutil.NewTx(t)
	r := repo.NewRoomRepo(tx)
	ctx := context.Background()
	roomID := testutil.SeedRoom(t, tx, testutil.SeedRoomType(t, tx, "80.00", 2))

	require.NoError(t, r.Deactivate(ctx, roomID))

	_, err := r.GetActive(ctx, roomID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := r.GetByID(ctx, roomID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	active, err := r.List(ctx, true)
	require.NoError(t, err)
	for _, room := range active {
		assert.NotEqual(t, roomID, room.ID)
	}
}

func TestRoomRepo_Deactivate_NotFound(t *testing.T) {
	tx := testutil.NewTx(t)

	err := repo.NewRoomRepo(tx).Deactivate(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoomRepo_Update(t *testing.T) {
	tx := testutil.NewTx(t)
	r := repo.NewRoomRepo(tx)
	ctx := context.Background()
	typeID := testutil.SeedRoomType(t, tx, "80.00", 2)
	roomID := testutil.SeedRoom(t, tx, typeID)
	newType := testutil.SeedRoomType(t, tx, "150.00", 4)

	updated, err := r.Update(ctx, domain.Room{
		ID: roomID, RoomNumber: "U-" + uuid.NewString()[:6],
		Type: domain.RoomType{ID: newType}, IsActive: true, Description: "sea view",
	})

	require.NoError(t, err)
	assert.Equal(t, newType, updated.Type.ID)
	assert.Equal(t, 4, updated.Type.Capacity)
	assert.Equal(t, "sea view", updated.Description)
}

func TestRoomRepo_ListTypes(t *testing.T) {
	tx := testutil.NewTx(t)
	testutil.SeedRoomType(t, tx, "10.00", 1)
	testutil.SeedRoomType(t, tx, "20.00", 1)

	types, err := repo.NewRoomRepo(tx).ListTypes(context.Background())

	require.NoError(t, err)
	require.GreaterOrEqual(t, len(types), 2)
	for i := 1; i < len(types); i++ {
		assert.True(t, types[i-1].PricePerNight.LessThanOrEqual(types[i].PricePerNight), "ordered by price")
	}
}
