package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/room-reservation/internal/domain"
)

func confirmedReservation(t *testing.T, checkIn, checkOut string) domain.Reservation {
	t.Helper()
	stay, err := domain.ParseStay(checkIn, checkOut)
	require.NoError(t, err)
	return domain.Reservation{Status: domain.StatusConfirmed, Stay: stay, Guests: 2}
}

func TestCancel_MoreThan24hBefore_Succeeds(t *testing.T) {
	r := confirmedReservation(t, "2024-06-10", "2024-06-12")
	now := r.Stay.CheckIn.Add(-(24*time.Hour + time.Minute))

	require.True(t, domain.CanCancel(r, now))
	got, err := domain.Cancel(r, now, "sick")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
	assert.Equal(t, "sick", got.CancellationReason)
	require.NotNil(t, got.CancelledAt)
	assert.True(t, got.CancelledAt.Equal(now))
	assert.Equal(t, domain.StatusConfirmed, r.Status, "input must not be mutated")
}

func TestCancel_InsideWindow_Fails(t *testing.T) {
	r := confirmedReservation(t, "2024-06-10", "2024-06-12")
	now := r.Stay.CheckIn.Add(-(23*time.Hour + 59*time.Minute))

	assert.False(t, domain.CanCancel(r, now))
	_, err := domain.Cancel(r, now, "sick")

	assert.ErrorIs(t, err, domain.ErrCancellationWindow)
}

func TestCancel_ExactlyAtWindow_Fails(t *testing.T) {
	r := confirmedReservation(t, "2024-06-10", "2024-06-12")

	_, err := domain.Cancel(r, r.Stay.CheckIn.Add(-24*time.Hour), "")

	assert.ErrorIs(t, err, domain.ErrCancellationWindow)
}

func TestCancel_PendingReservation(t *testing.T) {
	r := confirmedReservation(t, "2024-06-10", "2024-06-12")
	r.Status = domain.StatusPending

	got, err := domain.Cancel(r, r.Stay.CheckIn.AddDate(0, 0, -7), "")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)
}

func TestCancel_AlreadyCancelled_AlwaysFails(t *testing.T) {
	r := confirmedReservation(t, "2024-06-10", "2024-06-12")
	now := r.Stay.CheckIn.AddDate(0, 0, -7)
	cancelled, err := domain.Cancel(r, now, "first")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := domain.Cancel(cancelled, now, "again")
		assert.ErrorIs(t, err, domain.ErrAlreadyTerminal)
	}
}

func TestCancel_Completed_Fails(t *testing.T) {
	r := confirmedReservation(t, "2024-06-10", "2024-06-12")
	r.Status = domain.StatusCompleted

	_, err := domain.Cancel(r, r.Stay.CheckIn.AddDate(0, 0, -7), "")

	assert.ErrorIs(t, err, domain.ErrAlreadyTerminal)
	assert.False(t, domain.CanCancel(r, r.Stay.CheckIn.AddDate(0, 0, -7)))
}

func TestCaller_Owns(t *testing.T) {
	r := domain.Reservation{Email: "guest@example.com"}

	assert.True(t, domain.Caller{Email: "guest@example.com"}.Owns(r))
	assert.False(t, domain.Caller{Email: "other@example.com"}.Owns(r))
	assert.False(t, domain.Caller{}.Owns(domain.Reservation{}))
}
