package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/room-reservation/internal/domain"
)

func TestTotalPrice_ThreeNights(t *testing.T) {
	got, err := domain.TotalPrice(date(t, "2024-03-01"), date(t, "2024-03-04"), decimal.NewFromInt(100))

	require.NoError(t, err)
	assert.Equal(t, "300.00", got.StringFixed(2))
}

func TestTotalPrice_RoundsHalfUp(t *testing.T) {
	rate := decimal.RequireFromString("33.335")

	got, err := domain.TotalPrice(date(t, "2024-03-01"), date(t, "2024-03-02"), rate)

	require.NoError(t, err)
	assert.Equal(t, "33.34", got.StringFixed(2))
}

func TestTotalPrice_ZeroRateIsFree(t *testing.T) {
	got, err := domain.TotalPrice(date(t, "2024-03-01"), date(t, "2024-03-03"), decimal.Zero)

	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestTotalPrice_NegativeRate(t *testing.T) {
	_, err := domain.TotalPrice(date(t, "2024-03-01"), date(t, "2024-03-03"), decimal.NewFromInt(-1))

	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestTotalPrice_InvalidRange(t *testing.T) {
	_, err := domain.TotalPrice(date(t, "2024-03-03"), date(t, "2024-03-03"), decimal.NewFromInt(80))

	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(30000), domain.MinorUnits(decimal.NewFromInt(300)))
	assert.Equal(t, int64(1999), domain.MinorUnits(decimal.RequireFromString("19.99")))
	assert.Equal(t, int64(1000), domain.MinorUnits(decimal.RequireFromString("9.995")))
}
