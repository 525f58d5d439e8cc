package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TotalPrice returns nights(checkIn, checkOut) * nightlyRate rounded half-up
// to two decimal places.
// Returns ErrInvalidRange for an empty or inverted range and ErrInvalidPrice
// for a negative rate.
func TotalPrice(checkIn, checkOut time.Time, nightlyRate decimal.Decimal) (decimal.Decimal, error) {
	if nightlyRate.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: nightly rate %s is negative", ErrInvalidPrice, nightlyRate)
	}
	nights, err := NightsBetween(checkIn, checkOut)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return nightlyRate.Mul(decimal.NewFromInt(int64(nights))).Round(2), nil
}

// MinorUnits converts an amount into integer cents, rounding half-up.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
