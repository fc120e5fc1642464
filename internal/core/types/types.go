// Package types provides common numeric aliases and helpers.
//
// Quantities and monetary values are decimal.Decimal end to end. Stock deltas
// come in with up to two fractional digits (loose goods sold by weight), and
// float arithmetic on money is not acceptable, so everything stays decimal
// from the wire to the database (NUMERIC columns) and back.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
type Money = decimal.Decimal

// Quantity represents a stock quantity (may be fractional for loose goods).
type Quantity = decimal.Decimal

// Zero returns the zero decimal value.
func Zero() decimal.Decimal {
	return decimal.Zero
}

// NewFromString parses a decimal from its string form.
// This is the preferred constructor for values arriving over the wire.
func NewFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// MustFromString parses a decimal, panicking on error.
// Use only for constants and tests.
func MustFromString(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewFromInt builds a decimal from an integer count.
func NewFromInt(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// ClampNonNegative returns d, or zero when d is negative.
//
// Ledger sums can transiently go negative for products whose historical
// deductions predate batch tracking; callers displaying stock totals must
// never surface a negative figure.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
