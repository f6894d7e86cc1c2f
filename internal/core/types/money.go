// Package types provides common value types shared by the domain packages.
package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value in the single currency unit of the system.
// Values are never rounded internally; rounding is a presentation concern.
type Money = decimal.Decimal

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromInt creates a Money value from an integer amount.
func NewMoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseNonNegative parses user input leniently: blank or unparsable input
// becomes zero and negative values are clamped to zero.
// A decimal comma is accepted as separator.
func ParseNonNegative(raw string) Money {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return ClampNonNegative(d)
}

// ClampNonNegative returns m, or zero when m is negative.
func ClampNonNegative(m Money) Money {
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}

// Sum adds all values.
func Sum(values ...Money) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
