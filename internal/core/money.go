// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer paise ("cents") of the base currency so that
// totals never accumulate floating-point drift.
package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	decimalPattern = regexp.MustCompile(`^\d*(\.\d*)?$`)
	// amounts at or beyond this many rupees would overflow int64 paise
	maxRupees = decimal.New(1<<63-1, 0).Div(decimal.New(100, 0)).Floor()
)

// ParseDecimalToCents converts a decimal string to cents, rounding half-up
// on the third decimal place. Dot and comma separators are both accepted
// ("12,34" is 1234). Signs, exponents, zero and negative values are rejected
// with ErrInvalidAmount.
//
//	ParseDecimalToCents("12.345") -> 1235, nil
//	ParseDecimalToCents("12.344") -> 1234, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || s == "." || !decimalPattern.MatchString(s) {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.GreaterThanOrEqual(maxRupees) {
		return 0, ErrInvalidAmount
	}
	cents := d.Round(2).Shift(2).IntPart()
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// MustMoney builds Money from a whole number of rupees. Intended for tests and constants.
func MustMoney(rupees int64) Money {
	return Money{Cents: rupees * 100}
}

// Rupees returns the value as a float64 for display and prompt building.
// Use Cents for arithmetic.
func (m Money) Rupees() float64 {
	return float64(m.Cents) / 100.0
}

// String renders the amount with exactly two decimals, e.g. "5000.00".
func (m Money) String() string {
	c := m.Cents
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }
