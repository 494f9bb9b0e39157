package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol is appended by Money.Format.
const CurrencySymbol = "MT"

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal string to Money.
//
// Both dot (12.34) and comma (12,34) separators are accepted and the third
// decimal place is rounded half-up. Only strictly positive values are valid.
//
//	ParseAmount("12,34")  -> 1234 cents
//	ParseAmount("12.345") -> 1235 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Mul(hundred).Round(0)
	if !cents.IsPositive() || !cents.IsInteger() || cents.GreaterThan(decimal.NewFromInt(maxCents)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

const maxCents = (1<<63 - 1) / 100

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Units returns the amount in currency units for display and tolerance checks.
// Arithmetic stays in cents.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// String renders the amount with two decimals, e.g. "-12.30".
func (m Money) String() string {
	return decimal.New(m.Cents, -2).StringFixed(2)
}

// Format renders the amount with the currency symbol, e.g. "12.30 MT".
func (m Money) Format() string {
	return m.String() + " " + CurrencySymbol
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// PercentOf returns pct percent of m rounded to the cent (half away from zero).
func PercentOf(m Money, pct decimal.Decimal) (Money, error) {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return Money{}, ErrInvalidPercent
	}
	part := decimal.NewFromInt(m.Cents).Mul(pct).Div(hundred).Round(0)
	return Money{Cents: part.IntPart()}, nil
}
