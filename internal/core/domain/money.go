package domain

import (
	"errors"
	"fmt"
	"strings"
)

// MaxMajorUnits mirrors the upstream transaction amount field limit.
// Any Money beyond ±(MaxMajorUnits major units + 99 minor units) is out of range.
const MaxMajorUnits int64 = 999_999_999

const minorPerMajor int64 = 100

var maxMinorUnits = MaxMajorUnits*minorPerMajor + (minorPerMajor - 1)

var (
	ErrAmountOutOfRange = errors.New("amount out of range")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrBadAmountFormat  = errors.New("malformed decimal amount")
)

// Money is an exact fixed-point monetary value: an integer count of minor
// currency units (paise, cents) plus a currency code. It is never represented
// as a float; all arithmetic is integer arithmetic and comparisons are exact.
type Money struct {
	Units    int64  `json:"units"`
	Currency string `json:"currency"`
}

// NewMoney creates a Money value, rejecting out-of-range unit counts.
func NewMoney(units int64, currency string) (Money, error) {
	m := Money{Units: units, Currency: currency}
	if !m.inRange() {
		return Money{}, ErrAmountOutOfRange
	}
	return m, nil
}

// Zero returns the zero value in the given currency.
func Zero(currency string) Money {
	return Money{Units: 0, Currency: currency}
}

func (m Money) inRange() bool {
	return m.Units >= -maxMinorUnits && m.Units <= maxMinorUnits
}

// Add returns m + o. It fails on currency mismatch or range overflow.
func (m Money) Add(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, ErrCurrencyMismatch
	}
	r := Money{Units: m.Units + o.Units, Currency: m.Currency}
	if !r.inRange() {
		return Money{}, ErrAmountOutOfRange
	}
	return r, nil
}

// Sub returns m - o. It fails on currency mismatch or range overflow.
func (m Money) Sub(o Money) (Money, error) {
	return m.Add(o.Negate())
}

// Negate returns -m. Negation of an in-range value is always in range.
func (m Money) Negate() Money {
	return Money{Units: -m.Units, Currency: m.Currency}
}

// IsZero reports whether the value is exactly zero.
func (m Money) IsZero() bool { return m.Units == 0 }

// IsNegative reports whether the value is strictly below zero.
func (m Money) IsNegative() bool { return m.Units < 0 }

// IsPositive reports whether the value is strictly above zero.
func (m Money) IsPositive() bool { return m.Units > 0 }

// Compare returns -1, 0, or +1 as m is less than, equal to, or greater
// than o. It fails on currency mismatch.
func (m Money) Compare(o Money) (int, error) {
	if m.Currency != o.Currency {
		return 0, ErrCurrencyMismatch
	}
	switch {
	case m.Units < o.Units:
		return -1, nil
	case m.Units > o.Units:
		return 1, nil
	default:
		return 0, nil
	}
}

// ParseMoney converts a decimal string ("200", "12.5", "-0.07") into minor
// units. More than two fractional digits are rejected: the caller converts at
// the boundary and the engine never sees sub-minor-unit precision.
func ParseMoney(s, currency string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrBadAmountFormat
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return Money{}, ErrBadAmountFormat
	}
	if len(frac) > 2 {
		return Money{}, ErrBadAmountFormat
	}
	if whole == "" {
		whole = "0"
	}
	// 10 digits is already past MaxMajorUnits, bail before overflow risk
	if len(whole) > 12 {
		return Money{}, ErrAmountOutOfRange
	}

	major, err := parseDigits(whole)
	if err != nil {
		return Money{}, err
	}
	for len(frac) < 2 {
		frac += "0"
	}
	minor, err := parseDigits(frac)
	if err != nil {
		return Money{}, err
	}

	units := major*minorPerMajor + minor
	if neg {
		units = -units
	}
	return NewMoney(units, currency)
}

func parseDigits(s string) (int64, error) {
	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, ErrBadAmountFormat
		}
		n = n*10 + int64(c-'0')
	}
	return n, nil
}

// String renders the amount as a plain decimal with two fractional digits,
// the format used in validation messages and API responses.
func (m Money) String() string {
	units := m.Units
	sign := ""
	if units < 0 {
		sign = "-"
		units = -units
	}
	return fmt.Sprintf("%s%d.%02d", sign, units/minorPerMajor, units%minorPerMajor)
}
