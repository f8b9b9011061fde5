// Package money implements fixed-point monetary amounts in minor units.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// minorPerUnit is the number of minor units in one whole currency unit.
const minorPerUnit = 100

// halfUnit is half of one whole currency unit, in minor units.
const halfUnit = minorPerUnit / 2

// ErrBadAmount reports an unparseable or negative amount string.
var ErrBadAmount = errors.New("invalid amount")

// Amount is a monetary value in minor units (two decimal places).
type Amount int64

// FromUnits returns the Amount for a whole number of currency units.
func FromUnits(u int64) Amount { return Amount(u * minorPerUnit) }

// FromMinor returns the Amount for a count of minor units.
func FromMinor(m int64) Amount { return Amount(m) }

// Parse converts a non-negative decimal string such as "12.5" or "0.50"
// into an Amount. At most two fractional digits are allowed.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("%w: %q", ErrBadAmount, s)
	}
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	u, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadAmount, s)
	}
	minor := u * minorPerUnit
	if frac != "" {
		if len(frac) > 2 {
			return 0, fmt.Errorf("%w: %q has more than two decimal places", ErrBadAmount, s)
		}
		f, err := strconv.ParseUint(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadAmount, s)
		}
		if len(frac) == 1 {
			f *= 10
		}
		minor += int64(f)
	}
	return Amount(minor), nil
}

// MustParse is Parse that panics on error; for constants in wiring code.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Units returns the whole-unit part of the amount.
func (a Amount) Units() int64 { return int64(a) / minorPerUnit }

// Minor returns the amount in minor units.
func (a Amount) Minor() int64 { return int64(a) }

// Times returns the amount multiplied by a non-negative count.
func (a Amount) Times(n uint32) Amount { return a * Amount(n) }

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool { return a < 0 }

// Physical converts a raw accumulated value into the amount physically
// charged or credited. The rule is asymmetric on purpose and is part of
// the machine's money contract: a fractional part strictly below one
// half rounds up to the half unit, anything at or above one half rounds
// up to the next whole unit.
func (a Amount) Physical() Amount {
	if a <= 0 {
		return a
	}
	frac := int64(a) % minorPerUnit
	if frac == 0 {
		return a
	}
	base := int64(a) - frac
	if frac < halfUnit {
		return Amount(base + halfUnit)
	}
	return Amount(base + minorPerUnit)
}

// String renders the amount as a decimal with trailing zeros trimmed,
// e.g. "12", "12.5", "12.05".
func (a Amount) String() string {
	m := int64(a)
	neg := m < 0
	if neg {
		m = -m
	}
	units := m / minorPerUnit
	frac := m % minorPerUnit
	var s string
	switch {
	case frac == 0:
		s = strconv.FormatInt(units, 10)
	case frac%10 == 0:
		s = fmt.Sprintf("%d.%d", units, frac/10)
	default:
		s = fmt.Sprintf("%d.%02d", units, frac)
	}
	if neg {
		return "-" + s
	}
	return s
}

// MarshalText renders the amount for JSON payloads and map keys.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses the amount from JSON payloads and map keys.
func (a *Amount) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
