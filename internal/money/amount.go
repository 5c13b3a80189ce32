// Package money represents currency amounts as fixed-point micro-units so
// budget arithmetic is exact.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Scale is the number of micro-units in one currency unit.
const Scale = 1_000_000

// Amount is a non-fractional count of micro-units (1e-6 of the currency).
type Amount int64

// Zero is the empty amount.
const Zero Amount = 0

// FromMicros wraps a raw micro-unit count.
func FromMicros(micros int64) Amount { return Amount(micros) }

// FromFloat rounds a decimal currency value to the nearest micro-unit.
func FromFloat(value float64) Amount {
	return Amount(math.Round(value * Scale))
}

// Micros returns the raw micro-unit count.
func (a Amount) Micros() int64 { return int64(a) }

// Float64 converts the amount to a float for display and metrics.
func (a Amount) Float64() float64 { return float64(a) / Scale }

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool { return a < 0 }

// String renders the amount with at least two fraction digits, trimming
// trailing zeros beyond that ("0.04", "0.125", "12.00").
func (a Amount) String() string {
	neg := a < 0
	v := int64(a)
	if neg {
		v = -v
	}
	whole := v / Scale
	frac := fmt.Sprintf("%06d", v%Scale)
	frac = strings.TrimRight(frac, "0")
	for len(frac) < 2 {
		frac += "0"
	}
	out := strconv.FormatInt(whole, 10) + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// Dollars renders the amount prefixed with a dollar sign.
func (a Amount) Dollars() string {
	return "$" + a.String()
}

var errInvalidAmount = errors.New("invalid amount")

// Parse reads a decimal string such as "0.04", "$1.50" or "12". More than six
// fraction digits are rejected rather than rounded.
func Parse(value string) (Amount, error) {
	s := strings.TrimSpace(value)
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return 0, fmt.Errorf("%w: empty", errInvalidAmount)
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	wholePart, fracPart, hasDot := strings.Cut(s, ".")
	if wholePart == "" && (!hasDot || fracPart == "") {
		return 0, fmt.Errorf("%w: %q", errInvalidAmount, value)
	}
	if len(fracPart) > 6 {
		return 0, fmt.Errorf("%w: %q has more than 6 decimal places", errInvalidAmount, value)
	}
	var whole int64
	if wholePart != "" {
		w, err := strconv.ParseInt(wholePart, 10, 64)
		if err != nil || w < 0 {
			return 0, fmt.Errorf("%w: %q", errInvalidAmount, value)
		}
		if w > math.MaxInt64/Scale {
			return 0, fmt.Errorf("%w: %q out of range", errInvalidAmount, value)
		}
		whole = w
	}
	var frac int64
	if fracPart != "" {
		padded := fracPart + strings.Repeat("0", 6-len(fracPart))
		f, err := strconv.ParseInt(padded, 10, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("%w: %q", errInvalidAmount, value)
		}
		frac = f
	}
	total := whole*Scale + frac
	if neg {
		total = -total
	}
	return Amount(total), nil
}

// MarshalJSON encodes the amount as a bare JSON number with exact decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("%w: %q", errInvalidAmount, s)
		}
		*a = FromFloat(f)
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		// Legacy logs were written with float formatting and may carry
		// binary noise past six decimals ("0.12000000000000001").
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return err
		}
		parsed = FromFloat(f)
	}
	*a = parsed
	return nil
}
