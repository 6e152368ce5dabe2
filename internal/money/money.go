// Package money provides the fixed-point decimal types used for every price,
// quantity, and cash amount in the simulator. Binary floating point is never
// used for money: comparisons at bar boundaries (bar.low <= limit) must be
// exact, and shopspring/decimal gives us arbitrary-precision arithmetic with
// well-defined rounding.
package money

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// PricePrecision is the maximum number of fractional digits a wire price may
// carry once quantized for display or persistence.
const PricePrecision = 4

// QtyPrecision is the maximum number of fractional digits a quantity may
// carry (fractional shares).
const QtyPrecision = 9

// Decimal is an alias so callers of this package never need to import
// shopspring/decimal directly.
type Decimal = decimal.Decimal

// Zero is the additive identity.
var Zero = decimal.Zero

// New constructs a Decimal from a string, panicking on malformed literals.
// Intended for constants and tests, not for parsing untrusted input — use
// Parse for that.
func New(s string) Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("money: invalid literal %q: %v", s, err))
	}
	return d
}

// Parse parses a decimal string from untrusted input (wire payloads, config
// files). Returns an error rather than panicking.
func Parse(s string) (Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Decimal{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return d, nil
}

// FromInt wraps an integer quantity (whole shares).
func FromInt(n int64) Decimal { return decimal.NewFromInt(n) }

// FromFloatString renders a float64 policy constant (e.g. a slippage rate
// loaded from JSON) as a decimal literal string, for use with New/Parse.
// Policy constants are small, human-authored numbers (0.10, 0.025, ...), not
// arithmetic results, so the float64 -> string -> Decimal round trip never
// touches money math.
func FromFloatString(f float64) string {
	return decimal.NewFromFloat(f).String()
}

// FractionalDigits returns the number of digits to the right of the decimal
// point in d's canonical (unrounded) representation.
func FractionalDigits(d Decimal) int32 {
	return -d.Exponent()
}

// QuantizePrice rounds a price to the wire precision (4 fractional digits).
func QuantizePrice(d Decimal) Decimal {
	return d.Round(PricePrecision)
}

// QuantizeQty rounds a quantity to the wire precision (9 fractional digits).
func QuantizeQty(d Decimal) Decimal {
	return d.Round(QtyPrecision)
}

// Max returns the larger of a and b.
func Max(a, b Decimal) Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min(a, b Decimal) Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Clamp restricts d to [lo, hi]. Callers must ensure lo <= hi.
func Clamp(d, lo, hi Decimal) Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

// NullableString renders d as a decimal string for the wire, or "" when d is
// a nil pointer's zero value should be omitted instead — callers decide that
// at the JSON-tag level via *Decimal fields.
func NullableString(d *Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// Value implements driver.Valuer so Decimal fields can be written directly by
// database/sql through the pgx stdlib driver.
func Value(d Decimal) (driver.Value, error) {
	return d.String(), nil
}
