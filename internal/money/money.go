// Package money holds the decimal helpers shared by pricing, receipts and
// the dashboard. Amounts are Argentine pesos; display follows es-AR.
package money

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
)

// Round2 rounds to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Max0 clamps negative values to zero.
func Max0(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Format renders d with "." thousands and "," decimals. Whole amounts
// drop the decimal part: 2000 -> "2.000", 1498.5 -> "1.498,50".
func Format(d decimal.Decimal) string {
	d = Round2(d)
	neg := d.IsNegative()
	d = d.Abs()
	whole := d.Truncate(0)
	frac := d.Sub(whole)

	out := groupThousands(whole.StringFixed(0))
	if !frac.IsZero() {
		cents := d.StringFixed(2)
		out += "," + cents[len(cents)-2:]
	}
	if neg {
		return "-" + out
	}
	return out
}

// FormatWhole rounds to the nearest peso before formatting.
func FormatWhole(d decimal.Decimal) string {
	return Format(d.Round(0))
}

// FormatPrice prefixes Format with "$".
func FormatPrice(d decimal.Decimal) string {
	return "$" + Format(d)
}

// Compact is the dashboard shorthand: $2.3M, $1.5K, or the whole amount.
// Thresholds compare the amount rounded the way it is printed.
func Compact(d decimal.Decimal) string {
	d = d.Round(0)
	switch {
	case d.Div(thousand).Round(1).GreaterThanOrEqual(thousand):
		return "$" + d.Div(million).StringFixed(1) + "M"
	case d.GreaterThanOrEqual(thousand):
		return "$" + d.Div(thousand).StringFixed(1) + "K"
	default:
		return "$" + FormatWhole(d)
	}
}

func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/3)
	rem := len(s) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(s[:rem])
	for i := rem; i < len(s); i += 3 {
		b.WriteByte('.')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FromNumeric converts a pgtype.Numeric. NULL and NaN become zero.
func FromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

// ToNumeric converts d into a valid pgtype.Numeric.
func ToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// NullableNumeric returns a NULL numeric when d is nil.
func NullableNumeric(d *decimal.Decimal) pgtype.Numeric {
	if d == nil {
		return pgtype.Numeric{}
	}
	return ToNumeric(*d)
}
