package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	cases := map[string]string{
		"0":        "0",
		"999":      "999",
		"1000":     "1.000",
		"1498.5":   "1.498,50",
		"2000":     "2.000",
		"1234567":  "1.234.567",
		"-2500.25": "-2.500,25",
		"10.005":   "10,01",
	}
	for in, want := range cases {
		require.Equal(t, want, Format(decimal.RequireFromString(in)), in)
	}
}

func TestFormatWholeRoundsHalfUp(t *testing.T) {
	require.Equal(t, "1.499", FormatWhole(decimal.RequireFromString("1498.5")))
	require.Equal(t, "$1.500", FormatPrice(decimal.NewFromInt(1500)))
}

func TestCompact(t *testing.T) {
	require.Equal(t, "$2.3M", Compact(decimal.NewFromInt(2_300_000)))
	require.Equal(t, "$1.5K", Compact(decimal.NewFromInt(1_500)))
	require.Equal(t, "$950", Compact(decimal.NewFromInt(950)))
	require.Equal(t, "$0", Compact(decimal.Zero))
	require.Equal(t, "$1.0K", Compact(decimal.RequireFromString("999.6")))
	require.Equal(t, "$999", Compact(decimal.RequireFromString("999.4")))
	require.Equal(t, "$1.0M", Compact(decimal.NewFromInt(999_960)))
	require.Equal(t, "$999.9K", Compact(decimal.NewFromInt(999_940)))
}

func TestNumericRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("1498.50")
	got := FromNumeric(ToNumeric(d))
	require.True(t, d.Equal(got))

	require.True(t, FromNumeric(NullableNumeric(nil)).IsZero())
}

func TestMax0(t *testing.T) {
	require.True(t, Max0(decimal.NewFromInt(-5)).IsZero())
	require.True(t, Max0(decimal.NewFromInt(5)).Equal(decimal.NewFromInt(5)))
}
