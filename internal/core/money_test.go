package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "", false},
		{"12,5", "", false},
		{" 2.50 ", "2.5", true},
		{"0", "0", true},
		{"-30", "-30", true},
		{"1e+21", "1000000000000000000000", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1,234.5", "", false},
		{"NaN", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			require.NoError(t, err, "input %q", tc.in)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.out)), "%q: got %s want %s", tc.in, got, tc.out)
		} else {
			assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", tc.in)
		}
	}
}

func TestParseInputAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1,23", "1.23", true},
		{" 30,00 ", "30", true},
		{"10.5", "10.5", true},
		{"1,234.5", "", false},
		{"1,2,3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseInputAmount(tc.in)
		if tc.ok {
			require.NoError(t, err, "input %q", tc.in)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.out)), "%q: got %s want %s", tc.in, got, tc.out)
		} else {
			assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", tc.in)
		}
	}
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 150.00", FormatBRL(decimal.NewFromInt(150)))
	assert.Equal(t, "R$ 0.00", FormatBRL(decimal.Zero))
	assert.Equal(t, "R$ 12.35", FormatBRL(decimal.RequireFromString("12.345")))
	assert.Equal(t, "-R$ 30.50", FormatBRL(decimal.RequireFromString("-30.5")))
}
