package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{"plain", "5000", "5000"},
		{"rupee symbol and commas", "₹1,20,000", "120000"},
		{"currency code decimals", "INR 4,999.50", "4999.5"},
		{"float", 2500.25, "2500.25"},
		{"int", 7000, "7000"},
		{"json number", json.Number("12.5"), "12.5"},
		{"decimal", decimal.RequireFromString("99.99"), "99.99"},
		{"negative", "-300", "-300"},
		{"no digits", "N/A", "0"},
		{"garbage after strip", "1.2.3", "0"},
		{"dash suffix", "10,000/-", "0"},
		{"nil", nil, "0"},
		{"bool", true, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw).String())
		})
	}
}

func TestParseStrict(t *testing.T) {
	_, err := ParseStrict("abc")
	assert.ErrorIs(t, err, ErrInvalid)

	d, err := ParseStrict("₹ 3,000")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.NewFromInt(3000)))
}

func TestParseNonNegative(t *testing.T) {
	_, err := ParseNonNegative("-1")
	assert.ErrorIs(t, err, ErrNegative)

	d, err := ParseNonNegative("0")
	require.NoError(t, err)
	assert.True(t, d.IsZero())
}
