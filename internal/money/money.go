// Package money parses the free-text monetary fields stored on leads,
// clients and payment requests.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalid is returned by ParseStrict for text with no usable number.
var ErrInvalid = errors.New("invalid amount")

// ErrNegative is returned by ParseNonNegative for amounts below zero.
var ErrNegative = errors.New("amount must not be negative")

// Parse extracts a decimal from a stored amount. Text has every character
// other than digits, '.' and '-' stripped first ("₹1,20,000/-" → 120000).
// Anything unparsable contributes zero.
func Parse(raw any) decimal.Decimal {
	d, err := ParseStrict(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseStrict is Parse that reports unparsable input instead of
// returning zero.
func ParseStrict(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalid)
	case decimal.Decimal:
		return v, nil
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalid)
		}
		return *v, nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case json.Number:
		return parseText(string(v))
	case string:
		return parseText(v)
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalid, raw)
	}
}

// ParseNonNegative is ParseStrict that also rejects negative amounts.
func ParseNonNegative(raw any) (decimal.Decimal, error) {
	d, err := ParseStrict(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNegative, d)
	}
	return d, nil
}

func parseText(s string) (decimal.Decimal, error) {
	cleaned := Clean(s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return d, nil
}

// Clean keeps only digits, '.' and '-'.
func Clean(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
