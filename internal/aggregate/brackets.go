package aggregate

import (
	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/ignite/settlement-desk/internal/money"
	"github.com/ignite/settlement-desk/internal/normalize"
	"github.com/shopspring/decimal"
)

// bracket covers values up to and including Max. The last bracket of a
// table has a zero Max and catches everything above the previous one.
type bracket struct {
	Label string
	Max   decimal.Decimal
}

func table(labels []string, bounds ...int64) []bracket {
	out := make([]bracket, len(labels))
	for i, l := range labels {
		out[i].Label = l
		if i < len(bounds) {
			out[i].Max = decimal.NewFromInt(bounds[i])
		}
	}
	return out
}

// Monthly income in rupees.
var incomeBrackets = table(
	[]string{"Up to 25K", "25K-50K", "50K-1L", "1L-2L", "Above 2L"},
	25000, 50000, 100000, 200000,
)

var ageBrackets = table(
	[]string{"18-25", "26-35", "36-45", "46-55", "56+"},
	25, 35, 45, 55,
)

// IncomeBrackets lists income bracket labels in ascending order.
func IncomeBrackets() []string { return labels(incomeBrackets) }

// AgeBrackets lists age bracket labels in ascending order.
func AgeBrackets() []string { return labels(ageBrackets) }

func labels(bs []bracket) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Label
	}
	return out
}

// IncomeBracket buckets a free-text monthly income. Missing, zero and
// unparsable incomes are Unknown.
func IncomeBracket(raw any) string {
	return place(incomeBrackets, raw)
}

// AgeBracket buckets an age in years. Ages under 18 are Unknown.
func AgeBracket(raw any) string {
	v, err := money.ParseStrict(raw)
	if err != nil || v.LessThan(decimal.NewFromInt(18)) {
		return normalize.Unknown
	}
	return place(ageBrackets, v)
}

func place(bs []bracket, raw any) string {
	v, err := money.ParseStrict(raw)
	if err != nil || !v.IsPositive() {
		return normalize.Unknown
	}
	for i, b := range bs {
		if i == len(bs)-1 || v.LessThanOrEqual(b.Max) {
			return b.Label
		}
	}
	return normalize.Unknown
}

// Income is a Dimension bucketing the first present income field.
func Income(names ...string) Dimension {
	return func(d docstore.Document) string {
		for _, n := range names {
			if v, ok := d[n]; ok && v != nil {
				return IncomeBracket(v)
			}
		}
		return normalize.Unknown
	}
}

// Age is a Dimension bucketing the first present age field.
func Age(names ...string) Dimension {
	return func(d docstore.Document) string {
		for _, n := range names {
			if v, ok := d[n]; ok && v != nil {
				return AgeBracket(v)
			}
		}
		return normalize.Unknown
	}
}
