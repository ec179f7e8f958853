// Package aggregate folds raw lead, client and payment documents into
// grouped tallies keyed by normalized dimensions.
//
// The pipeline is group, fold, percentages, sort, truncate. Percentages
// are filled in only once every record has been folded, and Top only
// ever runs on a sorted list.
package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/ignite/settlement-desk/internal/istime"
	"github.com/ignite/settlement-desk/internal/money"
	"github.com/ignite/settlement-desk/internal/normalize"
	"github.com/ignite/settlement-desk/internal/pkg/logger"
	"github.com/shopspring/decimal"
)

// Dimension maps a record onto one component of a bucket key.
type Dimension func(docstore.Document) string

// AmountFunc extracts a record's monetary contribution.
type AmountFunc func(docstore.Document) decimal.Decimal

// Bucket is one row of an aggregation: a composite key and its tallies.
type Bucket struct {
	Key         []string        `json:"key"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Breakdown   map[string]int  `json:"breakdown,omitempty"`
	Percentage  float64         `json:"percentage"`
}

// Label joins the key for display ("Maharashtra / HDFC Bank").
func (b *Bucket) Label() string {
	return strings.Join(b.Key, " / ")
}

// Result is a completed aggregation.
type Result struct {
	Buckets  []*Bucket       `json:"buckets"`
	Total    int             `json:"total"`
	Excluded int             `json:"excluded"`
	Amount   decimal.Decimal `json:"totalAmount"`
}

// Aggregator holds the per-collection rules deciding which records are
// resolvable. A nil Moment or Owner skips that check.
type Aggregator struct {
	// Moment resolves the record's creation or last-modified instant.
	Moment func(docstore.Document) (time.Time, bool)
	// Owner returns the assigned salesperson or advocate.
	Owner func(docstore.Document) string
	// Window, when set, keeps only records whose moment falls inside it.
	Window *istime.Range
	// Breakdown names the subcategory counted inside each bucket.
	Breakdown Dimension
}

// Aggregate folds records into one bucket per distinct dimension tuple.
// Buckets come back in first-contribution order with percentages set.
func (a Aggregator) Aggregate(records []docstore.Document, dims []Dimension, amount AmountFunc) Result {
	var res Result
	index := make(map[string]*Bucket)

	for _, r := range records {
		if !a.resolvable(r) {
			res.Excluded++
			continue
		}

		key := make([]string, len(dims))
		for i, dim := range dims {
			key[i] = orUnknown(dim(r))
		}
		id := strings.Join(key, "\x1f")

		b, ok := index[id]
		if !ok {
			b = &Bucket{Key: key, TotalAmount: decimal.Zero}
			index[id] = b
			res.Buckets = append(res.Buckets, b)
		}

		b.Count++
		res.Total++
		if amount != nil {
			v := amount(r)
			b.TotalAmount = b.TotalAmount.Add(v)
			res.Amount = res.Amount.Add(v)
		}
		if a.Breakdown != nil {
			if b.Breakdown == nil {
				b.Breakdown = make(map[string]int)
			}
			b.Breakdown[orUnknown(a.Breakdown(r))]++
		}
	}

	applyPercentages(res.Buckets, res.Total)
	if res.Excluded > 0 {
		logger.Debug("excluded unresolvable records", "excluded", res.Excluded, "folded", res.Total)
	}
	return res
}

func (a Aggregator) resolvable(r docstore.Document) bool {
	if a.Owner != nil && strings.TrimSpace(a.Owner(r)) == "" {
		logger.Debug("record has no owner", "id", r.ID())
		return false
	}
	if a.Moment == nil {
		return true
	}
	t, ok := a.Moment(r)
	if !ok {
		logger.Debug("record has no resolvable timestamp", "id", r.ID())
		return false
	}
	return a.Window == nil || a.Window.Contains(t)
}

func applyPercentages(buckets []*Bucket, total int) {
	if total == 0 {
		return
	}
	for _, b := range buckets {
		b.Percentage = float64(b.Count) / float64(total) * 100
	}
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return normalize.Unknown
	}
	return s
}

// SortByCount orders buckets by descending count, keeping insertion order
// for ties.
func SortByCount(buckets []*Bucket) {
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Count > buckets[j].Count
	})
}

// SortByAmount orders buckets by descending total amount, keeping
// insertion order for ties.
func SortByAmount(buckets []*Bucket) {
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].TotalAmount.GreaterThan(buckets[j].TotalAmount)
	})
}

// Top returns the first n buckets. Sort first.
func Top(buckets []*Bucket, n int) []*Bucket {
	if n <= 0 || len(buckets) <= n {
		return buckets
	}
	return buckets[:n]
}

// Field reads a text field as-is.
func Field(name string) Dimension {
	return func(d docstore.Document) string { return d.String(name) }
}

// Normalized reads a text field through a normalizer.
func Normalized(name string, fn func(string) string) Dimension {
	return func(d docstore.Document) string { return fn(d.String(name)) }
}

// FirstField reads the first non-empty text field among names. Older
// documents use different field names for the same value.
func FirstField(names ...string) Dimension {
	return func(d docstore.Document) string {
		for _, n := range names {
			if v := d.String(n); v != "" {
				return v
			}
		}
		return ""
	}
}

// Amount parses the first present field among names. Unparsable text
// contributes zero.
func Amount(names ...string) AmountFunc {
	return func(d docstore.Document) decimal.Decimal {
		for _, n := range names {
			if v, ok := d[n]; ok && v != nil {
				return money.Parse(v)
			}
		}
		return decimal.Zero
	}
}

// MomentOf resolves the first field among names that holds a usable
// timestamp.
func MomentOf(names ...string) func(docstore.Document) (time.Time, bool) {
	return func(d docstore.Document) (time.Time, bool) {
		for _, n := range names {
			if t, ok := istime.Resolve(d[n]); ok {
				return t, true
			}
		}
		return time.Time{}, false
	}
}
