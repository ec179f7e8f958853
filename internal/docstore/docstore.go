// Package docstore defines the document-store contract the reporting
// pipeline reads raw records from and writes ledger counters to.
//
// Backends live in subpackages: memory (tests and single-node runs, with
// optional JSON file persistence), dynamo (single-table DynamoDB) and
// postgres (JSONB table).
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by Get for a missing document.
var ErrNotFound = errors.New("document not found")

// Document is a loosely-typed stored record. Every document a Store
// returns carries its id under the "id" key.
type Document map[string]any

// Store is the document-store contract. Collections are addressed by
// path; subcollections nest under a parent document (see Sub).
//
// Implementations must be safe for concurrent use.
type Store interface {
	// GetAll returns every document in the collection.
	GetAll(ctx context.Context, collection string) ([]Document, error)

	// GetWhere returns documents whose field equals value.
	GetWhere(ctx context.Context, collection, field string, value any) ([]Document, error)

	// Get returns one document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Upsert merges partial into the document, creating it if absent.
	Upsert(ctx context.Context, collection, id string, partial Document) error

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// Increment atomically adds delta to a numeric field, creating the
	// document and field if absent, and returns the new value. With
	// floorAtZero the stored result never drops below zero.
	Increment(ctx context.Context, collection, id, field string, delta decimal.Decimal, floorAtZero bool) (decimal.Decimal, error)
}

// Sub returns the path of a subcollection under parent/parentID.
func Sub(parent, parentID, sub string) string {
	return parent + "/" + parentID + "/" + sub
}

// ValidatePath rejects collection paths a backend can't address.
func ValidatePath(collection string) error {
	if collection == "" {
		return fmt.Errorf("empty collection path")
	}
	if len(strings.Split(collection, "/"))%2 == 0 {
		return fmt.Errorf("collection path %q points at a document", collection)
	}
	return nil
}

// String returns a field as a trimmed string, or "" when absent or not text.
func (d Document) String(field string) string {
	switch v := d[field].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}

// ID returns the document id.
func (d Document) ID() string {
	return d.String("id")
}

// Clone deep-copies nested maps and slices so callers can't mutate
// stored state through a returned document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return cloneValue(map[string]any(d)).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case Document:
		return Document(cloneValue(map[string]any(t)).(map[string]any))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}

// Equal compares a stored field value with a query value. Numbers compare
// numerically across types; everything else compares by text.
func Equal(stored, want any) bool {
	if a, ok := asFloat(stored); ok {
		if b, ok := asFloat(want); ok {
			return a == b
		}
	}
	return fmt.Sprint(stored) == fmt.Sprint(want)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case decimal.Decimal:
		f, _ := n.Float64()
		return f, true
	default:
		return 0, false
	}
}
