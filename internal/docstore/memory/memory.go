// Package memory is an in-process docstore backend. With a snapshot path
// it persists every mutation to a JSON file and reloads it on start.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/ignite/settlement-desk/internal/money"
	"github.com/ignite/settlement-desk/internal/pkg/logger"
	"github.com/shopspring/decimal"
)

// Store keeps collections in memory.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]docstore.Document
	path        string
}

var _ docstore.Store = (*Store)(nil)

// New returns an empty, non-persistent store.
func New() *Store {
	return &Store{collections: make(map[string]map[string]docstore.Document)}
}

// Open returns a store persisted to path. A missing file starts empty.
func Open(path string) (*Store, error) {
	s := New()
	s.path = path
	if path == "" {
		return s, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.collections); err != nil {
			return nil, fmt.Errorf("decoding snapshot: %w", err)
		}
	}
	logger.Info("loaded document snapshot", "path", path, "collections", len(s.collections))
	return s, nil
}

// Seed replaces a collection's contents. Used by tests and local fixtures.
func (s *Store) Seed(collection string, docs ...docstore.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll := make(map[string]docstore.Document, len(docs))
	for _, d := range docs {
		cp := d.Clone()
		coll[cp.ID()] = cp
	}
	s.collections[collection] = coll
}

func (s *Store) GetAll(ctx context.Context, collection string) ([]docstore.Document, error) {
	return s.filter(collection, func(docstore.Document) bool { return true })
}

func (s *Store) GetWhere(ctx context.Context, collection, field string, value any) ([]docstore.Document, error) {
	return s.filter(collection, func(d docstore.Document) bool {
		v, ok := d[field]
		return ok && docstore.Equal(v, value)
	})
}

func (s *Store) filter(collection string, keep func(docstore.Document) bool) ([]docstore.Document, error) {
	if err := docstore.ValidatePath(collection); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.collections[collection]
	ids := make([]string, 0, len(coll))
	for id := range coll {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]docstore.Document, 0, len(ids))
	for _, id := range ids {
		if d := coll[id]; keep(d) {
			out = append(out, d.Clone())
		}
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := docstore.ValidatePath(collection); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.collections[collection][id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return d.Clone(), nil
}

func (s *Store) Upsert(ctx context.Context, collection, id string, partial docstore.Document) error {
	if err := docstore.ValidatePath(collection); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.doc(collection, id)
	for k, v := range partial.Clone() {
		d[k] = v
	}
	d["id"] = id
	return s.persist()
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := docstore.ValidatePath(collection); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return s.persist()
}

func (s *Store) Increment(ctx context.Context, collection, id, field string, delta decimal.Decimal, floorAtZero bool) (decimal.Decimal, error) {
	if err := docstore.ValidatePath(collection); err != nil {
		return decimal.Zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.doc(collection, id)
	next := money.Parse(d[field]).Add(delta)
	if floorAtZero && next.IsNegative() {
		next = decimal.Zero
	}
	d[field] = next
	return next, s.persist()
}

// doc returns the stored document, creating it if needed. Caller holds mu.
func (s *Store) doc(collection, id string) docstore.Document {
	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]docstore.Document)
		s.collections[collection] = coll
	}
	d, ok := coll[id]
	if !ok {
		d = docstore.Document{"id": id}
		coll[id] = d
	}
	return d
}

// persist writes the snapshot file. Caller holds mu.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.collections, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return os.Rename(tmp, s.path)
}
