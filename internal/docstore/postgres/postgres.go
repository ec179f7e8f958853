// Package postgres stores documents as JSONB rows keyed by
// (collection, id).
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/shopspring/decimal"
)

// Schema creates the documents table. cmd/migrate applies it; EnsureSchema
// runs it at startup for local databases.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	data       JSONB       NOT NULL DEFAULT '{}'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_data ON documents USING GIN (data);
`

// Store implements docstore.Store against PostgreSQL.
type Store struct{ db *sql.DB }

var _ docstore.Store = (*Store)(nil)

// New creates a Postgres-backed document store.
func New(db *sql.DB) *Store { return &Store{db: db} }

// EnsureSchema creates the documents table if it doesn't exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure documents schema: %w", err)
	}
	return nil
}

func (s *Store) GetAll(ctx context.Context, collection string) ([]docstore.Document, error) {
	if err := docstore.ValidatePath(collection); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data FROM documents
		WHERE collection = $1
		ORDER BY id`, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return scanDocuments(rows)
}

// GetWhere compares the field's text form, so numbers match on their
// shortest representation.
func (s *Store) GetWhere(ctx context.Context, collection, field string, value any) ([]docstore.Document, error) {
	if err := docstore.ValidatePath(collection); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data FROM documents
		WHERE collection = $1 AND data->>$2::text = $3
		ORDER BY id`, collection, field, fmt.Sprint(value))
	if err != nil {
		return nil, fmt.Errorf("query %s where %s: %w", collection, field, err)
	}
	return scanDocuments(rows)
}

func scanDocuments(rows *sql.Rows) ([]docstore.Document, error) {
	defer rows.Close()

	var docs []docstore.Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d, err := decode(id, raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func decode(id string, raw []byte) (docstore.Document, error) {
	d := docstore.Document{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", id, err)
		}
	}
	d["id"] = id
	return d, nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	if err := docstore.ValidatePath(collection); err != nil {
		return nil, err
	}
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM documents
		WHERE collection = $1 AND id = $2`, collection, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return decode(id, raw)
}

func (s *Store) Upsert(ctx context.Context, collection, id string, partial docstore.Document) error {
	if err := docstore.ValidatePath(collection); err != nil {
		return err
	}
	merged := partial.Clone()
	if merged == nil {
		merged = docstore.Document{}
	}
	merged["id"] = id

	data, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE
		SET data = documents.data || EXCLUDED.data, updated_at = NOW()`,
		collection, id, string(data))
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := docstore.ValidatePath(collection); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

// Increment performs the read-add-write inside one upsert statement, so
// concurrent increments serialize on the row lock.
func (s *Store) Increment(ctx context.Context, collection, id, field string, delta decimal.Decimal, floorAtZero bool) (decimal.Decimal, error) {
	if err := docstore.ValidatePath(collection); err != nil {
		return decimal.Zero, err
	}
	var out string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2::text, jsonb_build_object(
			'id', $2::text,
			$3::text, CASE WHEN $5::boolean THEN GREATEST($4::numeric, 0) ELSE $4::numeric END))
		ON CONFLICT (collection, id) DO UPDATE
		SET data = documents.data || jsonb_build_object($3::text,
			CASE WHEN $5::boolean
				THEN GREATEST(COALESCE((documents.data->>$3::text)::numeric, 0) + $4::numeric, 0)
				ELSE COALESCE((documents.data->>$3::text)::numeric, 0) + $4::numeric
			END),
			updated_at = NOW()
		RETURNING data->>$3::text`,
		collection, id, field, delta.String(), floorAtZero).Scan(&out)
	if err != nil {
		return decimal.Zero, fmt.Errorf("increment %s/%s.%s: %w", collection, id, field, err)
	}
	return decimal.NewFromString(out)
}
