package memory

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/ignite/settlement-desk/internal/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertMergesFields(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Upsert(ctx, "payments", "p1", docstore.Document{"amount": 5000.0, "status": "pending"}))
	require.NoError(t, s.Upsert(ctx, "payments", "p1", docstore.Document{"status": "approved"}))

	got, err := s.Get(ctx, "payments", "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID())
	assert.Equal(t, 5000.0, got["amount"])
	assert.Equal(t, "approved", got["status"])
}

func TestGetMissing(t *testing.T) {
	_, err := New().Get(context.Background(), "payments", "nope")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestGetWhere(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed("payments",
		docstore.Document{"id": "a", "status": "approved"},
		docstore.Document{"id": "b", "status": "pending"},
		docstore.Document{"id": "c", "status": "approved"},
	)

	docs, err := s.GetWhere(ctx, "payments", "status", "approved")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID())
	assert.Equal(t, "c", docs[1].ID())
}

func TestReturnedDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed("leads", docstore.Document{"id": "l1", "status": "Interested"})

	docs, err := s.GetAll(ctx, "leads")
	require.NoError(t, err)
	docs[0]["status"] = "Junk"

	got, err := s.Get(ctx, "leads", "l1")
	require.NoError(t, err)
	assert.Equal(t, "Interested", got["status"])
}

func TestIncrementCreatesAndFloors(t *testing.T) {
	ctx := context.Background()
	s := New()
	coll := docstore.Sub("targets", "Jan_2025", "salespersons")

	v, err := s.Increment(ctx, coll, "Asha", "achieved", decimal.NewFromInt(9000), true)
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(9000)))

	v, err = s.Increment(ctx, coll, "Asha", "achieved", decimal.NewFromInt(-12000), true)
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	v, err = s.Increment(ctx, coll, "Ravi", "achieved", decimal.NewFromInt(-100), false)
	require.NoError(t, err)
	assert.True(t, v.Equal(decimal.NewFromInt(-100)))
}

func TestIncrementConcurrent(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Increment(ctx, "counters", "c", "n", decimal.NewFromInt(2), false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "counters", "c")
	require.NoError(t, err)
	assert.True(t, money.Parse(got["n"]).Equal(decimal.NewFromInt(100)))
}

func TestPersistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "desk", "snapshot.json")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, "leads", "l1", docstore.Document{"status": "Interested"}))
	_, err = s.Increment(ctx, "counters", "c", "n", decimal.RequireFromString("12.5"), false)
	require.NoError(t, err)

	reopened, err := Open(path)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "leads", "l1")
	require.NoError(t, err)
	assert.Equal(t, "Interested", got["status"])

	c, err := reopened.Get(ctx, "counters", "c")
	require.NoError(t, err)
	assert.True(t, money.Parse(c["n"]).Equal(decimal.RequireFromString("12.5")))
}

func TestRejectsDocumentPath(t *testing.T) {
	_, err := New().GetAll(context.Background(), "targets/Jan_2025")
	assert.Error(t, err)
}
