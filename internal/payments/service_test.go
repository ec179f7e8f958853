package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/ignite/settlement-desk/internal/docstore/memory"
	"github.com/ignite/settlement-desk/internal/istime"
	"github.com/ignite/settlement-desk/internal/ledger"
	"github.com/ignite/settlement-desk/internal/pkg/distlock"
	"github.com/ignite/settlement-desk/internal/records"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc    *Service
	store  *memory.Store
	ledger *ledger.Ledger
	locks  distlock.Factory
	now    time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	f := &fixture{store: memory.New(), now: time.Date(2025, 1, 15, 4, 30, 0, 0, time.UTC)}
	clock := istime.NewResolver(istime.DefaultOffsetMinutes, func() time.Time { return f.now })
	f.ledger = ledger.New(f.store, clock)
	f.locks = distlock.Factory{Redis: client, TTL: time.Minute}
	f.svc = NewService(f.store, f.ledger, f.locks, clock)
	return f
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func (f *fixture) collected(t *testing.T, name, month string) decimal.Decimal {
	t.Helper()
	r, err := f.ledger.Get(context.Background(), name, month)
	if errors.Is(err, docstore.ErrNotFound) {
		return decimal.Zero
	}
	require.NoError(t, err)
	return r.AmountCollected
}

func (f *fixture) create(t *testing.T, amount int64) *Payment {
	t.Helper()
	p, err := f.svc.Create(context.Background(), NewPayment{Amount: d(amount), SalesPersonName: "Asha", Source: "Website"})
	require.NoError(t, err)
	return p
}

func TestCreate(t *testing.T) {
	f := setup(t)
	p := f.create(t, 5000)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, StatusPending, p.Status)
	assert.True(t, p.Amount.Equal(d(5000)))
	assert.Equal(t, f.now, p.CreatedAt)

	got, err := f.svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.SalesPersonName)
	assert.Equal(t, "Website", got.Source)
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, NewPayment{Amount: d(-1), SalesPersonName: "Asha"})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.svc.Create(ctx, NewPayment{Amount: d(10), SalesPersonName: "  "})
	assert.ErrorIs(t, err, ErrNoSalesPerson)
}

func TestApproveCreditsLedger(t *testing.T) {
	f := setup(t)
	p := f.create(t, 5000)

	approved, err := f.svc.Approve(context.Background(), p.ID, "ops@desk")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, "ops@desk", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	assert.True(t, f.collected(t, "Asha", "Jan_2025").Equal(d(5000)))
}

func TestApproveTwiceIsRejected(t *testing.T) {
	f := setup(t)
	p := f.create(t, 5000)
	ctx := context.Background()

	_, err := f.svc.Approve(ctx, p.ID, "a")
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, p.ID, "b")
	assert.ErrorIs(t, err, ErrNotPending)

	assert.True(t, f.collected(t, "Asha", "Jan_2025").Equal(d(5000)))
}

func TestApproveWhileLockedIsBusy(t *testing.T) {
	f := setup(t)
	p := f.create(t, 5000)
	ctx := context.Background()

	held := f.locks.New(lockKey(p.ID))
	ok, err := held.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.Approve(ctx, p.ID, "b")
	assert.ErrorIs(t, err, ErrBusy)
	assert.True(t, f.collected(t, "Asha", "Jan_2025").IsZero())

	require.NoError(t, held.Release(ctx))
	_, err = f.svc.Approve(ctx, p.ID, "b")
	assert.NoError(t, err)
}

func TestApproveMissing(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Approve(context.Background(), "nope", "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditApprovedAdjustsLedger(t *testing.T) {
	f := setup(t)
	p := f.create(t, 5000)
	ctx := context.Background()
	_, err := f.svc.Approve(ctx, p.ID, "a")
	require.NoError(t, err)

	edited, err := f.svc.Edit(ctx, p.ID, d(3000), "lead@desk")
	require.NoError(t, err)
	assert.True(t, edited.Amount.Equal(d(3000)))
	assert.Equal(t, "lead@desk", edited.EditedBy)

	got, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "lead@desk", got.EditedBy)
	require.NotNil(t, got.EditedAt)
	assert.True(t, f.collected(t, "Asha", "Jan_2025").Equal(d(3000)))
}

func TestEditPendingLeavesLedger(t *testing.T) {
	f := setup(t)
	p := f.create(t, 5000)

	_, err := f.svc.Edit(context.Background(), p.ID, d(7000), "x")
	require.NoError(t, err)
	_, err = f.ledger.Get(context.Background(), "Asha", "Jan_2025")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestEditUsesCurrentMonth(t *testing.T) {
	f := setup(t)
	p := f.create(t, 5000)
	ctx := context.Background()
	_, err := f.svc.Approve(ctx, p.ID, "a")
	require.NoError(t, err)

	// a month later the edit lands on February, which has no record yet
	f.now = f.now.AddDate(0, 1, 0)
	_, err = f.svc.Edit(ctx, p.ID, d(6000), "x")
	require.NoError(t, err)

	assert.True(t, f.collected(t, "Asha", "Jan_2025").Equal(d(5000)))
	assert.True(t, f.collected(t, "Asha", "Feb_2025").Equal(d(6000)))
}

func TestEditRejectsNegative(t *testing.T) {
	f := setup(t)
	p := f.create(t, 5000)
	_, err := f.svc.Edit(context.Background(), p.ID, d(-5), "x")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

// statusWriteFails refuses to store a payment status change.
type statusWriteFails struct {
	docstore.Store
}

func (s statusWriteFails) Upsert(ctx context.Context, collection, id string, partial docstore.Document) error {
	if _, ok := partial[fieldStatus]; ok && collection == records.Payments {
		return errors.New("write timeout")
	}
	return s.Store.Upsert(ctx, collection, id, partial)
}

func TestApproveFailedStatusWriteReversesCredit(t *testing.T) {
	f := setup(t)
	p := f.create(t, 5000)
	ctx := context.Background()

	clock := istime.NewResolver(istime.DefaultOffsetMinutes, func() time.Time { return f.now })
	svc := NewService(statusWriteFails{Store: f.store}, f.ledger, f.locks, clock)

	_, err := svc.Approve(ctx, p.ID, "ops")
	require.Error(t, err)
	assert.True(t, f.collected(t, "Asha", "Jan_2025").IsZero())

	got, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)

	_, err = f.svc.Approve(ctx, p.ID, "ops")
	require.NoError(t, err)
	assert.True(t, f.collected(t, "Asha", "Jan_2025").Equal(d(5000)))
}

func TestLedgerRejectionWritesNothing(t *testing.T) {
	tests := []struct {
		name string
		doc  docstore.Document
		op   func(f *fixture) error
		want error
	}{
		{
			name: "approve without salesperson",
			doc:  docstore.Document{"id": "x", "amount": "5000", "status": "pending"},
			op: func(f *fixture) error {
				_, err := f.svc.Approve(context.Background(), "x", "ops")
				return err
			},
			want: ErrNoSalesPerson,
		},
		{
			name: "edit approved without salesperson",
			doc:  docstore.Document{"id": "x", "amount": "5000", "status": "approved"},
			op: func(f *fixture) error {
				_, err := f.svc.Edit(context.Background(), "x", d(3000), "ops")
				return err
			},
			want: ErrNoSalesPerson,
		},
		{
			name: "delete approved without salesperson",
			doc:  docstore.Document{"id": "x", "amount": "5000", "status": "approved"},
			op:   func(f *fixture) error { return f.svc.Delete(context.Background(), "x") },
			want: ErrNoSalesPerson,
		},
		{
			name: "edit approved with negative stored amount",
			doc:  docstore.Document{"id": "x", "amount": "-5000", "status": "approved", "salesPersonName": "Asha"},
			op: func(f *fixture) error {
				_, err := f.svc.Edit(context.Background(), "x", d(3000), "ops")
				return err
			},
			want: ErrInvalidAmount,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			f.store.Seed(records.Payments, tt.doc)
			before, err := f.svc.Get(context.Background(), "x")
			require.NoError(t, err)

			assert.ErrorIs(t, tt.op(f), tt.want)

			after, err := f.svc.Get(context.Background(), "x")
			require.NoError(t, err)
			assert.True(t, before.Amount.Equal(after.Amount))
			assert.Equal(t, before.Status, after.Status)
			assert.Empty(t, after.EditedBy)
		})
	}
}

func TestDeleteApprovedFloorsLedger(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.create(t, 9000)
	_, err := f.svc.Approve(ctx, p.ID, "a")
	require.NoError(t, err)
	require.NoError(t, f.ledger.ApplyEdit(ctx, "Asha", true, d(9000), d(3000), "Jan_2025"))

	require.NoError(t, f.svc.Delete(ctx, p.ID))
	assert.True(t, f.collected(t, "Asha", "Jan_2025").IsZero())

	_, err = f.svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePendingLeavesLedger(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	approved := f.create(t, 4000)
	_, err := f.svc.Approve(ctx, approved.ID, "a")
	require.NoError(t, err)

	pending := f.create(t, 1000)
	require.NoError(t, f.svc.Delete(ctx, pending.ID))
	assert.True(t, f.collected(t, "Asha", "Jan_2025").Equal(d(4000)))
}

func TestDeleteMissing(t *testing.T) {
	f := setup(t)
	assert.ErrorIs(t, f.svc.Delete(context.Background(), "nope"), ErrNotFound)
}

func TestList(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	first := f.create(t, 100)
	f.now = f.now.Add(time.Hour)
	second := f.create(t, 200)
	_, err := f.svc.Approve(ctx, first.ID, "a")
	require.NoError(t, err)

	all, err := f.svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	approved, err := f.svc.List(ctx, StatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, first.ID, approved[0].ID)
}

func TestLegacyDocumentsDecode(t *testing.T) {
	f := setup(t)
	f.store.Seed(records.Payments, docstore.Document{
		"id": "legacy", "amount": "₹12,500", "status": "approved", "salesPerson": "Ravi",
		"timestamp": float64(1736911800000),
	})

	p, err := f.svc.Get(context.Background(), "legacy")
	require.NoError(t, err)
	assert.True(t, p.Amount.Equal(d(12500)))
	assert.Equal(t, "Ravi", p.SalesPersonName)
	assert.True(t, p.Approved())
	assert.Equal(t, f.now, p.CreatedAt.UTC())
}
