// Package ledger maintains the per-salesperson, per-month collection
// counters that payment approvals, edits and deletions adjust.
//
// Records live at targets/{Mon_YYYY}/salespersons/{name}. The collected
// amount only ever changes through docstore.Increment, so concurrent
// adjustments to the same counter are not lost.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/ignite/settlement-desk/internal/istime"
	"github.com/ignite/settlement-desk/internal/money"
	"github.com/ignite/settlement-desk/internal/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	// Collection is the per-month parent collection.
	Collection = "targets"
	// SalesPersons is the subcollection holding one record per salesperson.
	SalesPersons = "salespersons"

	FieldConvertedLeadsTarget  = "convertedLeadsTarget"
	FieldAmountCollectedTarget = "amountCollectedTarget"
	FieldAmountCollected       = "amountCollected"
	FieldSalesPerson           = "salesPerson"
	FieldMonth                 = "month"
	FieldUpdatedAt             = "updatedAt"
)

var (
	ErrNoSalesPerson  = errors.New("salesperson is required")
	ErrNegativeAmount = errors.New("amount must not be negative")
)

// TargetRecord is one salesperson's targets and collections for a month.
// Targets absent from the stored document read as zero.
type TargetRecord struct {
	SalesPerson           string          `json:"salesPerson"`
	Month                 string          `json:"month"`
	ConvertedLeadsTarget  int64           `json:"convertedLeadsTarget"`
	AmountCollectedTarget decimal.Decimal `json:"amountCollectedTarget"`
	AmountCollected       decimal.Decimal `json:"amountCollected"`
	UpdatedAt             time.Time       `json:"updatedAt,omitempty"`
}

// Progress is the share of the collection target reached, in percent.
// Zero when no target is set.
func (r TargetRecord) Progress() float64 {
	if !r.AmountCollectedTarget.IsPositive() {
		return 0
	}
	p, _ := r.AmountCollected.Div(r.AmountCollectedTarget).Mul(decimal.NewFromInt(100)).Float64()
	return p
}

// Ledger applies payment transitions to target records.
type Ledger struct {
	store docstore.Store
	clock *istime.Resolver
}

// New creates a ledger. The resolver supplies the current month.
func New(store docstore.Store, clock *istime.Resolver) *Ledger {
	return &Ledger{store: store, clock: clock}
}

// Path returns the salespersons subcollection for a month.
func Path(month string) string {
	return docstore.Sub(Collection, month, SalesPersons)
}

// CurrentMonth is the month key mutations default to.
func (l *Ledger) CurrentMonth() string {
	return l.clock.CurrentMonth()
}

func (l *Ledger) month(m string) string {
	if m == "" {
		return l.clock.CurrentMonth()
	}
	return m
}

func check(salesPerson string, amounts ...decimal.Decimal) error {
	if strings.TrimSpace(salesPerson) == "" {
		return ErrNoSalesPerson
	}
	for _, a := range amounts {
		if a.IsNegative() {
			return fmt.Errorf("%w: %s", ErrNegativeAmount, a)
		}
	}
	return nil
}

// ApplyApproval adds amount to the salesperson's collected total for
// month, creating the record if this is its first event.
func (l *Ledger) ApplyApproval(ctx context.Context, salesPerson string, amount decimal.Decimal, month string) error {
	if err := check(salesPerson, amount); err != nil {
		return err
	}
	return l.adjust(ctx, salesPerson, l.month(month), amount, false)
}

// ApplyEdit moves the collected total by newAmount-oldAmount. Edits to
// payments that were never approved don't touch the ledger, and equal
// amounts don't write. A missing record is treated as a fresh approval
// of newAmount.
func (l *Ledger) ApplyEdit(ctx context.Context, salesPerson string, approved bool, oldAmount, newAmount decimal.Decimal, month string) error {
	if !approved {
		return nil
	}
	if err := check(salesPerson, oldAmount, newAmount); err != nil {
		return err
	}
	delta := newAmount.Sub(oldAmount)
	if delta.IsZero() {
		return nil
	}

	month = l.month(month)
	_, err := l.store.Get(ctx, Path(month), salesPerson)
	if errors.Is(err, docstore.ErrNotFound) {
		logger.Warn("no target record for edited payment, applying as approval",
			"sales_person", salesPerson, "month", month)
		return l.adjust(ctx, salesPerson, month, newAmount, false)
	}
	if err != nil {
		return fmt.Errorf("loading target record: %w", err)
	}
	return l.adjust(ctx, salesPerson, month, delta, false)
}

// ApplyDeletion removes an approved payment's amount, never taking the
// collected total below zero.
func (l *Ledger) ApplyDeletion(ctx context.Context, salesPerson string, approved bool, amount decimal.Decimal, month string) error {
	if !approved {
		return nil
	}
	if err := check(salesPerson, amount); err != nil {
		return err
	}
	if amount.IsZero() {
		return nil
	}
	return l.adjust(ctx, salesPerson, l.month(month), amount.Neg(), true)
}

func (l *Ledger) adjust(ctx context.Context, salesPerson, month string, delta decimal.Decimal, floor bool) error {
	coll := Path(month)
	total, err := l.store.Increment(ctx, coll, salesPerson, FieldAmountCollected, delta, floor)
	if err != nil {
		return fmt.Errorf("updating collected amount: %w", err)
	}
	if err := l.stamp(ctx, coll, salesPerson, month, nil); err != nil {
		return err
	}
	logger.Info("ledger adjusted", "sales_person", salesPerson, "month", month,
		"delta", delta.String(), "amount_collected", total.String())
	return nil
}

func (l *Ledger) stamp(ctx context.Context, coll, salesPerson, month string, extra docstore.Document) error {
	doc := docstore.Document{
		FieldSalesPerson: salesPerson,
		FieldMonth:       month,
		FieldUpdatedAt:   l.clock.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range extra {
		doc[k] = v
	}
	if err := l.store.Upsert(ctx, coll, salesPerson, doc); err != nil {
		return fmt.Errorf("writing target record: %w", err)
	}
	return nil
}

// SetTargets records the manual targets for a salesperson and month.
// The collected amount is left as it is.
func (l *Ledger) SetTargets(ctx context.Context, salesPerson, month string, convertedLeads int64, amountTarget decimal.Decimal) error {
	if err := check(salesPerson, amountTarget); err != nil {
		return err
	}
	if convertedLeads < 0 {
		return fmt.Errorf("%w: converted leads target %d", ErrNegativeAmount, convertedLeads)
	}
	month = l.month(month)
	return l.stamp(ctx, Path(month), salesPerson, month, docstore.Document{
		FieldConvertedLeadsTarget:  convertedLeads,
		FieldAmountCollectedTarget: amountTarget,
	})
}

// Get returns the record for a salesperson and month. A missing record
// comes back zeroed together with docstore.ErrNotFound.
func (l *Ledger) Get(ctx context.Context, salesPerson, month string) (TargetRecord, error) {
	month = l.month(month)
	d, err := l.store.Get(ctx, Path(month), salesPerson)
	if errors.Is(err, docstore.ErrNotFound) {
		return zeroRecord(salesPerson, month), err
	}
	if err != nil {
		return TargetRecord{}, fmt.Errorf("loading target record: %w", err)
	}
	return decode(d, month), nil
}

// ListMonth returns every record for month, ordered by salesperson.
func (l *Ledger) ListMonth(ctx context.Context, month string) ([]TargetRecord, error) {
	month = l.month(month)
	docs, err := l.store.GetAll(ctx, Path(month))
	if err != nil {
		return nil, fmt.Errorf("listing targets for %s: %w", month, err)
	}
	out := make([]TargetRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, decode(d, month))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SalesPerson < out[j].SalesPerson })
	return out, nil
}

func zeroRecord(salesPerson, month string) TargetRecord {
	return TargetRecord{
		SalesPerson:           salesPerson,
		Month:                 month,
		AmountCollectedTarget: decimal.Zero,
		AmountCollected:       decimal.Zero,
	}
}

func decode(d docstore.Document, month string) TargetRecord {
	name := d.String(FieldSalesPerson)
	if name == "" {
		name = d.ID()
	}
	r := zeroRecord(name, month)
	r.ConvertedLeadsTarget = money.Parse(d[FieldConvertedLeadsTarget]).IntPart()
	r.AmountCollectedTarget = money.Parse(d[FieldAmountCollectedTarget])
	r.AmountCollected = money.Parse(d[FieldAmountCollected])
	if t, ok := istime.Resolve(d[FieldUpdatedAt]); ok {
		r.UpdatedAt = t
	}
	return r
}
