package payments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/ignite/settlement-desk/internal/istime"
	"github.com/ignite/settlement-desk/internal/ledger"
	"github.com/ignite/settlement-desk/internal/pkg/distlock"
	"github.com/ignite/settlement-desk/internal/pkg/logger"
	"github.com/ignite/settlement-desk/internal/records"
	"github.com/shopspring/decimal"
)

// Service implements the payment request lifecycle. Every mutation of an
// existing request runs under a per-request lock, so two operators can't
// approve or edit the same request at once.
type Service struct {
	store  docstore.Store
	ledger *ledger.Ledger
	locks  distlock.Factory
	clock  *istime.Resolver
}

// NewService creates a payment service.
func NewService(store docstore.Store, l *ledger.Ledger, locks distlock.Factory, clock *istime.Resolver) *Service {
	return &Service{store: store, ledger: l, locks: locks, clock: clock}
}

func lockKey(id string) string { return "payment:" + id }

// guard runs fn under the request's lock, mapping contention to ErrBusy.
func (s *Service) guard(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	err := s.locks.Do(ctx, lockKey(id), fn)
	if errors.Is(err, distlock.ErrNotAcquired) {
		return ErrBusy
	}
	return err
}

// Get returns one request.
func (s *Service) Get(ctx context.Context, id string) (*Payment, error) {
	d, err := s.store.Get(ctx, records.Payments, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading payment request: %w", err)
	}
	return fromDocument(d), nil
}

// List returns requests with the given status, or all of them when status
// is empty, newest first.
func (s *Service) List(ctx context.Context, status Status) ([]*Payment, error) {
	var docs []docstore.Document
	var err error
	if status == "" {
		docs, err = s.store.GetAll(ctx, records.Payments)
	} else {
		docs, err = s.store.GetWhere(ctx, records.Payments, fieldStatus, string(status))
	}
	if err != nil {
		return nil, fmt.Errorf("listing payment requests: %w", err)
	}

	out := make([]*Payment, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDocument(d))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Create stores a new pending request.
func (s *Service) Create(ctx context.Context, in NewPayment) (*Payment, error) {
	if strings.TrimSpace(in.SalesPersonName) == "" {
		return nil, ErrNoSalesPerson
	}
	if in.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, in.Amount)
	}

	id := uuid.New().String()
	now := s.clock.Now()
	doc := docstore.Document{
		fieldAmount:      in.Amount,
		fieldStatus:      string(StatusPending),
		fieldSalesPerson: strings.TrimSpace(in.SalesPersonName),
		fieldSource:      in.Source,
		fieldClientName:  in.ClientName,
		fieldNotes:       in.Notes,
		fieldCreatedBy:   in.CreatedBy,
		fieldTimestamp:   stamp(now),
	}
	if err := s.store.Upsert(ctx, records.Payments, id, doc); err != nil {
		return nil, fmt.Errorf("saving payment request: %w", err)
	}
	logger.Info("payment request created", "id", id, "sales_person", in.SalesPersonName, "amount", in.Amount.String())

	doc["id"] = id
	return fromDocument(doc), nil
}

// Approve moves a pending request to approved and credits the amount to
// the salesperson's current month.
func (s *Service) Approve(ctx context.Context, id, approvedBy string) (*Payment, error) {
	var out *Payment
	err := s.guard(ctx, id, func(ctx context.Context) error {
		p, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if p.Status != StatusPending {
			return fmt.Errorf("%w: %s", ErrNotPending, p.Status)
		}
		if err := ledgerReady(p); err != nil {
			return err
		}

		// Credit first: a failed credit leaves the request pending so the
		// approval can be retried.
		month := s.ledger.CurrentMonth()
		if err := s.ledger.ApplyApproval(ctx, p.SalesPersonName, p.Amount, month); err != nil {
			return err
		}
		now := s.clock.Now()
		if err := s.store.Upsert(ctx, records.Payments, id, docstore.Document{
			fieldStatus:     string(StatusApproved),
			fieldApprovedBy: approvedBy,
			fieldApprovedAt: stamp(now),
		}); err != nil {
			if rerr := s.ledger.ApplyDeletion(ctx, p.SalesPersonName, true, p.Amount, month); rerr != nil {
				logger.Error("failed to reverse approval credit", "id", id, "sales_person", p.SalesPersonName, "error", rerr)
			}
			return fmt.Errorf("approving payment request: %w", err)
		}

		p.Status = StatusApproved
		p.ApprovedBy = approvedBy
		p.ApprovedAt = &now
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("payment request approved", "id", id, "approved_by", approvedBy)
	return out, nil
}

// Edit changes a request's amount. For approved requests the difference is
// applied to the salesperson's current month.
func (s *Service) Edit(ctx context.Context, id string, amount decimal.Decimal, editedBy string) (*Payment, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	var out *Payment
	err := s.guard(ctx, id, func(ctx context.Context) error {
		p, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if p.Approved() {
			if err := ledgerReady(p); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		if err := s.store.Upsert(ctx, records.Payments, id, docstore.Document{
			fieldAmount:   amount,
			fieldEditedBy: editedBy,
			fieldEditedAt: stamp(now),
		}); err != nil {
			return fmt.Errorf("editing payment request: %w", err)
		}
		if err := s.ledger.ApplyEdit(ctx, p.SalesPersonName, p.Approved(), p.Amount, amount, s.ledger.CurrentMonth()); err != nil {
			// The next edit derives its delta from the stored amount, so
			// it must match what the ledger has counted.
			if rerr := s.store.Upsert(ctx, records.Payments, id, docstore.Document{fieldAmount: p.Amount}); rerr != nil {
				logger.Error("failed to restore payment amount", "id", id, "error", rerr)
			}
			return err
		}

		p.Amount = amount
		p.EditedBy = editedBy
		p.EditedAt = &now
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("payment request edited", "id", id, "edited_by", editedBy, "amount", amount.String())
	return out, nil
}

// Delete removes a request. Deleting an approved request takes its amount
// back out of the salesperson's current month.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.guard(ctx, id, func(ctx context.Context) error {
		p, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if p.Approved() {
			if err := ledgerReady(p); err != nil {
				return err
			}
		}
		if err := s.store.Delete(ctx, records.Payments, id); err != nil {
			return fmt.Errorf("deleting payment request: %w", err)
		}
		if err := s.ledger.ApplyDeletion(ctx, p.SalesPersonName, p.Approved(), p.Amount, s.ledger.CurrentMonth()); err != nil {
			return err
		}
		logger.Info("payment request deleted", "id", id, "was_approved", p.Approved())
		return nil
	})
}

// ledgerReady rejects requests the ledger can't account for, before
// anything is written.
func ledgerReady(p *Payment) error {
	if strings.TrimSpace(p.SalesPersonName) == "" {
		return ErrNoSalesPerson
	}
	if p.Amount.IsNegative() {
		return fmt.Errorf("%w: stored amount %s", ErrInvalidAmount, p.Amount)
	}
	return nil
}
