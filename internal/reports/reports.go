// Package reports builds the lead, client and payment dashboards from
// raw documents.
package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/settlement-desk/internal/aggregate"
	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/ignite/settlement-desk/internal/istime"
	"github.com/ignite/settlement-desk/internal/ledger"
	"github.com/ignite/settlement-desk/internal/normalize"
	"github.com/ignite/settlement-desk/internal/records"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Kind names a dashboard.
type Kind string

const (
	KindLeads    Kind = "leads"
	KindClients  Kind = "clients"
	KindPayments Kind = "payments"
)

// ErrUnknownKind is returned for dashboards that don't exist.
var ErrUnknownKind = errors.New("unknown report kind")

// Section is one breakdown of a report.
type Section struct {
	Name    string              `json:"name"`
	Columns []string            `json:"columns"`
	Buckets []*aggregate.Bucket `json:"buckets"`
}

// Report is a finished dashboard.
type Report struct {
	Kind        Kind            `json:"kind"`
	Range       *istime.Range   `json:"range,omitempty"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Total       int             `json:"total"`
	Excluded    int             `json:"excluded"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Sections    []Section       `json:"sections"`
	Targets     []TargetRow     `json:"targets,omitempty"`
}

// Section returns the named section, or nil.
func (r *Report) Section(name string) *Section {
	for i := range r.Sections {
		if r.Sections[i].Name == name {
			return &r.Sections[i]
		}
	}
	return nil
}

// TargetRow is one salesperson's month-to-date target progress.
type TargetRow struct {
	ledger.TargetRecord
	ProgressPercent float64 `json:"progressPercent"`
}

// Options tune list lengths.
type Options struct {
	TopCities     int
	TopStateBanks int
}

// Service builds dashboards.
type Service struct {
	store  docstore.Store
	ledger *ledger.Ledger
	clock  *istime.Resolver
	opts   Options
}

// NewService creates a report service.
func NewService(store docstore.Store, l *ledger.Ledger, clock *istime.Resolver, opts Options) *Service {
	if opts.TopCities <= 0 {
		opts.TopCities = 15
	}
	if opts.TopStateBanks <= 0 {
		opts.TopStateBanks = 20
	}
	return &Service{store: store, ledger: l, clock: clock, opts: opts}
}

// Build dispatches on kind. An empty preset means all time.
func (s *Service) Build(ctx context.Context, kind Kind, preset string) (*Report, error) {
	switch kind {
	case KindLeads:
		return s.Leads(ctx, preset)
	case KindClients:
		return s.Clients(ctx, preset)
	case KindPayments:
		return s.Payments(ctx, preset)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func (s *Service) window(preset string) (*istime.Range, error) {
	if preset == "" {
		return nil, nil
	}
	rng, err := s.clock.Preset(preset)
	if err != nil {
		return nil, err
	}
	return &rng, nil
}

func (s *Service) load(ctx context.Context, collection string) ([]docstore.Document, error) {
	docs, err := s.store.GetAll(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", collection, err)
	}
	return docs, nil
}

func (s *Service) newReport(kind Kind, rng *istime.Range) *Report {
	return &Report{Kind: kind, Range: rng, GeneratedAt: s.clock.Now(), TotalAmount: decimal.Zero}
}

// section aggregates one breakdown and orders it by count.
func section(agg aggregate.Aggregator, docs []docstore.Document, name string, columns []string, dims []aggregate.Dimension, amount aggregate.AmountFunc, top int) (Section, aggregate.Result) {
	res := agg.Aggregate(docs, dims, amount)
	aggregate.SortByCount(res.Buckets)
	return Section{Name: name, Columns: columns, Buckets: aggregate.Top(res.Buckets, top)}, res
}

// Leads reports lead volume by status, source and owner.
func (s *Service) Leads(ctx context.Context, preset string) (*Report, error) {
	rng, err := s.window(preset)
	if err != nil {
		return nil, err
	}
	docs, err := s.load(ctx, records.Leads)
	if err != nil {
		return nil, err
	}

	owner := aggregate.FirstField(records.LeadOwner...)
	status := func(d docstore.Document) string {
		if st := records.LeadStatusOf(d); st != "" {
			return st
		}
		return normalize.NoStatus
	}
	agg := aggregate.Aggregator{
		Moment: aggregate.MomentOf(records.LeadCreated...),
		Owner:  owner,
		Window: rng,
	}

	rep := s.newReport(KindLeads, rng)
	byStatus, res := section(agg, docs, "By Status", []string{"Status"}, []aggregate.Dimension{status}, nil, 0)
	bySource, _ := section(agg, docs, "By Source", []string{"Source"}, []aggregate.Dimension{aggregate.FirstField(records.LeadSource...)}, nil, 0)

	ownerAgg := agg
	ownerAgg.Breakdown = status
	byOwner, _ := section(ownerAgg, docs, "By Salesperson", []string{"Salesperson"}, []aggregate.Dimension{owner}, nil, 0)

	rep.Total, rep.Excluded = res.Total, res.Excluded
	rep.Sections = []Section{byStatus, bySource, byOwner}
	return rep, nil
}

// Clients reports the client book by geography, lender, occupation,
// advocate and income/age bracket, with outstanding amounts.
func (s *Service) Clients(ctx context.Context, preset string) (*Report, error) {
	rng, err := s.window(preset)
	if err != nil {
		return nil, err
	}
	docs, err := s.load(ctx, records.Clients)
	if err != nil {
		return nil, err
	}

	agg := aggregate.Aggregator{
		Moment: aggregate.MomentOf(records.ClientCreated...),
		Owner:  aggregate.FirstField(records.ClientOwner...),
		Window: rng,
	}
	amount := aggregate.Amount(records.ClientAmount...)
	field := func(aliases []string, fn func(string) string) aggregate.Dimension {
		return func(d docstore.Document) string { return fn(records.First(d, aliases)) }
	}
	state := field(records.ClientState, normalize.State)
	bank := field(records.ClientBank, normalize.Bank)

	rep := s.newReport(KindClients, rng)
	byStateBank, res := section(agg, docs, "By State and Bank", []string{"State", "Bank"},
		[]aggregate.Dimension{state, bank}, amount, s.opts.TopStateBanks)
	byCity, _ := section(agg, docs, "By City", []string{"City"},
		[]aggregate.Dimension{field(records.ClientCity, normalize.City)}, amount, s.opts.TopCities)
	byBank, _ := section(agg, docs, "By Bank", []string{"Bank"},
		[]aggregate.Dimension{bank}, amount, 0)
	byOccupation, _ := section(agg, docs, "By Occupation", []string{"Occupation"},
		[]aggregate.Dimension{field(records.ClientOccupation, normalize.Occupation)}, amount, 0)
	byAdvocate, _ := section(agg, docs, "By Advocate", []string{"Advocate"},
		[]aggregate.Dimension{aggregate.FirstField(records.ClientOwner...)}, amount, 0)
	byIncome, _ := section(agg, docs, "By Income", []string{"Monthly Income"},
		[]aggregate.Dimension{aggregate.Income(records.ClientIncome...)}, amount, 0)
	byAge, _ := section(agg, docs, "By Age", []string{"Age"},
		[]aggregate.Dimension{aggregate.Age(records.ClientAge...)}, amount, 0)

	rep.Total, rep.Excluded, rep.TotalAmount = res.Total, res.Excluded, res.Amount
	rep.Sections = []Section{byStateBank, byCity, byBank, byOccupation, byAdvocate, byIncome, byAge}
	return rep, nil
}

// Payments reports approved and pending totals and, for the current
// month, each salesperson's progress against target.
func (s *Service) Payments(ctx context.Context, preset string) (*Report, error) {
	rng, err := s.window(preset)
	if err != nil {
		return nil, err
	}

	var docs []docstore.Document
	var targets []ledger.TargetRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		docs, err = s.load(gctx, records.Payments)
		return err
	})
	g.Go(func() error {
		var err error
		targets, err = s.ledger.ListMonth(gctx, s.ledger.CurrentMonth())
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	agg := aggregate.Aggregator{
		Moment: aggregate.MomentOf(records.PaymentCreated...),
		Owner:  aggregate.FirstField(records.PaymentOwner...),
		Window: rng,
	}
	amount := aggregate.Amount(records.PaymentAmount...)
	status := func(d docstore.Document) string {
		if d.String("status") == "approved" {
			return "approved"
		}
		return "pending"
	}

	rep := s.newReport(KindPayments, rng)
	byStatus, res := section(agg, docs, "By Status", []string{"Status"}, []aggregate.Dimension{status}, amount, 0)

	bySalesperson := agg.Aggregate(docs, []aggregate.Dimension{aggregate.FirstField(records.PaymentOwner...)}, amount)
	aggregate.SortByAmount(bySalesperson.Buckets)
	bySource := agg.Aggregate(docs, []aggregate.Dimension{aggregate.FirstField(records.PaymentSource...)}, amount)
	aggregate.SortByAmount(bySource.Buckets)

	rep.Total, rep.Excluded, rep.TotalAmount = res.Total, res.Excluded, res.Amount
	rep.Sections = []Section{
		byStatus,
		{Name: "By Salesperson", Columns: []string{"Salesperson"}, Buckets: bySalesperson.Buckets},
		{Name: "By Source", Columns: []string{"Source"}, Buckets: bySource.Buckets},
	}
	for _, t := range targets {
		rep.Targets = append(rep.Targets, TargetRow{TargetRecord: t, ProgressPercent: t.Progress()})
	}
	return rep, nil
}
