// Package productivity reports how many leads each salesperson worked
// over a window. Today is computed live from the leads collection; past
// windows sum the daily snapshot documents written by the nightly job.
package productivity

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ignite/settlement-desk/internal/aggregate"
	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/ignite/settlement-desk/internal/istime"
	"github.com/ignite/settlement-desk/internal/pkg/logger"
	"github.com/ignite/settlement-desk/internal/records"
	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedRange is returned for ranges other than the four below.
var ErrUnsupportedRange = errors.New("unsupported productivity range")

// Historical windows and their nominal lengths in days.
var windows = map[string]int{
	istime.Yesterday:  1,
	istime.Last7Days:  7,
	istime.Last30Days: 30,
}

// Ranges lists the accepted range names.
var Ranges = []string{istime.Today, istime.Yesterday, istime.Last7Days, istime.Last30Days}

// maxConcurrentReads bounds snapshot fetches for one request.
const maxConcurrentReads = 8

// UserStat is one salesperson's activity over the window.
type UserStat struct {
	User            string           `json:"user"`
	LeadsWorked     int64            `json:"leadsWorked"`
	StatusBreakdown map[string]int64 `json:"statusBreakdown"`
	AveragePerDay   float64          `json:"averageLeadsPerDay"`
}

// Report is the productivity view for one range.
type Report struct {
	Range         istime.Range `json:"range"`
	Days          int          `json:"days"`
	Live          bool         `json:"live"`
	TotalLeads    int64        `json:"totalLeads"`
	AveragePerDay float64      `json:"averageLeadsPerDay"`
	MissingDays   []string     `json:"missingDays,omitempty"`
	Users         []UserStat   `json:"users"`
}

// Reader builds productivity reports.
type Reader struct {
	store docstore.Store
	clock *istime.Resolver
}

// NewReader creates a reader over store using clock for day boundaries.
func NewReader(store docstore.Store, clock *istime.Resolver) *Reader {
	return &Reader{store: store, clock: clock}
}

// Read returns the report for a named range.
func (r *Reader) Read(ctx context.Context, rangeName string) (*Report, error) {
	if rangeName == istime.Today {
		return r.live(ctx)
	}
	days, ok := windows[rangeName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedRange, rangeName)
	}
	return r.historical(ctx, rangeName, days)
}

func (r *Reader) live(ctx context.Context) (*Report, error) {
	rng, err := r.clock.Preset(istime.Today)
	if err != nil {
		return nil, err
	}

	leads, err := r.store.GetAll(ctx, records.Leads)
	if err != nil {
		return nil, fmt.Errorf("loading leads: %w", err)
	}

	var worked []docstore.Document
	for _, l := range leads {
		if records.LeadStatusOf(l) != "" {
			worked = append(worked, l)
		}
	}

	agg := aggregate.Aggregator{
		Moment:    aggregate.MomentOf(records.LeadModified...),
		Owner:     aggregate.FirstField(records.LeadOwner...),
		Window:    &rng,
		Breakdown: records.LeadStatusOf,
	}
	res := agg.Aggregate(worked, []aggregate.Dimension{aggregate.FirstField(records.LeadOwner...)}, nil)

	acc := newAccumulator()
	for _, b := range res.Buckets {
		user := acc.user(b.Key[0])
		user.LeadsWorked += int64(b.Count)
		for status, n := range b.Breakdown {
			user.StatusBreakdown[status] += int64(n)
		}
	}
	return acc.report(rng, 1, true), nil
}

func (r *Reader) historical(ctx context.Context, name string, days int) (*Report, error) {
	rng := r.clock.PastDays(name, days)
	keys := rng.DayKeys()

	snaps := make([]docstore.Document, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)
	for i, key := range keys {
		g.Go(func() error {
			d, err := r.store.Get(gctx, records.Snapshots, key)
			if errors.Is(err, docstore.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("loading snapshot %s: %w", key, err)
			}
			snaps[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	acc := newAccumulator()
	var missing []string
	for i, snap := range snaps {
		if snap == nil {
			missing = append(missing, keys[i])
			continue
		}
		acc.addSnapshot(snap)
	}
	if len(missing) > 0 {
		logger.Debug("productivity snapshots missing", "range", name, "missing", len(missing), "days", days)
	}

	rep := acc.report(rng, days, false)
	rep.MissingDays = missing
	return rep, nil
}

type accumulator struct {
	users map[string]*UserStat
}

func newAccumulator() *accumulator {
	return &accumulator{users: make(map[string]*UserStat)}
}

func (a *accumulator) user(name string) *UserStat {
	u, ok := a.users[name]
	if !ok {
		u = &UserStat{User: name, StatusBreakdown: make(map[string]int64)}
		a.users[name] = u
	}
	return u
}

// report divides by the nominal window length, not by the number of
// days that had data.
func (a *accumulator) report(rng istime.Range, days int, live bool) *Report {
	rep := &Report{Range: rng, Days: days, Live: live, Users: make([]UserStat, 0, len(a.users))}
	for _, u := range a.users {
		u.AveragePerDay = float64(u.LeadsWorked) / float64(days)
		rep.TotalLeads += u.LeadsWorked
		rep.Users = append(rep.Users, *u)
	}
	rep.AveragePerDay = float64(rep.TotalLeads) / float64(days)

	sort.Slice(rep.Users, func(i, j int) bool {
		if rep.Users[i].LeadsWorked != rep.Users[j].LeadsWorked {
			return rep.Users[i].LeadsWorked > rep.Users[j].LeadsWorked
		}
		return rep.Users[i].User < rep.Users[j].User
	})
	return rep
}
