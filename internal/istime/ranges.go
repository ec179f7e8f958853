package istime

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownPreset is returned for a preset name the resolver doesn't know.
var ErrUnknownPreset = errors.New("unknown date preset")

// Preset names accepted by Resolver.Preset.
const (
	Today      = "today"
	Yesterday  = "yesterday"
	Last7Days  = "last7days"
	Last30Days = "last30days"
	ThisWeek   = "thisWeek"
	ThisMonth  = "thisMonth"
	LastMonth  = "lastMonth"
	Last60Days = "last60Days"
	Last90Days = "last90Days"
	ThisYear   = "thisYear"
)

// Presets lists every preset name in display order.
var Presets = []string{
	Today, Yesterday, Last7Days, Last30Days, ThisWeek,
	ThisMonth, LastMonth, Last60Days, Last90Days, ThisYear,
}

const lastMilli = 24*time.Hour - time.Millisecond

// Range is an inclusive UTC instant range covering whole days in the zone
// it was built for.
type Range struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	zone  *time.Location
}

// Contains reports whether t falls inside the range, both ends inclusive.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// DayKeys returns the zone-local ISO date of every calendar day in the
// range, oldest first.
func (r Range) DayKeys() []string {
	zone := r.zone
	if zone == nil {
		zone = ist
	}
	var keys []string
	for d := r.Start.In(zone); !d.After(r.End); d = d.AddDate(0, 0, 1) {
		keys = append(keys, d.Format("2006-01-02"))
	}
	return keys
}

// Days returns the number of calendar days the range covers.
func (r Range) Days() int {
	return len(r.DayKeys())
}

// Resolver computes zone-correct day boundaries relative to a clock.
type Resolver struct {
	zone *time.Location
	now  func() time.Time
}

// NewResolver builds a resolver for the given UTC offset. A nil clock
// means time.Now.
func NewResolver(offsetMinutes int, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{zone: Zone(offsetMinutes), now: now}
}

// Zone returns the reporting zone.
func (r *Resolver) Zone() *time.Location { return r.zone }

// Now returns the resolver's current instant.
func (r *Resolver) Now() time.Time { return r.now() }

// DayRange returns the first and last millisecond, in UTC, of the
// calendar day ref falls on in the resolver's zone.
func (r *Resolver) DayRange(ref time.Time) (time.Time, time.Time) {
	start := r.startOfDay(ref)
	return start.UTC(), start.Add(lastMilli).UTC()
}

// DayRange is Resolver.DayRange for a one-off offset.
func DayRange(ref time.Time, offsetMinutes int) (time.Time, time.Time) {
	return NewResolver(offsetMinutes, nil).DayRange(ref)
}

func (r *Resolver) startOfDay(t time.Time) time.Time {
	local := t.In(r.zone)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.zone)
}

// span covers whole days from the day of from through the day of to.
func (r *Resolver) span(name string, from, to time.Time) Range {
	start := r.startOfDay(from)
	end := r.startOfDay(to).Add(lastMilli)
	return Range{Name: name, Start: start.UTC(), End: end.UTC(), zone: r.zone}
}

// Preset computes a named range from the resolver's clock. Rolling
// windows (lastNdays) include today and the preceding N-1 days.
func (r *Resolver) Preset(name string) (Range, error) {
	now := r.now().In(r.zone)
	today := r.startOfDay(now)

	switch name {
	case Today:
		return r.span(name, today, today), nil
	case Yesterday:
		y := today.AddDate(0, 0, -1)
		return r.span(name, y, y), nil
	case Last7Days:
		return r.span(name, today.AddDate(0, 0, -6), today), nil
	case Last30Days:
		return r.span(name, today.AddDate(0, 0, -29), today), nil
	case Last60Days:
		return r.span(name, today.AddDate(0, 0, -59), today), nil
	case Last90Days:
		return r.span(name, today.AddDate(0, 0, -89), today), nil
	case ThisWeek:
		weekday := int(today.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return r.span(name, today.AddDate(0, 0, -(weekday-1)), today), nil
	case ThisMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, r.zone)
		return r.span(name, first, today), nil
	case LastMonth:
		firstOfThis := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, r.zone)
		firstOfPrev := firstOfThis.AddDate(0, -1, 0)
		return r.span(name, firstOfPrev, firstOfThis.AddDate(0, 0, -1)), nil
	case ThisYear:
		first := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, r.zone)
		return r.span(name, first, today), nil
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
}

// PastDays returns the n whole days ending yesterday. Daily snapshots only
// exist for days strictly before today, so historical windows use this
// instead of the today-inclusive presets.
func (r *Resolver) PastDays(name string, n int) Range {
	today := r.startOfDay(r.now())
	return r.span(name, today.AddDate(0, 0, -n), today.AddDate(0, 0, -1))
}

// MonthKey formats the month t falls in, in the resolver's zone, as the
// ledger's document key: three-letter month, underscore, four-digit year.
func (r *Resolver) MonthKey(t time.Time) string {
	return MonthKey(t, r.zone)
}

// CurrentMonth is MonthKey of the resolver's clock.
func (r *Resolver) CurrentMonth() string {
	return r.MonthKey(r.now())
}

// MonthKey formats t as "Jan_2025" in zone.
func MonthKey(t time.Time, zone *time.Location) string {
	return t.In(zone).Format("Jan_2006")
}
