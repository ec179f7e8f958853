package istime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday 2025-01-15 10:00 IST.
var fixedNow = time.Date(2025, 1, 15, 4, 30, 0, 0, time.UTC)

func newTestResolver() *Resolver {
	return NewResolver(DefaultOffsetMinutes, func() time.Time { return fixedNow })
}

func istDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, IST()).UTC()
}

func TestPreset(t *testing.T) {
	r := newTestResolver()

	tests := []struct {
		name      string
		wantStart time.Time
		wantEnd   time.Time // start of the last day
		days      int
	}{
		{Today, istDate(2025, 1, 15), istDate(2025, 1, 15), 1},
		{Yesterday, istDate(2025, 1, 14), istDate(2025, 1, 14), 1},
		{Last7Days, istDate(2025, 1, 9), istDate(2025, 1, 15), 7},
		{Last30Days, istDate(2024, 12, 17), istDate(2025, 1, 15), 30},
		{Last60Days, istDate(2024, 11, 17), istDate(2025, 1, 15), 60},
		{Last90Days, istDate(2024, 10, 18), istDate(2025, 1, 15), 90},
		{ThisWeek, istDate(2025, 1, 13), istDate(2025, 1, 15), 3},
		{ThisMonth, istDate(2025, 1, 1), istDate(2025, 1, 15), 15},
		{LastMonth, istDate(2024, 12, 1), istDate(2024, 12, 31), 31},
		{ThisYear, istDate(2025, 1, 1), istDate(2025, 1, 15), 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng, err := r.Preset(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, rng.Start)
			assert.Equal(t, tt.wantEnd.Add(lastMilli), rng.End)
			assert.Equal(t, tt.days, rng.Days())
			assert.True(t, rng.Contains(rng.Start))
			assert.True(t, rng.Contains(rng.End))
		})
	}
}

func TestPreset_Unknown(t *testing.T) {
	_, err := newTestResolver().Preset("fortnight")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestPastDays(t *testing.T) {
	rng := newTestResolver().PastDays(Last7Days, 7)
	keys := rng.DayKeys()
	require.Len(t, keys, 7)
	assert.Equal(t, "2025-01-08", keys[0])
	assert.Equal(t, "2025-01-14", keys[6])
	assert.False(t, rng.Contains(fixedNow))
}

func TestMonthKey(t *testing.T) {
	r := newTestResolver()
	assert.Equal(t, "Jan_2025", r.CurrentMonth())

	// 20:00 UTC on Jan 31 is already Feb 1 in IST.
	assert.Equal(t, "Feb_2025", r.MonthKey(time.Date(2025, 1, 31, 20, 0, 0, 0, time.UTC)))
}

func TestZoneLabel(t *testing.T) {
	assert.Equal(t, IST(), Zone(330))
	_, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, Zone(-150)).Zone()
	assert.Equal(t, -150*60, offset)
}
