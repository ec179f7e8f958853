// Package istime resolves the mixed timestamp shapes found in stored
// documents and computes calendar-day boundaries in the reporting zone.
//
// Day boundaries are computed in the reporting zone (IST by default) and
// converted back to UTC for range comparisons; bucketing on UTC midnight
// would push evening IST records into the next day.
package istime

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/settlement-desk/internal/pkg/logger"
)

// DefaultOffsetMinutes is IST, UTC+5:30.
const DefaultOffsetMinutes = 330

// Timestamp is implemented by store-native timestamp values that can
// convert themselves (protobuf timestamps, driver types).
type Timestamp interface {
	AsTime() time.Time
}

// Zone returns a fixed zone for the given UTC offset.
func Zone(offsetMinutes int) *time.Location {
	if offsetMinutes == DefaultOffsetMinutes {
		return ist
	}
	return time.FixedZone("UTC"+offsetLabel(offsetMinutes), offsetMinutes*60)
}

var ist = time.FixedZone("IST", DefaultOffsetMinutes*60)

// IST is the default reporting zone.
func IST() *time.Location { return ist }

func offsetLabel(minutes int) string {
	sign := "+"
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return sign + strconv.Itoa(minutes/60) + ":" + strconv.Itoa(minutes%60/10) + strconv.Itoa(minutes%10)
}

// Resolve converts a stored timestamp into an instant. Supported shapes:
// epoch milliseconds (any numeric type or digit-only string), ISO-8601
// strings, time.Time, Timestamp implementations and the JSON form of a
// store timestamp object ({"seconds": s, "nanoseconds": n}).
//
// Values without a usable shape report false; they never error, so the
// caller can drop the record from aggregation.
func Resolve(raw any) (time.Time, bool) {
	t, ok := resolve(raw)
	if !ok && raw != nil {
		logger.Debug("unresolvable timestamp", "type", typeName(raw), "value", raw)
	}
	return t, ok
}

func resolve(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, !v.IsZero()
	case Timestamp:
		t := v.AsTime()
		return t, !t.IsZero()
	case int:
		return fromMillis(float64(v))
	case int32:
		return fromMillis(float64(v))
	case int64:
		return fromMillis(float64(v))
	case uint64:
		return fromMillis(float64(v))
	case float64:
		return fromMillis(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromMillis(f)
	case string:
		return parseString(v)
	case map[string]any:
		return fromObject(v)
	default:
		return time.Time{}, false
	}
}

func fromMillis(ms float64) (time.Time, bool) {
	if ms <= 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).UTC(), true
}

// ISO layouts tried in order. Layouts without an offset are read in the
// reporting zone, matching how the intake forms wrote them.
var isoLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05Z0700", true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02", false},
}

func parseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if isDigits(s) {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return fromMillis(float64(ms))
	}
	for _, l := range isoLayouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.layout, s)
		} else {
			t, err = time.ParseInLocation(l.layout, s, ist)
		}
		if err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func fromObject(m map[string]any) (time.Time, bool) {
	secs, ok := number(m, "seconds", "_seconds")
	if !ok {
		return time.Time{}, false
	}
	nanos, _ := number(m, "nanoseconds", "_nanoseconds")
	if secs <= 0 {
		return time.Time{}, false
	}
	return time.Unix(int64(secs), int64(nanos)).UTC(), true
}

func number(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v, true
		case int64:
			return float64(v), true
		case int:
			return float64(v), true
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case map[string]any:
		return "object"
	default:
		return "other"
	}
}
