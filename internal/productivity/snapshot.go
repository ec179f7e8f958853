package productivity

import (
	"github.com/ignite/settlement-desk/internal/docstore"
	"github.com/ignite/settlement-desk/internal/money"
)

// Snapshot fields. A snapshot is keyed by its ISO date and holds either a
// map of user name to stats or a list of stats carrying the user name.
const (
	fieldUsers           = "users"
	fieldUser            = "user"
	fieldLeadsWorked     = "leadsWorked"
	fieldStatusBreakdown = "statusBreakdown"
)

func (a *accumulator) addSnapshot(snap docstore.Document) {
	switch users := snap[fieldUsers].(type) {
	case map[string]any:
		for name, raw := range users {
			if stats, ok := raw.(map[string]any); ok {
				a.addUser(name, stats)
			}
		}
	case []any:
		for _, raw := range users {
			stats, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if name, _ := stats[fieldUser].(string); name != "" {
				a.addUser(name, stats)
			}
		}
	}
}

// addUser sums the day's counts into the running totals.
func (a *accumulator) addUser(name string, stats map[string]any) {
	u := a.user(name)
	u.LeadsWorked += count(stats[fieldLeadsWorked])
	if breakdown, ok := stats[fieldStatusBreakdown].(map[string]any); ok {
		for status, n := range breakdown {
			u.StatusBreakdown[status] += count(n)
		}
	}
}

func count(v any) int64 {
	return money.Parse(v).IntPart()
}
