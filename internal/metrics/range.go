package metrics

import "time"

// Date-range filters accepted by the dashboard.
const (
	FilterToday     = "today"
	FilterYesterday = "yesterday"
	FilterWeek      = "week"
	FilterMonth     = "month"
	FilterAll       = "all"
)

// DefaultEpoch is the start of the "all" range when none is configured.
var DefaultEpoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// Range is an inclusive time window.
type Range struct {
	Filter string    `json:"filter"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// ResolveRange maps filter to a window in loc. Unknown filters resolve to today.
func ResolveRange(filter string, now time.Time, loc *time.Location, epoch time.Time) Range {
	if loc == nil {
		loc = time.UTC
	}
	if epoch.IsZero() {
		epoch = DefaultEpoch
	}
	now = now.In(loc)
	switch filter {
	case FilterYesterday:
		start := startOfDay(now.AddDate(0, 0, -1))
		end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
		return Range{Filter: filter, Start: start, End: end}
	case FilterWeek:
		return Range{Filter: filter, Start: startOfDay(now.AddDate(0, 0, -7)), End: now}
	case FilterMonth:
		return Range{Filter: filter, Start: startOfDay(now.AddDate(0, -1, 0)), End: now}
	case FilterAll:
		return Range{Filter: filter, Start: epoch.In(loc), End: now}
	default:
		return Range{Filter: FilterToday, Start: startOfDay(now), End: now}
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
