// Package analytics holds the pure aggregation engine: scope predicates, SLA rule
// resolution, compliance, trends, breakdowns, heatmaps and export rows. Nothing here
// touches persistence; callers load a ledger slice once and hand it to every
// aggregator so that all derived numbers agree.
package analytics

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Window is a half-open instant range [From, To). A nil *Window matches everything.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the window.
func (w *Window) Contains(t time.Time) bool {
	if w == nil {
		return true
	}
	return !t.Before(w.From) && t.Before(w.To)
}

// ContainsPtr is Contains for nullable timestamps; nil never matches.
func (w *Window) ContainsPtr(t *time.Time) bool {
	return t != nil && w.Contains(*t)
}

// Union returns the smallest window covering both. Nil absorbs.
func (w *Window) Union(other *Window) *Window {
	if w == nil || other == nil {
		return nil
	}
	out := *w
	if other.From.Before(out.From) {
		out.From = other.From
	}
	if other.To.After(out.To) {
		out.To = other.To
	}
	return &out
}

// DateRange is an inclusive range of calendar days in a reporting location.
// From and To are midnights in Location.
type DateRange struct {
	From     time.Time
	To       time.Time
	Location *time.Location
}

// NewDateRange normalizes both ends to midnight in loc and rejects inverted ranges.
func NewDateRange(from, to time.Time, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	r := DateRange{From: startOfDay(from, loc), To: startOfDay(to, loc), Location: loc}
	if r.From.After(r.To) {
		return DateRange{}, fmt.Errorf("from %s is after to %s", r.From.Format(dateLayout), r.To.Format(dateLayout))
	}
	return r, nil
}

// ParseDateRange parses YYYY-MM-DD bounds in loc.
func ParseDateRange(from, to string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	f, err := time.ParseInLocation(dateLayout, from, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid from date %q", from)
	}
	t, err := time.ParseInLocation(dateLayout, to, loc)
	if err != nil {
		return DateRange{}, fmt.Errorf("invalid to date %q", to)
	}
	return NewDateRange(f, t, loc)
}

// LastNDays is the range of n calendar days ending on the day containing now.
func LastNDays(now time.Time, n int, loc *time.Location) DateRange {
	if n <= 0 {
		n = 1
	}
	if loc == nil {
		loc = time.UTC
	}
	today := startOfDay(now, loc)
	return DateRange{From: today.AddDate(0, 0, -(n - 1)), To: today, Location: loc}
}

// Window converts the inclusive day range into an instant window.
func (r DateRange) Window() *Window {
	return &Window{From: r.From, To: r.To.AddDate(0, 0, 1)}
}

// Days lists every calendar day of the range in order.
func (r DateRange) Days() []time.Time {
	var days []time.Time
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Len is the number of calendar days in the range.
func (r DateRange) Len() int {
	from := time.Date(r.From.Year(), r.From.Month(), r.From.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(r.To.Year(), r.To.Month(), r.To.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from)/(24*time.Hour)) + 1
}

// DayKey formats t as its calendar date in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateLayout)
}

// Today is the single-day window containing now.
func Today(now time.Time, loc *time.Location) *Window {
	return LastNDays(now, 1, loc).Window()
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
