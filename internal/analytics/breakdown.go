package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/spec-kit/complaint-analytics/internal/domain"
)

const day = 24 * time.Hour

// GroupStats is a per-ward or per-type breakdown row.
//
// ResolutionScore is resolved/total, a throughput ratio. It is not the
// deadline-based compliance rate and must not be reported as one.
type GroupStats struct {
	Key               string
	Label             string
	Total             int
	Resolved          int
	AvgResolutionDays float64
	ResolutionScore   float64
}

type groupAcc struct {
	key, label string
	total      int
	resolved   int
	sumDays    int64
}

func (a *groupAcc) add(c *domain.Complaint, window *Window) {
	a.total++
	if c.IsFinished() && window.ContainsPtr(c.ClosedOn) {
		a.resolved++
		a.sumDays += int64(ResolutionDays(c))
	}
}

func (a *groupAcc) stats() GroupStats {
	return GroupStats{
		Key:               a.key,
		Label:             a.label,
		Total:             a.total,
		Resolved:          a.resolved,
		AvgResolutionDays: Ratio1(a.sumDays, int64(a.resolved)),
		ResolutionScore:   Percent(a.resolved, a.total),
	}
}

// ResolutionDays is the whole number of days (rounded up) a complaint took to close.
func ResolutionDays(c *domain.Complaint) int {
	d, ok := c.ResolutionTime()
	if !ok || d <= 0 {
		return 0
	}
	return int((d + day - 1) / day)
}

// AverageResolutionDays averages ResolutionDays over finished complaints closed in
// window, one decimal.
func AverageResolutionDays(complaints []domain.Complaint, window *Window) float64 {
	var sum, n int64
	for i := range complaints {
		c := &complaints[i]
		if c.IsFinished() && window.ContainsPtr(c.ClosedOn) {
			sum += int64(ResolutionDays(c))
			n++
		}
	}
	return Ratio1(sum, n)
}

// BreakdownByWard groups complaints submitted in window by ward. Every ward in
// wards is listed even without complaints; unknown ward ids get their own row.
func BreakdownByWard(complaints []domain.Complaint, wards []domain.Ward, window *Window) []GroupStats {
	groups := make(map[string]*groupAcc, len(wards))
	for _, w := range wards {
		groups[w.ID] = &groupAcc{key: w.ID, label: w.Name}
	}
	for i := range complaints {
		c := &complaints[i]
		if !window.Contains(c.SubmittedOn) || c.WardID == "" {
			continue
		}
		g, ok := groups[c.WardID]
		if !ok {
			g = &groupAcc{key: c.WardID, label: c.WardID}
			groups[c.WardID] = g
		}
		g.add(c, window)
	}

	out := collect(groups)
	sort.SliceStable(out, func(i, j int) bool { return lessLabel(out[i].Label, out[i].Key, out[j].Label, out[j].Key) })
	return out
}

// BreakdownByCategory groups complaints submitted in window by complaint type,
// densest type first.
func BreakdownByCategory(complaints []domain.Complaint, rules *RuleSet, window *Window) []GroupStats {
	groups := make(map[string]*groupAcc)
	for i := range complaints {
		c := &complaints[i]
		if !window.Contains(c.SubmittedOn) {
			continue
		}
		key := rules.Canonical(c.Type)
		g, ok := groups[key]
		if !ok {
			g = &groupAcc{key: key, label: rules.Label(c.Type)}
			groups[key] = g
		}
		g.add(c, window)
	}

	out := collect(groups)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return lessLabel(out[i].Label, out[i].Key, out[j].Label, out[j].Key)
	})
	return out
}

func collect(groups map[string]*groupAcc) []GroupStats {
	out := make([]GroupStats, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.stats())
	}
	return out
}

func lessLabel(labelA, keyA, labelB, keyB string) bool {
	a, b := strings.ToLower(labelA), strings.ToLower(labelB)
	if a != b {
		return a < b
	}
	return keyA < keyB
}
