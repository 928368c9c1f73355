package analytics

import (
	"time"

	"github.com/spec-kit/complaint-analytics/internal/domain"
)

// Totals are the headline complaint counts of a report.
type Totals struct {
	Total    int
	Resolved int
	Pending  int
	Overdue  int
}

// ComputeTotals counts complaints submitted in window (total, pending, overdue)
// and finished complaints closed in window (resolved).
func ComputeTotals(complaints []domain.Complaint, rules *RuleSet, window *Window, now time.Time) Totals {
	var t Totals
	for i := range complaints {
		c := &complaints[i]
		if c.IsFinished() && window.ContainsPtr(c.ClosedOn) {
			t.Resolved++
		}
		if !window.Contains(c.SubmittedOn) {
			continue
		}
		t.Total++
		if c.IsFinished() {
			continue
		}
		t.Pending++
		if IsOverdue(c, rules, now) {
			t.Overdue++
		}
	}
	return t
}

// IsOverdue reports an unfinished complaint past its deadline. Without an explicit
// deadline the SLA-derived one is used; without either it is never overdue.
func IsOverdue(c *domain.Complaint, rules *RuleSet, now time.Time) bool {
	if c.IsFinished() {
		return false
	}
	if c.Deadline != nil {
		return now.After(*c.Deadline)
	}
	hours, ok := rules.Hours(c.Type)
	if !ok {
		return false
	}
	return now.After(c.SubmittedOn.Add(time.Duration(hours) * time.Hour))
}

// CountByStatus counts complaints submitted in window per status, every status
// present with zero when absent.
func CountByStatus(complaints []domain.Complaint, window *Window) map[domain.ComplaintStatus]int {
	counts := make(map[domain.ComplaintStatus]int, len(domain.AllComplaintStatuses))
	for _, status := range domain.AllComplaintStatuses {
		counts[status] = 0
	}
	for i := range complaints {
		if window.Contains(complaints[i].SubmittedOn) {
			counts[complaints[i].Status]++
		}
	}
	return counts
}

// SubmittedWithin keeps complaints submitted in window.
func SubmittedWithin(complaints []domain.Complaint, window *Window) []domain.Complaint {
	if window == nil {
		return complaints
	}
	out := make([]domain.Complaint, 0, len(complaints))
	for _, c := range complaints {
		if window.Contains(c.SubmittedOn) {
			out = append(out, c)
		}
	}
	return out
}

// DayActivity counts complaints submitted and closed inside day.
type DayActivity struct {
	Submitted int
	Closed    int
}

// ActivityWithin counts submissions and closures in window.
func ActivityWithin(complaints []domain.Complaint, window *Window) DayActivity {
	var a DayActivity
	for i := range complaints {
		c := &complaints[i]
		if window.Contains(c.SubmittedOn) {
			a.Submitted++
		}
		if c.IsFinished() && window.ContainsPtr(c.ClosedOn) {
			a.Closed++
		}
	}
	return a
}
