package analytics

import (
	"github.com/spec-kit/complaint-analytics/internal/domain"
)

// TrendBucket aggregates one calendar day.
type TrendBucket struct {
	Date          string
	Submitted     int
	Resolved      int
	Eligible      int
	Compliant     int
	CompliancePct float64
}

// BuildTrend produces one bucket per day of r, zero-filled, in date order.
// Resolved counts only CLOSED complaints; each contributes to compliance when its
// type resolves an SLA.
func BuildTrend(complaints []domain.Complaint, rules *RuleSet, r DateRange) []TrendBucket {
	days := r.Days()
	buckets := make([]TrendBucket, len(days))
	index := make(map[string]int, len(days))
	for i, day := range days {
		key := DayKey(day, r.Location)
		buckets[i].Date = key
		index[key] = i
	}

	for i := range complaints {
		c := &complaints[i]
		if pos, ok := index[DayKey(c.SubmittedOn, r.Location)]; ok {
			buckets[pos].Submitted++
		}
		if c.Status != domain.ComplaintStatusClosed || c.ClosedOn == nil {
			continue
		}
		pos, ok := index[DayKey(*c.ClosedOn, r.Location)]
		if !ok {
			continue
		}
		buckets[pos].Resolved++
		switch Evaluate(c, rules) {
		case VerdictCompliant:
			buckets[pos].Eligible++
			buckets[pos].Compliant++
		case VerdictBreached:
			buckets[pos].Eligible++
		}
	}

	for i := range buckets {
		buckets[i].CompliancePct = Percent(buckets[i].Compliant, buckets[i].Eligible)
	}
	return buckets
}
