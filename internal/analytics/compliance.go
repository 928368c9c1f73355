package analytics

import (
	"math"
	"time"

	"github.com/spec-kit/complaint-analytics/internal/domain"
)

// Verdict is the SLA outcome of a single complaint.
type Verdict string

const (
	VerdictOpen      Verdict = "OPEN"
	VerdictNoSLA     Verdict = "NO_SLA"
	VerdictCompliant Verdict = "COMPLIANT"
	VerdictBreached  Verdict = "BREACHED"
)

// ComplianceStats is the canonical deadline-based compliance figure.
type ComplianceStats struct {
	Eligible  int
	Compliant int
	Rate      float64
}

// WithinSLA is the single compliance rule: closed no later than submitted + slaHours.
func WithinSLA(submittedOn, closedOn time.Time, slaHours int) bool {
	deadline := submittedOn.Add(time.Duration(slaHours) * time.Hour)
	return !closedOn.After(deadline)
}

// Evaluate classifies one complaint. Only RESOLVED/CLOSED complaints with a
// resolvable SLA receive a compliant or breached verdict.
func Evaluate(c *domain.Complaint, rules *RuleSet) Verdict {
	if !c.IsFinished() || c.ClosedOn == nil {
		return VerdictOpen
	}
	hours, ok := rules.Hours(c.Type)
	if !ok {
		return VerdictNoSLA
	}
	if WithinSLA(c.SubmittedOn, *c.ClosedOn, hours) {
		return VerdictCompliant
	}
	return VerdictBreached
}

// Compliance computes the compliance rate over finished complaints closed inside
// window. Complaints whose type has no SLA are left out of both counts.
func Compliance(complaints []domain.Complaint, rules *RuleSet, window *Window) ComplianceStats {
	var stats ComplianceStats
	for i := range complaints {
		c := &complaints[i]
		if !window.ContainsPtr(c.ClosedOn) {
			continue
		}
		switch Evaluate(c, rules) {
		case VerdictCompliant:
			stats.Eligible++
			stats.Compliant++
		case VerdictBreached:
			stats.Eligible++
		}
	}
	stats.Rate = Percent(stats.Compliant, stats.Eligible)
	return stats
}

// Percent returns part/whole*100 rounded half-up to one decimal, or 0 when whole
// is 0. Integer arithmetic keeps every caller bit-identical.
func Percent(part, whole int) float64 {
	return Ratio1(int64(part)*100, int64(whole))
}

// Ratio1 returns num/den rounded half-up to one decimal, or 0 when den <= 0.
func Ratio1(num, den int64) float64 {
	if den <= 0 {
		return 0
	}
	tenths := (num*20 + den) / (2 * den)
	return float64(tenths) / 10
}

// Round1 rounds half-up to one decimal for values that are already fractional.
func Round1(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Floor(v*10+0.5) / 10
}
