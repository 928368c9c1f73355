package analytics

// Performance is the citizen-facing performance block. Satisfaction and escalation
// data live outside the complaint ledger, so nothing is computed here.
type Performance struct {
	Available bool
	Reason    string
	Metrics   []string
}

// UnavailablePerformance marks the block as requiring an external data source.
func UnavailablePerformance() Performance {
	return Performance{
		Available: false,
		Reason:    "external data required: satisfaction and escalation sources are not connected",
		Metrics:   []string{"citizenSatisfaction", "escalationRate", "firstResponseTime", "reopenRate"},
	}
}
