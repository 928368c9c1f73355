package domain

import "strings"

// ComplaintTypeConfigPrefix prefixes configuration keys that carry SLA rules.
const ComplaintTypeConfigPrefix = "COMPLAINT_TYPE_"

// ConfigEntry is a raw configuration-store row.
type ConfigEntry struct {
	Key   string
	Value string
}

// SlaRule maps a complaint type to its allowed resolution window.
type SlaRule struct {
	Key      string
	Name     string
	SLAHours int
}

// FoldComplaintType is the comparison form of a complaint type: lower-cased, trimmed,
// spaces and hyphens folded to underscores. Ledger queries and rule lookups both
// match on it.
func FoldComplaintType(raw string) string {
	return typeFolder.Replace(strings.ToLower(strings.TrimSpace(raw)))
}

var typeFolder = strings.NewReplacer(" ", "_", "-", "_")
