package domain

import (
	"strings"
	"time"
)

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusRegistered ComplaintStatus = "REGISTERED"
	ComplaintStatusAssigned   ComplaintStatus = "ASSIGNED"
	ComplaintStatusInProgress ComplaintStatus = "IN_PROGRESS"
	ComplaintStatusResolved   ComplaintStatus = "RESOLVED"
	ComplaintStatusClosed     ComplaintStatus = "CLOSED"
	ComplaintStatusReopened   ComplaintStatus = "REOPENED"
)

// AllComplaintStatuses lists statuses in lifecycle order.
var AllComplaintStatuses = []ComplaintStatus{
	ComplaintStatusRegistered,
	ComplaintStatusAssigned,
	ComplaintStatusInProgress,
	ComplaintStatusResolved,
	ComplaintStatusClosed,
	ComplaintStatusReopened,
}

// ComplaintPriority enumerates urgency levels.
type ComplaintPriority string

const (
	ComplaintPriorityLow      ComplaintPriority = "LOW"
	ComplaintPriorityMedium   ComplaintPriority = "MEDIUM"
	ComplaintPriorityHigh     ComplaintPriority = "HIGH"
	ComplaintPriorityCritical ComplaintPriority = "CRITICAL"
)

var allComplaintPriorities = []ComplaintPriority{
	ComplaintPriorityLow,
	ComplaintPriorityMedium,
	ComplaintPriorityHigh,
	ComplaintPriorityCritical,
}

// Complaint is a read-only view of a ledger row.
type Complaint struct {
	ID            string
	Type          string
	Status        ComplaintStatus
	Priority      ComplaintPriority
	WardID        string
	SubZoneID     *string
	AssignedToID  *string
	SubmittedByID *string
	SubmittedOn   time.Time
	ClosedOn      *time.Time
	Deadline      *time.Time
}

// IsFinished reports whether the complaint reached RESOLVED or CLOSED.
func (c *Complaint) IsFinished() bool {
	return c.Status == ComplaintStatusResolved || c.Status == ComplaintStatusClosed
}

// ResolutionTime returns closedOn - submittedOn for finished complaints.
func (c *Complaint) ResolutionTime() (time.Duration, bool) {
	if c.ClosedOn == nil {
		return 0, false
	}
	return c.ClosedOn.Sub(c.SubmittedOn), true
}

// ParseComplaintStatus normalizes a client supplied status case-insensitively.
func ParseComplaintStatus(raw string) (ComplaintStatus, bool) {
	candidate := ComplaintStatus(normalizeEnum(raw))
	for _, status := range AllComplaintStatuses {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

// ParseComplaintPriority normalizes a client supplied priority case-insensitively.
func ParseComplaintPriority(raw string) (ComplaintPriority, bool) {
	candidate := ComplaintPriority(normalizeEnum(raw))
	for _, priority := range allComplaintPriorities {
		if priority == candidate {
			return priority, true
		}
	}
	return "", false
}

func normalizeEnum(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, " ", "_")
}
