package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spec-kit/complaint-analytics/internal/domain"
)

var complaintSeq atomic.Int64

// ComplaintOption customizes a test complaint.
type ComplaintOption func(*domain.Complaint)

// NewTestComplaint returns a REGISTERED complaint in ward-1 submitted at the given
// instant, with options applied.
func NewTestComplaint(typ string, submittedOn time.Time, opts ...ComplaintOption) domain.Complaint {
	c := domain.Complaint{
		ID:          fmt.Sprintf("c-%d", complaintSeq.Add(1)),
		Type:        typ,
		Status:      domain.ComplaintStatusRegistered,
		Priority:    domain.ComplaintPriorityMedium,
		WardID:      "ward-1",
		SubmittedOn: submittedOn,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithID overrides the generated id.
func WithID(id string) ComplaintOption {
	return func(c *domain.Complaint) { c.ID = id }
}

// WithStatus sets the status without touching closedOn.
func WithStatus(status domain.ComplaintStatus) ComplaintOption {
	return func(c *domain.Complaint) { c.Status = status }
}

// ClosedAfter marks the complaint CLOSED the given duration after submission.
func ClosedAfter(d time.Duration) ComplaintOption {
	return func(c *domain.Complaint) {
		closed := c.SubmittedOn.Add(d)
		c.ClosedOn = &closed
		c.Status = domain.ComplaintStatusClosed
	}
}

// ResolvedAfter marks the complaint RESOLVED the given duration after submission.
func ResolvedAfter(d time.Duration) ComplaintOption {
	return func(c *domain.Complaint) {
		closed := c.SubmittedOn.Add(d)
		c.ClosedOn = &closed
		c.Status = domain.ComplaintStatusResolved
	}
}

// InWard places the complaint in a ward.
func InWard(wardID string) ComplaintOption {
	return func(c *domain.Complaint) { c.WardID = wardID }
}

// InSubZone places the complaint in a sub-zone.
func InSubZone(subZoneID string) ComplaintOption {
	return func(c *domain.Complaint) { c.SubZoneID = &subZoneID }
}

// AssignedTo sets the assignee.
func AssignedTo(userID string) ComplaintOption {
	return func(c *domain.Complaint) { c.AssignedToID = &userID }
}

// SubmittedBy sets the submitting citizen.
func SubmittedBy(userID string) ComplaintOption {
	return func(c *domain.Complaint) { c.SubmittedByID = &userID }
}

// WithPriority sets the priority.
func WithPriority(p domain.ComplaintPriority) ComplaintOption {
	return func(c *domain.Complaint) { c.Priority = p }
}

// WithDeadline sets an explicit deadline.
func WithDeadline(deadline time.Time) ComplaintOption {
	return func(c *domain.Complaint) { c.Deadline = &deadline }
}

// SLAEntry builds a COMPLAINT_TYPE_ configuration row.
func SLAEntry(key, name string, hours int) domain.ConfigEntry {
	return domain.ConfigEntry{
		Key:   domain.ComplaintTypeConfigPrefix + key,
		Value: fmt.Sprintf(`{"name":%q,"slaHours":%d}`, name, hours),
	}
}

// Date is a UTC midnight shorthand.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
