package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseComplaintStatus(t *testing.T) {
	cases := map[string]ComplaintStatus{
		"resolved":    ComplaintStatusResolved,
		" Closed ":    ComplaintStatusClosed,
		"in-progress": ComplaintStatusInProgress,
		"in progress": ComplaintStatusInProgress,
		"IN_PROGRESS": ComplaintStatusInProgress,
	}
	for raw, want := range cases {
		got, ok := ParseComplaintStatus(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := ParseComplaintStatus("archived")
	assert.False(t, ok)
}

func TestParseComplaintPriority(t *testing.T) {
	got, ok := ParseComplaintPriority("high")
	assert.True(t, ok)
	assert.Equal(t, ComplaintPriorityHigh, got)

	_, ok = ParseComplaintPriority("urgent")
	assert.False(t, ok)
}

func TestComplaintResolutionTime(t *testing.T) {
	submitted := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	c := Complaint{SubmittedOn: submitted, Status: ComplaintStatusRegistered}
	_, ok := c.ResolutionTime()
	assert.False(t, ok)
	assert.False(t, c.IsFinished())

	closed := submitted.Add(30 * time.Hour)
	c.ClosedOn = &closed
	c.Status = ComplaintStatusClosed
	d, ok := c.ResolutionTime()
	assert.True(t, ok)
	assert.Equal(t, 30*time.Hour, d)
	assert.True(t, c.IsFinished())
}
