package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-analytics/internal/analytics"
	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/service"
	apperrors "github.com/spec-kit/complaint-analytics/pkg/util/errorutil"
)

func TestToQueryNormalizesLists(t *testing.T) {
	q, err := AnalyticsQueryParams{
		From:     "2024-01-01",
		To:       "2024-01-31",
		Ward:     " ward-1 ",
		Type:     "Water Supply, ROADS,,",
		Status:   "closed,in-progress",
		Priority: "High",
		Page:     2,
		Limit:    25,
	}.ToQuery()

	require.NoError(t, err)
	assert.Equal(t, "ward-1", q.Ward)
	assert.Equal(t, []string{"Water Supply", "ROADS"}, q.Types)
	assert.Equal(t, []domain.ComplaintStatus{domain.ComplaintStatusClosed, domain.ComplaintStatusInProgress}, q.Statuses)
	assert.Equal(t, []domain.ComplaintPriority{domain.ComplaintPriorityHigh}, q.Priorities)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 25, q.Limit)
}

func TestToQueryRejects(t *testing.T) {
	cases := map[string]AnalyticsQueryParams{
		"bad date":         {From: "01/02/2024"},
		"unknown status":   {Status: "ARCHIVED"},
		"unknown priority": {Priority: "urgent"},
		"limit too large":  {Limit: 1000},
		"negative page":    {Page: -1},
	}
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := params.ToQuery()
			assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"), "got %v", err)
		})
	}
}

func TestReportResponseJSONShape(t *testing.T) {
	trend := analytics.DateRange{From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Location: time.UTC}
	resp := NewReportResponse(&service.ReportResult{
		Totals:      analytics.Totals{Total: 4, Resolved: 2, Pending: 2, Overdue: 1},
		SLA:         analytics.ComplianceStats{Eligible: 2, Compliant: 1, Rate: 50},
		Trends:      []analytics.TrendBucket{{Date: "2024-01-01", Submitted: 1}},
		Categories:  []analytics.GroupStats{{Key: "WATER", Label: "Water", Total: 4, Resolved: 2, ResolutionScore: 50}},
		Performance: analytics.UnavailablePerformance(),
		Pagination:  service.Pagination{Page: 1, Limit: 50},
		TrendRange:  trend,
	})

	raw, err := json.Marshal(OK(resp))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	data := decoded["data"].(map[string]any)
	assert.Equal(t, true, decoded["success"])
	assert.NotContains(t, data, "wards", "ward breakdown omitted for non-admin results")
	assert.Equal(t, 50.0, data["sla"].(map[string]any)["compliance"])
	assert.Equal(t, false, data["performance"].(map[string]any)["available"])
	meta := data["metadata"].(map[string]any)
	assert.Nil(t, meta["window"])
	assert.Equal(t, "2024-01-02", meta["trendWindow"].(map[string]any)["to"])
	assert.Equal(t, "Water", data["categories"].([]any)[0].(map[string]any)["name"])
}

func TestErrorEnvelope(t *testing.T) {
	env := NewErrorEnvelope(apperrors.NewDomainError("FORBIDDEN", "nope", 403, map[string]any{"ward": "w2"}))

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"nope","error":{"code":"FORBIDDEN","details":{"ward":"w2"}}}`, string(raw))
}
