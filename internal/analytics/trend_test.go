package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/testutil"
)

func TestBuildTrendBucketsSubmissionAndClosureDays(t *testing.T) {
	rules := ParseRules([]domain.ConfigEntry{testutil.SLAEntry("WATER", "Water Supply", 24)})
	submitted := testutil.Date(2024, time.January, 2).Add(10 * time.Hour)
	complaints := []domain.Complaint{
		testutil.NewTestComplaint("WATER", submitted, testutil.ClosedAfter(20*time.Hour)),
	}
	r, err := ParseDateRange("2024-01-01", "2024-01-03", time.UTC)
	require.NoError(t, err)

	buckets := BuildTrend(complaints, rules, r)

	require.Len(t, buckets, 3)
	assert.Equal(t, TrendBucket{Date: "2024-01-01"}, buckets[0])
	assert.Equal(t, TrendBucket{Date: "2024-01-02", Submitted: 1}, buckets[1])
	assert.Equal(t, TrendBucket{Date: "2024-01-03", Resolved: 1, Eligible: 1, Compliant: 1, CompliancePct: 100.0}, buckets[2])
}

func TestBuildTrendIsDense(t *testing.T) {
	now := time.Date(2024, time.May, 20, 15, 0, 0, 0, time.UTC)
	r := LastNDays(now, 30, time.UTC)

	buckets := BuildTrend(nil, nil, r)

	require.Len(t, buckets, 30)
	assert.Equal(t, "2024-04-21", buckets[0].Date)
	assert.Equal(t, "2024-05-20", buckets[29].Date)
	for i := 1; i < len(buckets); i++ {
		assert.Less(t, buckets[i-1].Date, buckets[i].Date)
	}
}

func TestBuildTrendResolvedCountsClosedOnly(t *testing.T) {
	rules := ParseRules([]domain.ConfigEntry{testutil.SLAEntry("ROADS", "Roads", 48)})
	day := testutil.Date(2024, time.June, 1)
	complaints := []domain.Complaint{
		testutil.NewTestComplaint("ROADS", day, testutil.ResolvedAfter(time.Hour)),
		testutil.NewTestComplaint("ROADS", day, testutil.ClosedAfter(2*time.Hour)),
		testutil.NewTestComplaint("ROADS", day, testutil.ClosedAfter(3*time.Hour)),
	}
	r, err := NewDateRange(day, day, time.UTC)
	require.NoError(t, err)

	buckets := BuildTrend(complaints, rules, r)

	require.Len(t, buckets, 1)
	assert.Equal(t, 3, buckets[0].Submitted)
	assert.Equal(t, 2, buckets[0].Resolved)
	assert.Equal(t, 2, buckets[0].Eligible)
}

func TestBuildTrendUsesReportingLocation(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	// 20:00 UTC on Jan 1 is already Jan 2 at +05:30.
	submitted := time.Date(2024, time.January, 1, 20, 0, 0, 0, time.UTC)
	complaints := []domain.Complaint{testutil.NewTestComplaint("X", submitted)}
	r, err := ParseDateRange("2024-01-01", "2024-01-02", loc)
	require.NoError(t, err)

	buckets := BuildTrend(complaints, nil, r)

	require.Len(t, buckets, 2)
	assert.Equal(t, 0, buckets[0].Submitted)
	assert.Equal(t, 1, buckets[1].Submitted)
}

func TestDateRanges(t *testing.T) {
	_, err := ParseDateRange("2024-02-10", "2024-02-01", time.UTC)
	assert.Error(t, err)

	_, err = ParseDateRange("2024/02/01", "2024-02-02", time.UTC)
	assert.Error(t, err)

	r, err := ParseDateRange("2024-02-28", "2024-03-01", time.UTC)
	require.NoError(t, err)
	assert.Len(t, r.Days(), 3)
	assert.Equal(t, 3, r.Len())

	wide, err := ParseDateRange("0001-01-01", "9999-12-31", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 3652059, wide.Len())

	w := r.Window()
	assert.True(t, w.Contains(testutil.Date(2024, time.March, 1).Add(23*time.Hour)))
	assert.False(t, w.Contains(testutil.Date(2024, time.March, 2)))

	var all *Window
	assert.True(t, all.Contains(time.Time{}))
	assert.False(t, all.ContainsPtr(nil))
	assert.Nil(t, all.Union(w))

	today := Today(time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC), time.UTC)
	u := w.Union(today)
	assert.Equal(t, testutil.Date(2024, time.February, 28), u.From)
	assert.Equal(t, testutil.Date(2024, time.March, 6), u.To)
}
