package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/testutil"
)

func TestParseRulesSkipsMalformedRows(t *testing.T) {
	entries := []domain.ConfigEntry{
		testutil.SLAEntry("WATER_SUPPLY", "Water Supply", 24),
		{Key: "COMPLAINT_TYPE_ROADS", Value: `{"name":"Roads","slaHours":"72"}`},
		{Key: "COMPLAINT_TYPE_BROKEN", Value: `{not json`},
		{Key: "COMPLAINT_TYPE_NOHOURS", Value: `{"name":"No Hours"}`},
		{Key: "COMPLAINT_TYPE_ZERO", Value: `{"name":"Zero","slaHours":0}`},
		{Key: "COMPLAINT_TYPE_NEG", Value: `{"name":"Neg","slaHours":-4}`},
		{Key: "COMPLAINT_TYPE_TEXT", Value: `{"name":"Text","slaHours":"soon"}`},
		{Key: "COMPLAINT_TYPE_FRACTION", Value: `{"name":"Fraction","slaHours":1.5}`},
		{Key: "COMPLAINT_TYPE_", Value: `{"name":"Blank","slaHours":5}`},
	}

	rs := ParseRules(entries)

	rules := rs.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, domain.SlaRule{Key: "ROADS", Name: "Roads", SLAHours: 72}, rules[0])
	assert.Equal(t, domain.SlaRule{Key: "WATER_SUPPLY", Name: "Water Supply", SLAHours: 24}, rules[1])
	assert.Len(t, rs.Issues(), 7)
}

func TestRuleLookupIsCaseInsensitiveAndAliased(t *testing.T) {
	rs := ParseRules([]domain.ConfigEntry{testutil.SLAEntry("WATER_SUPPLY", "Water Supply", 24)})

	for _, raw := range []string{"WATER_SUPPLY", "water_supply", "Water Supply", "water supply", "water-supply", "COMPLAINT_TYPE_WATER_SUPPLY", " Water Supply "} {
		hours, ok := rs.Hours(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, 24, hours, raw)
		assert.Equal(t, "WATER_SUPPLY", rs.Canonical(raw), raw)
		assert.Equal(t, "Water Supply", rs.Label(raw), raw)
	}

	_, ok := rs.Hours("sewage")
	assert.False(t, ok)
	assert.Equal(t, "sewage", rs.Canonical(" sewage "))
	assert.Equal(t, OthersLabel, rs.Label(""))
}

func TestRuleKeyWinsOverDisplayName(t *testing.T) {
	rs := ParseRules([]domain.ConfigEntry{
		testutil.SLAEntry("ROADS", "Potholes", 48),
		testutil.SLAEntry("POTHOLES", "Pothole Repair", 12),
	})

	hours, ok := rs.Hours("potholes")
	require.True(t, ok)
	assert.Equal(t, 12, hours)
}

func TestNilRuleSetResolvesNothing(t *testing.T) {
	var rs *RuleSet
	_, ok := rs.Hours("ANY")
	assert.False(t, ok)
	assert.Equal(t, "ANY", rs.Label("ANY"))
	assert.Nil(t, rs.Rules())
}

func TestLoadRulesLogsSkippedRows(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	reader := &testutil.FakeConfig{Entries: []domain.ConfigEntry{
		testutil.SLAEntry("WATER", "Water", 24),
		{Key: "COMPLAINT_TYPE_BAD", Value: `[]`},
	}}

	rs, err := LoadRules(context.Background(), reader, zap.New(core))

	require.NoError(t, err)
	assert.Len(t, rs.Rules(), 1)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "COMPLAINT_TYPE_BAD", logs.All()[0].ContextMap()["key"])
}

func TestLoadRulesPropagatesReadFailure(t *testing.T) {
	reader := &testutil.FakeConfig{Err: errors.New("connection refused")}

	_, err := LoadRules(context.Background(), reader, zap.NewNop())

	assert.ErrorContains(t, err, "connection refused")
}
