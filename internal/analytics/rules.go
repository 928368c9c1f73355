package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-analytics/internal/domain"
)

// OthersLabel labels complaints that carry no type.
const OthersLabel = "Others"

// ConfigReader is the read side of the configuration store.
type ConfigReader interface {
	ListActiveByPrefix(ctx context.Context, prefix string) ([]domain.ConfigEntry, error)
}

// RuleIssue describes a configuration row that was skipped.
type RuleIssue struct {
	Key    string
	Reason string
}

// RuleSet resolves SLA hours and display labels for complaint types. It is built
// per request and never shared.
type RuleSet struct {
	rules  []domain.SlaRule
	lookup map[string]int
	issues []RuleIssue
}

type ruleValue struct {
	Name     string          `json:"name"`
	SLAHours json.RawMessage `json:"slaHours"`
}

// LoadRules reads every active COMPLAINT_TYPE_ row. Malformed rows are logged and
// skipped; only a failing read returns an error.
func LoadRules(ctx context.Context, reader ConfigReader, logger *zap.Logger) (*RuleSet, error) {
	entries, err := reader.ListActiveByPrefix(ctx, domain.ComplaintTypeConfigPrefix)
	if err != nil {
		return nil, fmt.Errorf("load sla rules: %w", err)
	}
	rs := ParseRules(entries)
	if logger != nil {
		for _, issue := range rs.issues {
			logger.Warn("skipping sla rule", zap.String("key", issue.Key), zap.String("reason", issue.Reason))
		}
	}
	return rs, nil
}

// ParseRules builds a RuleSet from raw configuration rows.
func ParseRules(entries []domain.ConfigEntry) *RuleSet {
	rs := &RuleSet{lookup: make(map[string]int)}
	for _, entry := range entries {
		rule, err := parseRule(entry)
		if err != nil {
			rs.issues = append(rs.issues, RuleIssue{Key: entry.Key, Reason: err.Error()})
			continue
		}
		rs.rules = append(rs.rules, rule)
	}
	sort.SliceStable(rs.rules, func(i, j int) bool { return rs.rules[i].Key < rs.rules[j].Key })

	// Keys win over display names when they collide.
	for i, rule := range rs.rules {
		rs.index(rule.Key, i)
		rs.index(domain.ComplaintTypeConfigPrefix+rule.Key, i)
	}
	for i, rule := range rs.rules {
		if rule.Name != "" {
			rs.index(rule.Name, i)
		}
	}
	return rs
}

func parseRule(entry domain.ConfigEntry) (domain.SlaRule, error) {
	key := strings.TrimSpace(strings.TrimPrefix(entry.Key, domain.ComplaintTypeConfigPrefix))
	if key == "" {
		return domain.SlaRule{}, fmt.Errorf("empty type key")
	}
	var value ruleValue
	if err := json.Unmarshal([]byte(entry.Value), &value); err != nil {
		return domain.SlaRule{}, fmt.Errorf("invalid json: %w", err)
	}
	hours, err := parseHours(value.SLAHours)
	if err != nil {
		return domain.SlaRule{}, err
	}
	return domain.SlaRule{Key: key, Name: strings.TrimSpace(value.Name), SLAHours: hours}, nil
}

// parseHours accepts a JSON number or a numeric string holding a positive integer.
func parseHours(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("slaHours missing")
	}
	text := string(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		text = strings.TrimSpace(s)
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("slaHours not numeric")
	}
	if f <= 0 {
		return 0, fmt.Errorf("slaHours must be positive")
	}
	if f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("slaHours must be a whole number of hours")
	}
	return int(f), nil
}

func (rs *RuleSet) index(name string, i int) {
	for _, k := range lookupKeys(name) {
		if _, taken := rs.lookup[k]; !taken {
			rs.lookup[k] = i
		}
	}
}

func lookupKeys(name string) []string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return nil
	}
	folded := domain.FoldComplaintType(lower)
	if folded == lower {
		return []string{lower}
	}
	return []string{lower, folded}
}

// Rule finds the rule for a ledger type by key or display name, case-insensitively.
func (rs *RuleSet) Rule(complaintType string) (domain.SlaRule, bool) {
	if rs == nil {
		return domain.SlaRule{}, false
	}
	for _, k := range lookupKeys(complaintType) {
		if i, ok := rs.lookup[k]; ok {
			return rs.rules[i], true
		}
	}
	return domain.SlaRule{}, false
}

// Hours resolves the SLA hours for a ledger type.
func (rs *RuleSet) Hours(complaintType string) (int, bool) {
	rule, ok := rs.Rule(complaintType)
	if !ok {
		return 0, false
	}
	return rule.SLAHours, true
}

// Canonical maps a ledger type to its grouping key: the rule key when configured,
// otherwise the trimmed raw value.
func (rs *RuleSet) Canonical(complaintType string) string {
	if rule, ok := rs.Rule(complaintType); ok {
		return rule.Key
	}
	return strings.TrimSpace(complaintType)
}

// Label is the display name of a ledger type.
func (rs *RuleSet) Label(complaintType string) string {
	if strings.TrimSpace(complaintType) == "" {
		return OthersLabel
	}
	if rule, ok := rs.Rule(complaintType); ok {
		if rule.Name != "" {
			return rule.Name
		}
		return rule.Key
	}
	return strings.TrimSpace(complaintType)
}

// Rules returns the parsed rules ordered by key.
func (rs *RuleSet) Rules() []domain.SlaRule {
	if rs == nil {
		return nil
	}
	return append([]domain.SlaRule(nil), rs.rules...)
}

// Issues lists rows skipped while parsing.
func (rs *RuleSet) Issues() []RuleIssue {
	if rs == nil {
		return nil
	}
	return append([]RuleIssue(nil), rs.issues...)
}
