package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/repository"
)

// FakeLedger is an in-memory ComplaintRepository applying the same filter
// semantics as the SQL implementation.
type FakeLedger struct {
	mu         sync.Mutex
	Complaints []domain.Complaint
	Err        error
	Calls      []repository.ComplaintFilter
}

var _ repository.ComplaintRepository = (*FakeLedger)(nil)

func (f *FakeLedger) List(ctx context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, filter)
	if f.Err != nil {
		return nil, f.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.Complaint
	for _, c := range f.Complaints {
		if matchesFilter(c, filter) {
			out = append(out, c)
		}
	}
	return out, nil
}

// LastFilter returns the most recent filter passed to List.
func (f *FakeLedger) LastFilter() repository.ComplaintFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Calls) == 0 {
		return repository.ComplaintFilter{}
	}
	return f.Calls[len(f.Calls)-1]
}

func matchesFilter(c domain.Complaint, f repository.ComplaintFilter) bool {
	if f.WardID != nil && c.WardID != *f.WardID {
		return false
	}
	if f.AssignedToID != nil && (c.AssignedToID == nil || *c.AssignedToID != *f.AssignedToID) {
		return false
	}
	if f.SubmittedByID != nil && (c.SubmittedByID == nil || *c.SubmittedByID != *f.SubmittedByID) {
		return false
	}
	if len(f.Types) > 0 && !containsType(f.Types, c.Type) {
		return false
	}
	if len(f.Statuses) > 0 && !contains(f.Statuses, c.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !contains(f.Priorities, c.Priority) {
		return false
	}
	if f.ActivityFrom != nil && f.ActivityTo != nil {
		in := func(t *domain.Complaint, closed bool) bool {
			ts := t.SubmittedOn
			if closed {
				if t.ClosedOn == nil {
					return false
				}
				ts = *t.ClosedOn
			}
			return !ts.Before(*f.ActivityFrom) && ts.Before(*f.ActivityTo)
		}
		if !in(&c, false) && !in(&c, true) {
			return false
		}
	}
	return true
}

func contains[T comparable](items []T, v T) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}

// containsType compares folded types, as the SQL filter does.
func containsType(items []string, v string) bool {
	folded := domain.FoldComplaintType(v)
	for _, item := range items {
		if domain.FoldComplaintType(item) == folded {
			return true
		}
	}
	return false
}

// FakeGeo is an in-memory WardRepository.
type FakeGeo struct {
	Wards    []domain.Ward
	SubZones []domain.SubZone
	Err      error
}

var _ repository.WardRepository = (*FakeGeo)(nil)

func (f *FakeGeo) ListWards(ctx context.Context) ([]domain.Ward, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]domain.Ward(nil), f.Wards...), nil
}

func (f *FakeGeo) ListSubZones(ctx context.Context, wardID string) ([]domain.SubZone, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var out []domain.SubZone
	for _, z := range f.SubZones {
		if wardID == "" || z.WardID == wardID {
			out = append(out, z)
		}
	}
	return out, nil
}

// FakeConfig is an in-memory ConfigRepository.
type FakeConfig struct {
	Entries []domain.ConfigEntry
	Err     error
}

var _ repository.ConfigRepository = (*FakeConfig)(nil)

func (f *FakeConfig) ListActiveByPrefix(ctx context.Context, prefix string) ([]domain.ConfigEntry, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	var out []domain.ConfigEntry
	for _, e := range f.Entries {
		if strings.HasPrefix(e.Key, prefix) {
			out = append(out, e)
		}
	}
	return out, nil
}

// FakeUsers is an in-memory UserRepository.
type FakeUsers struct {
	Counts map[domain.Role]int
	Err    error
	Calls  int
}

var _ repository.UserRepository = (*FakeUsers)(nil)

func (f *FakeUsers) CountByRole(ctx context.Context) (map[domain.Role]int, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	out := make(map[domain.Role]int, len(f.Counts))
	for k, v := range f.Counts {
		out[k] = v
	}
	return out, nil
}
