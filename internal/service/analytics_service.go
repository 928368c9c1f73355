package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/complaint-analytics/internal/analytics"
	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/observability"
	"github.com/spec-kit/complaint-analytics/internal/repository"
	apperrors "github.com/spec-kit/complaint-analytics/pkg/util/errorutil"
)

const (
	viewSummary = "summary"
	viewReport  = "report"
	viewHeatmap = "heatmap"
	viewExport  = "export"
)

const defaultMaxRangeDays = 400

// AnalyticsService computes every analytics view from a freshly loaded ledger.
// Nothing is cached between calls.
type AnalyticsService struct {
	complaints repository.ComplaintRepository
	geo        repository.WardRepository
	config     repository.ConfigRepository
	users      repository.UserRepository
	logger     *zap.Logger
	metrics    *observability.Metrics

	location         *time.Location
	defaultTrendDays int
	maxRangeDays     int
	slaTargetPct     float64
	defaultPageSize  int
	now              func() time.Time
}

// AnalyticsDependencies bundles repositories and settings for the analytics service.
type AnalyticsDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	WardRepo      repository.WardRepository
	ConfigRepo    repository.ConfigRepository
	UserRepo      repository.UserRepository
	Logger        *zap.Logger
	Metrics       *observability.Metrics

	Location         *time.Location
	DefaultTrendDays int
	// MaxRangeDays bounds explicit from/to ranges.
	MaxRangeDays    int
	SLATargetPct    float64
	DefaultPageSize int
	Now             func() time.Time
}

// AnalyticsQuery carries the already-normalized client filters.
type AnalyticsQuery struct {
	From       string
	To         string
	Ward       string
	Types      []string
	Statuses   []domain.ComplaintStatus
	Priorities []domain.ComplaintPriority
	Page       int
	Limit      int
}

// SummaryResult is the dashboard headline view.
type SummaryResult struct {
	CountsByStatus map[domain.ComplaintStatus]int
	Total          int
	Today          analytics.DayActivity
	SLA            analytics.ComplianceStats
	UserRoleCounts map[domain.Role]int
	Window         *analytics.DateRange
	GeneratedAt    time.Time
}

// Pagination describes one page of the ward breakdown.
type Pagination struct {
	Page  int
	Limit int
	Total int
	Pages int
}

// ReportResult is the detailed analytics view.
type ReportResult struct {
	Totals            analytics.Totals
	SLA               analytics.ComplianceStats
	AvgResolutionDays float64
	SLATargetPct      float64
	Trends            []analytics.TrendBucket
	Wards             []analytics.GroupStats
	Categories        []analytics.GroupStats
	Performance       analytics.Performance
	Pagination        Pagination
	Window            *analytics.DateRange
	TrendRange        analytics.DateRange
	GeneratedAt       time.Time
}

// HeatmapResult is the geo × type matrix.
type HeatmapResult struct {
	analytics.Heatmap
	Window      *analytics.DateRange
	GeneratedAt time.Time
}

// ExportResult summarizes a written export.
type ExportResult struct {
	Rows int
}

// NewAnalyticsService wires the analytics service.
func NewAnalyticsService(deps AnalyticsDependencies) *AnalyticsService {
	svc := &AnalyticsService{
		complaints:       deps.ComplaintRepo,
		geo:              deps.WardRepo,
		config:           deps.ConfigRepo,
		users:            deps.UserRepo,
		logger:           deps.Logger,
		metrics:          deps.Metrics,
		location:         deps.Location,
		defaultTrendDays: deps.DefaultTrendDays,
		maxRangeDays:     deps.MaxRangeDays,
		slaTargetPct:     deps.SLATargetPct,
		defaultPageSize:  deps.DefaultPageSize,
		now:              deps.Now,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.location == nil {
		svc.location = time.UTC
	}
	if svc.defaultTrendDays <= 0 {
		svc.defaultTrendDays = 30
	}
	if svc.maxRangeDays <= 0 {
		svc.maxRangeDays = defaultMaxRangeDays
	}
	if svc.defaultPageSize <= 0 {
		svc.defaultPageSize = 50
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// dataset is everything one view needs, loaded once per request.
type dataset struct {
	complaints []domain.Complaint
	rules      *analytics.RuleSet
	wards      []domain.Ward
	zones      []domain.SubZone
	roleCounts map[domain.Role]int
}

type loadPlan struct {
	view       string
	scope      analytics.Scope
	query      AnalyticsQuery
	activity   *analytics.Window
	wards      bool
	zones      bool
	zonesOf    string
	roleCounts bool
}

// Summary computes status counts, today's activity and compliance.
func (s *AnalyticsService) Summary(ctx context.Context, identity domain.Identity, q AnalyticsQuery) (result *SummaryResult, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "AnalyticsService.Summary", attribute.String("analytics.role", string(identity.Role)))
	defer func() {
		s.metrics.ObserveAggregation(viewSummary, start, err)
		observability.EndSpan(span, err)
	}()

	scope, err := analytics.NewScope(identity, q.Ward)
	if err != nil {
		return nil, err
	}
	now := s.now()
	dateRange, err := s.resolveRange(q, now)
	if err != nil {
		return nil, err
	}
	window := rangeWindow(dateRange)
	today := analytics.Today(now, s.location)

	data, err := s.load(ctx, loadPlan{
		view:       viewSummary,
		scope:      scope,
		query:      q,
		activity:   window.Union(today),
		roleCounts: scope.IsAdmin(),
	})
	if err != nil {
		return nil, err
	}

	counts := analytics.CountByStatus(data.complaints, window)
	total := 0
	for _, n := range counts {
		total += n
	}

	return &SummaryResult{
		CountsByStatus: counts,
		Total:          total,
		Today:          analytics.ActivityWithin(data.complaints, today),
		SLA:            analytics.Compliance(data.complaints, data.rules, window),
		UserRoleCounts: data.roleCounts,
		Window:         dateRange,
		GeneratedAt:    now,
	}, nil
}

// Report computes totals, compliance, trends and breakdowns.
func (s *AnalyticsService) Report(ctx context.Context, identity domain.Identity, q AnalyticsQuery) (result *ReportResult, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "AnalyticsService.Report", attribute.String("analytics.role", string(identity.Role)))
	defer func() {
		s.metrics.ObserveAggregation(viewReport, start, err)
		observability.EndSpan(span, err)
	}()

	scope, err := analytics.NewScope(identity, q.Ward)
	if err != nil {
		return nil, err
	}
	now := s.now()
	dateRange, err := s.resolveRange(q, now)
	if err != nil {
		return nil, err
	}
	window := rangeWindow(dateRange)

	trendRange := analytics.LastNDays(now, s.defaultTrendDays, s.location)
	if dateRange != nil {
		trendRange = *dateRange
	}

	data, err := s.load(ctx, loadPlan{
		view:     viewReport,
		scope:    scope,
		query:    q,
		activity: window.Union(trendRange.Window()),
		wards:    scope.IsAdmin(),
	})
	if err != nil {
		return nil, err
	}

	result = &ReportResult{
		Totals:            analytics.ComputeTotals(data.complaints, data.rules, window, now),
		SLA:               analytics.Compliance(data.complaints, data.rules, window),
		AvgResolutionDays: analytics.AverageResolutionDays(data.complaints, window),
		SLATargetPct:      s.slaTargetPct,
		Trends:            analytics.BuildTrend(data.complaints, data.rules, trendRange),
		Categories:        analytics.BreakdownByCategory(data.complaints, data.rules, window),
		Performance:       analytics.UnavailablePerformance(),
		Window:            dateRange,
		TrendRange:        trendRange,
		GeneratedAt:       now,
	}

	page, limit := s.pageParams(q)
	result.Pagination = Pagination{Page: page, Limit: limit}
	if scope.IsAdmin() {
		wards := data.wards
		if ward := scope.Ward(); ward != "" {
			wards = onlyWard(wards, ward)
		}
		rows := analytics.BreakdownByWard(data.complaints, wards, window)
		result.Pagination.Total = len(rows)
		result.Pagination.Pages = pageCount(len(rows), limit)
		result.Wards = paginate(rows, page, limit)
	}
	return result, nil
}

// Heatmap computes the geo × type matrix for the caller's scope.
func (s *AnalyticsService) Heatmap(ctx context.Context, identity domain.Identity, q AnalyticsQuery) (result *HeatmapResult, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "AnalyticsService.Heatmap", attribute.String("analytics.role", string(identity.Role)))
	defer func() {
		s.metrics.ObserveAggregation(viewHeatmap, start, err)
		observability.EndSpan(span, err)
	}()

	scope, err := analytics.NewScope(identity, q.Ward)
	if err != nil {
		return nil, err
	}
	if err := scope.AuthorizeRequestedWard(); err != nil {
		return nil, err
	}
	now := s.now()
	dateRange, err := s.resolveRange(q, now)
	if err != nil {
		return nil, err
	}
	window := rangeWindow(dateRange)

	axis := analytics.GeoAxisWard
	drillWard := ""
	switch scope.Role() {
	case domain.RoleAdministrator:
		drillWard = scope.RequestedWard()
	case domain.RoleWardOfficer:
		drillWard = scope.HomeWard()
	}
	if drillWard != "" {
		axis = analytics.GeoAxisSubZone
	}

	data, err := s.load(ctx, loadPlan{
		view:     viewHeatmap,
		scope:    scope,
		query:    q,
		activity: window,
		wards:    axis == analytics.GeoAxisWard,
		zones:    axis == analytics.GeoAxisSubZone,
		zonesOf:  drillWard,
	})
	if err != nil {
		return nil, err
	}

	units := analytics.WardUnits(data.wards)
	if axis == analytics.GeoAxisSubZone {
		units = analytics.SubZoneUnits(data.zones)
	}
	complaints := analytics.SubmittedWithin(data.complaints, window)

	return &HeatmapResult{
		Heatmap:     analytics.BuildHeatmap(complaints, data.rules, units, axis),
		Window:      dateRange,
		GeneratedAt: now,
	}, nil
}

// Export writes the scoped ledger rows as CSV to w.
func (s *AnalyticsService) Export(ctx context.Context, identity domain.Identity, q AnalyticsQuery, w io.Writer) (result *ExportResult, err error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "AnalyticsService.Export", attribute.String("analytics.role", string(identity.Role)))
	defer func() {
		s.metrics.ObserveAggregation(viewExport, start, err)
		observability.EndSpan(span, err)
	}()

	scope, err := analytics.NewScope(identity, q.Ward)
	if err != nil {
		return nil, err
	}
	dateRange, err := s.resolveRange(q, s.now())
	if err != nil {
		return nil, err
	}
	window := rangeWindow(dateRange)

	data, err := s.load(ctx, loadPlan{
		view:     viewExport,
		scope:    scope,
		query:    q,
		activity: window,
		wards:    true,
		zones:    true,
	})
	if err != nil {
		return nil, err
	}

	complaints := analytics.SubmittedWithin(data.complaints, window)
	rows := analytics.ExportRows(complaints, data.rules, analytics.NewGeoNames(data.wards, data.zones), s.location)
	if err := analytics.WriteCSV(w, rows); err != nil {
		return nil, fmt.Errorf("write export: %w", err)
	}
	span.SetAttributes(attribute.Int("analytics.export.rows", len(rows)))
	return &ExportResult{Rows: len(rows)}, nil
}

// load fetches rules, ledger, geo units and role counts concurrently. The ledger
// query waits for the rules so type filters can be expanded to every alias.
func (s *AnalyticsService) load(ctx context.Context, plan loadPlan) (*dataset, error) {
	data := &dataset{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rules, err := analytics.LoadRules(gctx, s.config, s.logger)
		if err != nil {
			return err
		}
		data.rules = rules
		s.metrics.AddSkippedRules(len(rules.Issues()))

		filter := plan.scope.Predicate().Filter()
		filter.Types = typeAliases(rules, plan.query.Types)
		filter.Statuses = plan.query.Statuses
		filter.Priorities = plan.query.Priorities
		if plan.activity != nil {
			from, to := plan.activity.From, plan.activity.To
			filter.ActivityFrom = &from
			filter.ActivityTo = &to
		}
		complaints, err := s.complaints.List(gctx, filter)
		if err != nil {
			return fmt.Errorf("load complaints: %w", err)
		}
		data.complaints = filterTypes(complaints, rules, plan.query.Types)
		return nil
	})
	if plan.wards {
		g.Go(func() error {
			wards, err := s.geo.ListWards(gctx)
			if err != nil {
				return fmt.Errorf("load wards: %w", err)
			}
			data.wards = wards
			return nil
		})
	}
	if plan.zones {
		g.Go(func() error {
			zones, err := s.geo.ListSubZones(gctx, plan.zonesOf)
			if err != nil {
				return fmt.Errorf("load sub-zones: %w", err)
			}
			data.zones = zones
			return nil
		})
	}
	if plan.roleCounts {
		g.Go(func() error {
			counts, err := s.users.CountByRole(gctx)
			if err != nil {
				return fmt.Errorf("count users: %w", err)
			}
			data.roleCounts = counts
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("analytics load failed", zap.String("view", plan.view), zap.Error(err))
		return nil, apperrors.ToDomainError(err)
	}
	s.metrics.ObserveLedgerRows(plan.view, len(data.complaints))
	return data, nil
}

// resolveRange turns from/to into a day range. Both empty means no window; a
// single bound is completed from today or the default trend length.
func (s *AnalyticsService) resolveRange(q AnalyticsQuery, now time.Time) (*analytics.DateRange, error) {
	from, to := strings.TrimSpace(q.From), strings.TrimSpace(q.To)
	if from == "" && to == "" {
		return nil, nil
	}
	if to == "" {
		to = analytics.DayKey(now, s.location)
	}
	if from == "" {
		end, err := time.ParseInLocation("2006-01-02", to, s.location)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid date range", map[string]any{"to": q.To})
		}
		from = analytics.DayKey(end.AddDate(0, 0, -(s.defaultTrendDays-1)), s.location)
	}
	r, err := analytics.ParseDateRange(from, to, s.location)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date range", map[string]any{
			"from":   q.From,
			"to":     q.To,
			"reason": err.Error(),
		})
	}
	if days := r.Len(); days > s.maxRangeDays {
		return nil, apperrors.NewValidationError("date range too long", map[string]any{
			"days":    days,
			"maxDays": s.maxRangeDays,
		})
	}
	return &r, nil
}

func (s *AnalyticsService) pageParams(q AnalyticsQuery) (int, int) {
	page, limit := q.Page, q.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	return page, limit
}

func rangeWindow(r *analytics.DateRange) *analytics.Window {
	if r == nil {
		return nil
	}
	return r.Window()
}

func pageCount(total, limit int) int {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return pages
}

// paginate returns one page of rows. Pages past the end are empty; the page
// index is compared before multiplying so huge pages cannot overflow.
func paginate(rows []analytics.GroupStats, page, limit int) []analytics.GroupStats {
	if page < 1 || limit < 1 || page-1 >= pageCount(len(rows), limit) {
		return []analytics.GroupStats{}
	}
	start := (page - 1) * limit
	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

func onlyWard(wards []domain.Ward, id string) []domain.Ward {
	for _, w := range wards {
		if w.ID == id {
			return []domain.Ward{w}
		}
	}
	return nil
}

// typeAliases expands requested types to the folded form of every spelling the
// rules know, matching the ledger query's folded comparison.
func typeAliases(rules *analytics.RuleSet, requested []string) []string {
	if len(requested) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	add := func(v string) {
		v = domain.FoldComplaintType(v)
		if v == "" {
			return
		}
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	for _, raw := range requested {
		add(raw)
		if rule, ok := rules.Rule(raw); ok {
			add(rule.Key)
			add(rule.Name)
			add(domain.ComplaintTypeConfigPrefix + rule.Key)
		}
	}
	return out
}

// filterTypes keeps complaints whose canonical type matches a requested one.
func filterTypes(complaints []domain.Complaint, rules *analytics.RuleSet, requested []string) []domain.Complaint {
	if len(requested) == 0 {
		return complaints
	}
	want := make(map[string]struct{}, len(requested))
	for _, raw := range requested {
		want[domain.FoldComplaintType(rules.Canonical(raw))] = struct{}{}
	}
	out := make([]domain.Complaint, 0, len(complaints))
	for _, c := range complaints {
		if _, ok := want[domain.FoldComplaintType(rules.Canonical(c.Type))]; ok {
			out = append(out, c)
		}
	}
	return out
}
