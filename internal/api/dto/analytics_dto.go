package dto

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/complaint-analytics/internal/analytics"
	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/service"
	apperrors "github.com/spec-kit/complaint-analytics/pkg/util/errorutil"
)

var validate = validator.New()

// AnalyticsQueryParams captures the shared analytics query string.
type AnalyticsQueryParams struct {
	From     string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To       string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Ward     string `query:"ward" validate:"omitempty,max=64"`
	Type     string `query:"type" validate:"omitempty,max=512"`
	Status   string `query:"status" validate:"omitempty,max=256"`
	Priority string `query:"priority" validate:"omitempty,max=128"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	Limit    int    `query:"limit" validate:"omitempty,min=1,max=500"`
}

// ToQuery validates the params and normalizes list filters.
func (p AnalyticsQueryParams) ToQuery() (service.AnalyticsQuery, error) {
	if err := validate.Struct(p); err != nil {
		return service.AnalyticsQuery{}, apperrors.NewValidationError("invalid query parameters", validationDetails(err))
	}

	q := service.AnalyticsQuery{
		From:  p.From,
		To:    p.To,
		Ward:  strings.TrimSpace(p.Ward),
		Types: splitList(p.Type),
		Page:  p.Page,
		Limit: p.Limit,
	}

	for _, raw := range splitList(p.Status) {
		status, ok := domain.ParseComplaintStatus(raw)
		if !ok {
			return service.AnalyticsQuery{}, apperrors.NewValidationError("unknown status", map[string]any{"status": raw})
		}
		q.Statuses = append(q.Statuses, status)
	}
	for _, raw := range splitList(p.Priority) {
		priority, ok := domain.ParseComplaintPriority(raw)
		if !ok {
			return service.AnalyticsQuery{}, apperrors.NewValidationError("unknown priority", map[string]any{"priority": raw})
		}
		q.Priorities = append(q.Priorities, priority)
	}
	return q, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validationDetails(err error) map[string]any {
	details := map[string]any{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			details[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return details
}

// Envelope wraps successful payloads.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// OK wraps data in a success envelope.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// DateWindow is an inclusive YYYY-MM-DD range.
type DateWindow struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func newDateWindow(r *analytics.DateRange) *DateWindow {
	if r == nil {
		return nil
	}
	return &DateWindow{
		From: analytics.DayKey(r.From, r.Location),
		To:   analytics.DayKey(r.To, r.Location),
	}
}

// ComplianceResponse is the deadline-based compliance block.
type ComplianceResponse struct {
	Compliance float64 `json:"compliance"`
	Eligible   int     `json:"eligible"`
	Compliant  int     `json:"compliant"`
}

// TodayResponse is today's activity.
type TodayResponse struct {
	Submitted int `json:"submitted"`
	Closed    int `json:"closed"`
}

// SummaryResponse is the dashboard payload.
type SummaryResponse struct {
	CountsByStatus map[domain.ComplaintStatus]int `json:"countsByStatus"`
	Total          int                            `json:"total"`
	Today          TodayResponse                  `json:"today"`
	SLA            ComplianceResponse             `json:"sla"`
	UserRoleCounts map[domain.Role]int            `json:"userRoleCounts,omitempty"`
	Window         *DateWindow                    `json:"window,omitempty"`
	GeneratedAt    time.Time                      `json:"generatedAt"`
}

// NewSummaryResponse maps a service result.
func NewSummaryResponse(r *service.SummaryResult) SummaryResponse {
	return SummaryResponse{
		CountsByStatus: r.CountsByStatus,
		Total:          r.Total,
		Today:          TodayResponse{Submitted: r.Today.Submitted, Closed: r.Today.Closed},
		SLA:            ComplianceResponse{Compliance: r.SLA.Rate, Eligible: r.SLA.Eligible, Compliant: r.SLA.Compliant},
		UserRoleCounts: r.UserRoleCounts,
		Window:         newDateWindow(r.Window),
		GeneratedAt:    r.GeneratedAt,
	}
}

// ComplaintTotalsResponse holds headline counts.
type ComplaintTotalsResponse struct {
	Total    int `json:"total"`
	Resolved int `json:"resolved"`
	Pending  int `json:"pending"`
	Overdue  int `json:"overdue"`
}

// ReportSLAResponse extends compliance with resolution time and target.
type ReportSLAResponse struct {
	Compliance        float64 `json:"compliance"`
	Eligible          int     `json:"eligible"`
	Compliant         int     `json:"compliant"`
	AvgResolutionTime float64 `json:"avgResolutionTime"`
	Target            float64 `json:"target"`
}

// TrendResponse is one day of the trend series.
type TrendResponse struct {
	Date       string  `json:"date"`
	Submitted  int     `json:"submitted"`
	Resolved   int     `json:"resolved"`
	Compliance float64 `json:"compliance"`
}

// GroupResponse is one breakdown row. resolutionScore is resolved/total, not
// deadline compliance.
type GroupResponse struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Total             int     `json:"total"`
	Resolved          int     `json:"resolved"`
	AvgResolutionTime float64 `json:"avgResolutionTime"`
	ResolutionScore   float64 `json:"resolutionScore"`
}

// PerformanceResponse marks metrics that need external data.
type PerformanceResponse struct {
	Available bool     `json:"available"`
	Reason    string   `json:"reason"`
	Metrics   []string `json:"metrics"`
}

// PaginationResponse describes the ward breakdown page.
type PaginationResponse struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ReportMetadata carries paging and window info.
type ReportMetadata struct {
	Pagination  PaginationResponse `json:"pagination"`
	Window      *DateWindow        `json:"window"`
	TrendWindow DateWindow         `json:"trendWindow"`
	GeneratedAt time.Time          `json:"generatedAt"`
}

// ReportResponse is the detailed analytics payload.
type ReportResponse struct {
	Complaints  ComplaintTotalsResponse `json:"complaints"`
	SLA         ReportSLAResponse       `json:"sla"`
	Trends      []TrendResponse         `json:"trends"`
	Wards       []GroupResponse         `json:"wards,omitempty"`
	Categories  []GroupResponse         `json:"categories"`
	Performance PerformanceResponse     `json:"performance"`
	Metadata    ReportMetadata          `json:"metadata"`
}

// NewReportResponse maps a service result.
func NewReportResponse(r *service.ReportResult) ReportResponse {
	resp := ReportResponse{
		Complaints: ComplaintTotalsResponse{
			Total:    r.Totals.Total,
			Resolved: r.Totals.Resolved,
			Pending:  r.Totals.Pending,
			Overdue:  r.Totals.Overdue,
		},
		SLA: ReportSLAResponse{
			Compliance:        r.SLA.Rate,
			Eligible:          r.SLA.Eligible,
			Compliant:         r.SLA.Compliant,
			AvgResolutionTime: r.AvgResolutionDays,
			Target:            r.SLATargetPct,
		},
		Trends:     make([]TrendResponse, 0, len(r.Trends)),
		Categories: newGroups(r.Categories),
		Performance: PerformanceResponse{
			Available: r.Performance.Available,
			Reason:    r.Performance.Reason,
			Metrics:   r.Performance.Metrics,
		},
		Metadata: ReportMetadata{
			Pagination: PaginationResponse{
				Page:  r.Pagination.Page,
				Limit: r.Pagination.Limit,
				Total: r.Pagination.Total,
				Pages: r.Pagination.Pages,
			},
			Window:      newDateWindow(r.Window),
			TrendWindow: *newDateWindow(&r.TrendRange),
			GeneratedAt: r.GeneratedAt,
		},
	}
	for _, b := range r.Trends {
		resp.Trends = append(resp.Trends, TrendResponse{
			Date:       b.Date,
			Submitted:  b.Submitted,
			Resolved:   b.Resolved,
			Compliance: b.CompliancePct,
		})
	}
	if r.Wards != nil {
		resp.Wards = newGroups(r.Wards)
	}
	return resp
}

func newGroups(rows []analytics.GroupStats) []GroupResponse {
	out := make([]GroupResponse, 0, len(rows))
	for _, g := range rows {
		out = append(out, GroupResponse{
			ID:                g.Key,
			Name:              g.Label,
			Total:             g.Total,
			Resolved:          g.Resolved,
			AvgResolutionTime: g.AvgResolutionDays,
			ResolutionScore:   g.ResolutionScore,
		})
	}
	return out
}

// HeatmapMeta carries ids and totals behind the labels.
type HeatmapMeta struct {
	XIDs  []string          `json:"xIds"`
	YIDs  []string          `json:"yIds"`
	Total int               `json:"total"`
	Axis  analytics.GeoAxis `json:"axis"`
}

// HeatmapResponse is the geo × type matrix payload.
type HeatmapResponse struct {
	XLabels     []string    `json:"xLabels"`
	YLabels     []string    `json:"yLabels"`
	Matrix      [][]int     `json:"matrix"`
	XAxisLabel  string      `json:"xAxisLabel"`
	YAxisLabel  string      `json:"yAxisLabel"`
	Meta        HeatmapMeta `json:"meta"`
	Window      *DateWindow `json:"window,omitempty"`
	GeneratedAt time.Time   `json:"generatedAt"`
}

// NewHeatmapResponse maps a service result.
func NewHeatmapResponse(r *service.HeatmapResult) HeatmapResponse {
	return HeatmapResponse{
		XLabels:    r.XLabels,
		YLabels:    r.YLabels,
		Matrix:     r.Matrix,
		XAxisLabel: r.XAxisLabel,
		YAxisLabel: r.YAxisLabel,
		Meta: HeatmapMeta{
			XIDs:  r.XIDs,
			YIDs:  r.YIDs,
			Total: r.Total,
			Axis:  r.Axis,
		},
		Window:      newDateWindow(r.Window),
		GeneratedAt: r.GeneratedAt,
	}
}

// ErrorBody is the error detail inside the failure envelope.
type ErrorBody struct {
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorEnvelope is the failure response shape.
type ErrorEnvelope struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Error   ErrorBody `json:"error"`
}

// NewErrorEnvelope maps a domain error.
func NewErrorEnvelope(err *apperrors.DomainError) ErrorEnvelope {
	return ErrorEnvelope{
		Success: false,
		Message: err.Message,
		Error:   ErrorBody{Code: err.Code, Details: err.Details},
	}
}
