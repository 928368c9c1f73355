package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-analytics/internal/api/dto"
	"github.com/spec-kit/complaint-analytics/internal/auth"
	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/observability"
	"github.com/spec-kit/complaint-analytics/internal/persistence"
	"github.com/spec-kit/complaint-analytics/internal/service"
	apperrors "github.com/spec-kit/complaint-analytics/pkg/util/errorutil"
)

// AnalyticsService is the read side the handler depends on.
type AnalyticsService interface {
	Summary(ctx context.Context, identity domain.Identity, q service.AnalyticsQuery) (*service.SummaryResult, error)
	Report(ctx context.Context, identity domain.Identity, q service.AnalyticsQuery) (*service.ReportResult, error)
	Heatmap(ctx context.Context, identity domain.Identity, q service.AnalyticsQuery) (*service.HeatmapResult, error)
	Export(ctx context.Context, identity domain.Identity, q service.AnalyticsQuery, w io.Writer) (*service.ExportResult, error)
}

// ExportLimiter bounds export requests per user.
type ExportLimiter interface {
	Allow(ctx context.Context, userID string) (persistence.LimitDecision, error)
}

// AnalyticsHandler exposes the analytics views.
type AnalyticsHandler struct {
	analytics AnalyticsService
	limiter   ExportLimiter
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewAnalyticsHandler constructs the handler. limiter may be nil.
func NewAnalyticsHandler(analytics AnalyticsService, limiter ExportLimiter, logger *zap.Logger, metrics *observability.Metrics) *AnalyticsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsHandler{analytics: analytics, limiter: limiter, logger: logger, metrics: metrics}
}

// Summary handles GET /api/analytics/summary.
func (h *AnalyticsHandler) Summary(c *fiber.Ctx) error {
	identity, q, err := h.requestContext(c)
	if err != nil {
		return err
	}
	result, err := h.analytics.Summary(c.UserContext(), identity, q)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(dto.NewSummaryResponse(result)))
}

// Report handles GET /api/analytics/report.
func (h *AnalyticsHandler) Report(c *fiber.Ctx) error {
	identity, q, err := h.requestContext(c)
	if err != nil {
		return err
	}
	result, err := h.analytics.Report(c.UserContext(), identity, q)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(dto.NewReportResponse(result)))
}

// Heatmap handles GET /api/analytics/heatmap.
func (h *AnalyticsHandler) Heatmap(c *fiber.Ctx) error {
	identity, q, err := h.requestContext(c)
	if err != nil {
		return err
	}
	result, err := h.analytics.Heatmap(c.UserContext(), identity, q)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK(dto.NewHeatmapResponse(result)))
}

// Export handles GET /api/analytics/export and streams CSV.
func (h *AnalyticsHandler) Export(c *fiber.Ctx) error {
	identity, q, err := h.requestContext(c)
	if err != nil {
		return err
	}

	if h.limiter != nil {
		decision, err := h.limiter.Allow(c.UserContext(), identity.UserID)
		switch {
		case err != nil:
			h.logger.Warn("export limiter unavailable; allowing request",
				zap.String("user_id", identity.UserID),
				zap.Error(err))
		case !decision.Allowed:
			h.metrics.IncrementExportsThrottled()
			retry := int(math.Ceil(decision.RetryAfter.Seconds()))
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retry))
			return apperrors.NewTooManyRequests("export rate limit exceeded", map[string]any{
				"limit":             decision.Limit,
				"retryAfterSeconds": retry,
			})
		default:
			c.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		}
	}

	var buf bytes.Buffer
	result, err := h.analytics.Export(c.UserContext(), identity, q, &buf)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("complaints-%s.csv", exportStamp(q))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Set("X-Export-Rows", strconv.Itoa(result.Rows))
	return c.Send(buf.Bytes())
}

func (h *AnalyticsHandler) requestContext(c *fiber.Ctx) (domain.Identity, service.AnalyticsQuery, error) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return domain.Identity{}, service.AnalyticsQuery{}, apperrors.NewUnauthorized("authentication required")
	}
	var params dto.AnalyticsQueryParams
	if err := c.QueryParser(&params); err != nil {
		return domain.Identity{}, service.AnalyticsQuery{}, apperrors.NewValidationError("invalid query parameters", map[string]any{"reason": err.Error()})
	}
	q, err := params.ToQuery()
	if err != nil {
		return domain.Identity{}, service.AnalyticsQuery{}, err
	}
	return identity, q, nil
}

func exportStamp(q service.AnalyticsQuery) string {
	switch {
	case q.From != "" && q.To != "":
		return q.From + "_" + q.To
	case q.From != "":
		return "from-" + q.From
	case q.To != "":
		return "to-" + q.To
	}
	return "all"
}
