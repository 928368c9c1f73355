package http

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-analytics/internal/api/http/handlers"
	"github.com/spec-kit/complaint-analytics/internal/auth"
	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/observability"
	"github.com/spec-kit/complaint-analytics/internal/persistence"
	"github.com/spec-kit/complaint-analytics/internal/service"
	"github.com/spec-kit/complaint-analytics/internal/testutil"
)

type stubLimiter struct {
	decision persistence.LimitDecision
	err      error
}

func (s *stubLimiter) Allow(ctx context.Context, userID string) (persistence.LimitDecision, error) {
	return s.decision, s.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

type RouterSuite struct {
	suite.Suite
	app     *fiber.App
	tokens  *auth.TokenManager
	ledger  *testutil.FakeLedger
	limiter *stubLimiter
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	s.tokens = auth.NewTokenManager("test-secret", 10)
	s.limiter = &stubLimiter{decision: persistence.LimitDecision{Allowed: true, Limit: 10, Remaining: 9}}
	s.ledger = &testutil.FakeLedger{Complaints: []domain.Complaint{
		testutil.NewTestComplaint("WATER", testutil.Date(2024, time.March, 1), testutil.InWard("ward-1"), testutil.InSubZone("z-1"), testutil.ClosedAfter(12*time.Hour)),
		testutil.NewTestComplaint("WATER", testutil.Date(2024, time.March, 2), testutil.InWard("ward-1"), testutil.ClosedAfter(30*time.Hour)),
		testutil.NewTestComplaint("ROADS", testutil.Date(2024, time.March, 3), testutil.InWard("ward-2")),
	}}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	logger := zap.NewNop()

	svc := service.NewAnalyticsService(service.AnalyticsDependencies{
		ComplaintRepo: s.ledger,
		WardRepo: &testutil.FakeGeo{
			Wards:    []domain.Ward{{ID: "ward-1", Name: "Central"}, {ID: "ward-2", Name: "Harbour"}},
			SubZones: []domain.SubZone{{ID: "z-1", WardID: "ward-1", Name: "Market"}},
		},
		ConfigRepo: &testutil.FakeConfig{Entries: []domain.ConfigEntry{testutil.SLAEntry("WATER", "Water Supply", 24)}},
		UserRepo:   &testutil.FakeUsers{Counts: map[domain.Role]int{domain.RoleCitizen: 5}},
		Logger:     logger,
		Metrics:    metrics,
		Now:        func() time.Time { return now },
	})

	s.app = fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger, metrics)})
	RegisterMiddlewares(s.app, logger, metrics, 5*time.Second)
	RegisterRoutes(s.app, RouteConfig{
		Health:         handlers.NewHealthHandler("complaint-analytics", "test", stubPinger{}, stubPinger{err: errors.New("redis down")}),
		Analytics:      handlers.NewAnalyticsHandler(svc, s.limiter, logger, metrics),
		AuthMiddleware: auth.NewAuthMiddleware(s.tokens),
		Gatherer:       reg,
	})
}

func (s *RouterSuite) token(identity domain.Identity) string {
	token, _, err := s.tokens.GenerateToken(identity)
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) get(path string, identity *domain.Identity) (int, []byte, map[string]string) {
	req := httptest.NewRequest("GET", path, nil)
	if identity != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(*identity))
	}
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	headers := map[string]string{}
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}
	return resp.StatusCode, body, headers
}

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func adminIdentity() *domain.Identity {
	return &domain.Identity{UserID: "admin-1", Role: domain.RoleAdministrator}
}

func officerIdentity(ward string) *domain.Identity {
	return &domain.Identity{UserID: "officer-1", Role: domain.RoleWardOfficer, WardID: &ward}
}

func (s *RouterSuite) TestSummary() {
	status, body, _ := s.get("/api/analytics/summary?from=2024-03-01&to=2024-03-10", adminIdentity())

	s.Equal(fiber.StatusOK, status)
	payload := decode(s.T(), body)
	s.Equal(true, payload["success"])
	data := payload["data"].(map[string]any)
	s.Equal(3.0, data["total"])
	s.Equal(50.0, data["sla"].(map[string]any)["compliance"])
	s.Equal(5.0, data["userRoleCounts"].(map[string]any)["CITIZEN"])
	s.Len(data["countsByStatus"].(map[string]any), len(domain.AllComplaintStatuses))
}

func (s *RouterSuite) TestReportForOfficerIsScoped() {
	status, body, _ := s.get("/api/analytics/report?ward=ward-2", officerIdentity("ward-1"))

	s.Equal(fiber.StatusOK, status)
	data := decode(s.T(), body)["data"].(map[string]any)
	s.Equal(2.0, data["complaints"].(map[string]any)["total"])
	s.NotContains(data, "wards")
	s.Equal(false, data["performance"].(map[string]any)["available"])
}

func (s *RouterSuite) TestHeatmapCrossWardIsForbidden() {
	status, body, _ := s.get("/api/analytics/heatmap?ward=ward-2", officerIdentity("ward-1"))

	s.Equal(fiber.StatusForbidden, status)
	payload := decode(s.T(), body)
	s.Equal(false, payload["success"])
	s.NotEmpty(payload["message"])
	s.Equal("FORBIDDEN", payload["error"].(map[string]any)["code"])
}

func (s *RouterSuite) TestHeatmapShape() {
	status, body, _ := s.get("/api/analytics/heatmap", adminIdentity())

	s.Equal(fiber.StatusOK, status)
	data := decode(s.T(), body)["data"].(map[string]any)
	s.Equal([]any{"Central", "Harbour"}, data["yLabels"])
	s.Equal("Complaint Type", data["xAxisLabel"])
	s.Equal(3.0, data["meta"].(map[string]any)["total"])
}

func (s *RouterSuite) TestValidationErrors() {
	cases := []string{
		"/api/analytics/report?from=2024-03-10&to=2024-03-01",
		"/api/analytics/report?from=10-03-2024",
		"/api/analytics/summary?status=ARCHIVED",
		"/api/analytics/report?limit=0&page=-2",
	}
	for _, path := range cases {
		status, body, _ := s.get(path, adminIdentity())
		s.Equal(fiber.StatusBadRequest, status, path)
		s.Equal("VALIDATION_FAILED", decode(s.T(), body)["error"].(map[string]any)["code"], path)
	}
}

func (s *RouterSuite) TestAuthentication() {
	status, body, _ := s.get("/api/analytics/summary", nil)

	s.Equal(fiber.StatusUnauthorized, status)
	s.Equal("UNAUTHORIZED", decode(s.T(), body)["error"].(map[string]any)["code"])
}

func (s *RouterSuite) TestExportCSV() {
	status, body, headers := s.get("/api/analytics/export?from=2024-03-01&to=2024-03-10", officerIdentity("ward-1"))

	s.Equal(fiber.StatusOK, status)
	s.True(strings.HasPrefix(headers["Content-Type"], "text/csv"))
	s.Contains(headers["Content-Disposition"], "complaints-2024-03-01_2024-03-10.csv")
	s.Equal("9", headers["X-Ratelimit-Remaining"])
	records, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
	s.Require().NoError(err)
	s.Len(records, 3)
	s.Equal("COMPLIANT", records[1][12])
	s.Equal("BREACHED", records[2][12])
}

func (s *RouterSuite) TestExportRateLimited() {
	s.limiter.decision = persistence.LimitDecision{Allowed: false, Limit: 10, RetryAfter: 1500 * time.Millisecond}

	status, body, headers := s.get("/api/analytics/export", adminIdentity())

	s.Equal(fiber.StatusTooManyRequests, status)
	s.Equal("2", headers["Retry-After"])
	s.Equal("RATE_LIMITED", decode(s.T(), body)["error"].(map[string]any)["code"])
	s.Empty(s.ledger.Calls)
}

func (s *RouterSuite) TestExportFailsOpenWhenLimiterErrors() {
	s.limiter.err = errors.New("redis down")

	status, _, _ := s.get("/api/analytics/export", adminIdentity())

	s.Equal(fiber.StatusOK, status)
}

func (s *RouterSuite) TestHealthAndMetrics() {
	status, _, _ := s.get("/health/live", nil)
	s.Equal(fiber.StatusOK, status)

	status, body, _ := s.get("/health/ready", nil)
	s.Equal(fiber.StatusServiceUnavailable, status)
	details := decode(s.T(), body)["error"].(map[string]any)["details"].(map[string]any)
	s.Equal("ok", details["postgres"])
	s.Equal("redis down", details["redis"])

	s.get("/api/analytics/summary", adminIdentity())
	status, body, _ = s.get("/metrics", nil)
	s.Equal(fiber.StatusOK, status)
	s.Contains(string(body), "complaint_analytics_http_requests_total")
	s.Contains(string(body), "complaint_analytics_aggregation_duration_seconds")
}

func (s *RouterSuite) TestUnknownRouteUsesEnvelope() {
	status, body, _ := s.get("/nope", nil)

	s.Equal(fiber.StatusNotFound, status)
	payload := decode(s.T(), body)
	s.Equal(false, payload["success"])
	s.Equal("NOT_FOUND", payload["error"].(map[string]any)["code"])
}

func (s *RouterSuite) TestUnmatchedPathsShareOneMetricsLabel() {
	for _, path := range []string{"/x1", "/x2", "/x3/deeper", "/api/analytics/nope"} {
		status, _, _ := s.get(path, adminIdentity())
		s.Equal(fiber.StatusNotFound, status, path)
	}

	_, body, _ := s.get("/metrics", nil)
	exposition := string(body)
	s.Contains(exposition, `route="unmatched"`)
	for _, path := range []string{"/x1", "/x2", "/x3/deeper", "/api/analytics/nope"} {
		s.NotContains(exposition, `route="`+path+`"`)
	}
}

func (s *RouterSuite) TestReportPageBeyondRange() {
	status, body, _ := s.get("/api/analytics/report?page=4611686018427387905&limit=2", adminIdentity())

	s.Equal(fiber.StatusOK, status)
	data := decode(s.T(), body)["data"].(map[string]any)
	s.NotContains(data, "wards")
	pagination := data["metadata"].(map[string]any)["pagination"].(map[string]any)
	s.Equal(1.0, pagination["pages"])
	s.Equal(2.0, pagination["total"])
}

func (s *RouterSuite) TestReportRangeTooLong() {
	status, body, _ := s.get("/api/analytics/report?from=0001-01-01&to=9999-12-31", adminIdentity())

	s.Equal(fiber.StatusBadRequest, status)
	s.Equal("VALIDATION_FAILED", decode(s.T(), body)["error"].(map[string]any)["code"])
	s.Empty(s.ledger.Calls)
}

func TestPanicIsRecovered(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	app.Get("/boom", func(c *fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
