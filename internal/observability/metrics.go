package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	errors           *prometheus.CounterVec
	aggregations     *prometheus.HistogramVec
	skippedRules     prometheus.Counter
	ledgerRows       *prometheus.HistogramVec
	exportsThrottled prometheus.Counter
}

// NewMetrics registers every collector on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_analytics_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "complaint_analytics_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: durationBuckets,
		}, []string{"route", "method"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_analytics_http_errors_total",
			Help: "Error envelopes returned by route and error code",
		}, []string{"route", "method", "code"}),
		aggregations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "complaint_analytics_aggregation_duration_seconds",
			Help:    "Time spent loading and aggregating one analytics view",
			Buckets: durationBuckets,
		}, []string{"view", "outcome"}),
		skippedRules: factory.NewCounter(prometheus.CounterOpts{
			Name: "complaint_analytics_sla_rules_skipped_total",
			Help: "Malformed SLA configuration rows skipped while loading rules",
		}),
		ledgerRows: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "complaint_analytics_ledger_rows",
			Help:    "Complaint rows loaded per aggregation",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"view"}),
		exportsThrottled: factory.NewCounter(prometheus.CounterOpts{
			Name: "complaint_analytics_exports_throttled_total",
			Help: "Export requests rejected by the per-user rate limit",
		}),
	}
}

// RecordRequest observes one completed HTTP request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError counts an error envelope.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// ObserveAggregation records the duration of one analytics view since start.
func (m *Metrics) ObserveAggregation(view string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.aggregations.WithLabelValues(view, outcome).Observe(time.Since(start).Seconds())
}

// ObserveLedgerRows records how many complaints a view loaded.
func (m *Metrics) ObserveLedgerRows(view string, n int) {
	if m == nil {
		return
	}
	m.ledgerRows.WithLabelValues(view).Observe(float64(n))
}

// AddSkippedRules counts malformed SLA rows.
func (m *Metrics) AddSkippedRules(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.skippedRules.Add(float64(n))
}

// IncrementExportsThrottled counts a rate-limited export.
func (m *Metrics) IncrementExportsThrottled() {
	if m == nil {
		return
	}
	m.exportsThrottled.Inc()
}
