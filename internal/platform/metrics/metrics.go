package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Coordinator outcomes by entity, operation and outcome code
	OperationsTotal *prometheus.CounterVec

	// Coordinator latency by entity and operation
	OperationDuration *prometheus.HistogramVec

	// Create attempts repeated after a retryable store conflict
	CreateRetries *prometheus.CounterVec

	// Deletes refused by the dependency guard, by the first blocking table
	DeleteBlocked *prometheus.CounterVec

	RateLimited prometheus.Counter

	// End-to-end HTTP latency by route pattern, method and status
	HTTPLatency *prometheus.HistogramVec
}

// New creates the service metrics and registers them with reg.
// Tests pass a fresh prometheus.NewRegistry() to stay isolated.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relief_operations_total",
			Help: "Total entity operations by entity, operation and outcome",
		}, []string{"entity", "operation", "outcome"}),

		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relief_operation_duration_seconds",
			Help:    "Duration of entity operations including retries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"entity", "operation"}),

		CreateRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relief_create_retries_total",
			Help: "Create attempts repeated after a retryable store conflict",
		}, []string{"entity"}),

		DeleteBlocked: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "relief_delete_blocked_total",
			Help: "Deletes refused because dependent rows still reference the target",
		}, []string{"entity", "dependent"}),

		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "relief_rate_limited_requests_total",
			Help: "Requests rejected by the per-client rate limiter",
		}),

		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relief_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

// ObserveOperation records one coordinator operation.
func (m *Metrics) ObserveOperation(entity, operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(entity, operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(entity, operation).Observe(d.Seconds())
}

// IncrementCreateRetries counts a repeated create attempt.
func (m *Metrics) IncrementCreateRetries(entity string) {
	if m != nil {
		m.CreateRetries.WithLabelValues(entity).Inc()
	}
}

// IncrementDeleteBlocked counts a delete refused by the dependency guard.
func (m *Metrics) IncrementDeleteBlocked(entity, dependent string) {
	if m != nil {
		m.DeleteBlocked.WithLabelValues(entity, dependent).Inc()
	}
}

// IncrementRateLimited counts a request rejected with 429.
func (m *Metrics) IncrementRateLimited() {
	if m != nil {
		m.RateLimited.Inc()
	}
}

// ObserveHTTPLatency records the duration of one HTTP request.
func (m *Metrics) ObserveHTTPLatency(route, method, status string, d time.Duration) {
	if m != nil {
		m.HTTPLatency.WithLabelValues(route, method, status).Observe(d.Seconds())
	}
}
