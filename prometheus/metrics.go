package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Entity operation counter
	EntityOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_entity_operations_total",
			Help: "Total number of entity operations",
		},
		[]string{"kind", "operation"}, // operation can be "create", "list", "get", "update", "delete"
	)

	// Scope denial counter: rows or requests hidden by tenant isolation
	ScopeDeniedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_scope_denied_total",
			Help: "Total number of requests denied by tenant scope checks",
		},
		[]string{"kind"},
	)

	// Tenant reassignment counter
	TenantReassignCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_tenant_reassign_total",
			Help: "Total number of cross-tenant entity reassignments",
		},
		[]string{"kind"},
	)

	// Webhook ingestion counter
	WebhookCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_webhook_events_total",
			Help: "Total number of webhook events received",
		},
		[]string{"source", "result"}, // source: "gps", "whatsapp"; result: "accepted", "rejected", "unmatched"
	)

	// Error counters
	ErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_errors_total",
			Help: "Total number of request errors",
		},
		[]string{"type"}, // type can be "invalid_request", "db_error", "owner_lookup_failed" etc.
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleet_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleet_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // operation can be "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fleet_info",
			Help: "Information about the fleet service",
		},
		[]string{"version"},
	)

	// Active tenants
	ActiveTenantsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleet_active_tenants",
			Help: "Number of currently active tenants",
		},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(EntityOperationCounter)
	prometheus.MustRegister(ScopeDeniedCounter)
	prometheus.MustRegister(TenantReassignCounter)
	prometheus.MustRegister(WebhookCounter)
	prometheus.MustRegister(ErrorCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(InfoGauge)
	prometheus.MustRegister(ActiveTenantsGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// RecordEntityOperation increments the entity operation counter
func RecordEntityOperation(kind, operation string) {
	EntityOperationCounter.WithLabelValues(kind, operation).Inc()
}

// RecordScopeDenied increments the scope denial counter
func RecordScopeDenied(kind string) {
	ScopeDeniedCounter.WithLabelValues(kind).Inc()
}

// RecordTenantReassign increments the reassignment counter
func RecordTenantReassign(kind string) {
	TenantReassignCounter.WithLabelValues(kind).Inc()
}

// RecordWebhook increments the webhook ingestion counter
func RecordWebhook(source, result string) {
	WebhookCounter.WithLabelValues(source, result).Inc()
}

// RecordError increments the error counter
func RecordError(errType string) {
	ErrorCounter.WithLabelValues(errType).Inc()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.WithLabelValues(endpoint, method, status).Inc()

			return err
		}
	}
}
