package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projecthub_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "projecthub_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projecthub_operations_total",
		Help: "Count of query/mutation operations by name and result",
	}, []string{"operation", "result"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "projecthub_operation_duration_seconds",
		Help:    "Duration of query/mutation operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "result"})

	tenantResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projecthub_tenant_resolutions_total",
		Help: "Count of tenant resolutions by outcome",
	}, []string{"outcome"})
)

// ObserveHTTPRequest records an HTTP request metric.
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveOperation records one structured-query operation.
func ObserveOperation(operation, result string, duration time.Duration) {
	operationsTotal.WithLabelValues(operation, result).Inc()
	operationDuration.WithLabelValues(operation, result).Observe(duration.Seconds())
}

// ObserveTenantResolution records a tenant-resolution outcome
// (resolved, no-slug-given, slug-not-found).
func ObserveTenantResolution(outcome string) {
	tenantResolutions.WithLabelValues(outcome).Inc()
}
