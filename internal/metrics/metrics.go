// Package metrics defines Prometheus metrics for the access panel.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "accesspanel_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accesspanel_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "accesspanel_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	LoginFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "accesspanel_login_failures_total",
			Help: "Total failed login attempts",
		},
	)

	AuditEntriesWritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "accesspanel_audit_entries_written_total",
			Help: "Total audit log entries recorded",
		},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "accesspanel_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		LoginFailures, AuditEntriesWritten, WSConnections,
	)
}
