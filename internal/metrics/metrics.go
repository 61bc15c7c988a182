// Package metrics defines Prometheus metrics for the activity service.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bizledger_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizledger_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizledger_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	// RecordsWritten counts change record writes by result ("ok", "error").
	RecordsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizledger_activity_records_written_total",
			Help: "Change records written to the activity log",
		},
		[]string{"result"},
	)

	RecordsPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bizledger_activity_records_purged_total",
			Help: "Change records removed by retention",
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bizledger_activity_queue_depth",
			Help: "Change records waiting in the write queue",
		},
	)

	QueueDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bizledger_activity_queue_dropped_total",
			Help: "Change records rejected because the write queue was full",
		},
	)

	// NameLookups counts entity name resolutions by kind and outcome
	// ("resolved", "unresolved").
	NameLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizledger_name_lookups_total",
			Help: "Entity name lookups by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// NameCache counts cache reads by result ("hit", "miss", "error").
	NameCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bizledger_name_cache_total",
			Help: "Entity name cache reads",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, RateLimited,
		RecordsWritten, RecordsPurged,
		QueueDepth, QueueDropped,
		NameLookups, NameCache,
	)
}
