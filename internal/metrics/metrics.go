package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal     prometheus.CounterVec
	HTTPRequestDuration   prometheus.HistogramVec
	HTTPActiveConnections prometheus.GaugeVec

	// Feed pipeline metrics
	FeedRunsTotal         prometheus.CounterVec
	FeedRunDuration       prometheus.HistogramVec
	FeedTierFetchesTotal  prometheus.CounterVec
	FeedCandidateCount    prometheus.HistogramVec
	FeedStaleCommitsTotal prometheus.Counter
	FeedPagesServedTotal  prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// Database metrics
	DatabaseQueryDuration prometheus.HistogramVec
	DatabaseQueriesTotal  prometheus.CounterVec

	// WebSocket metrics
	WSConnectionsActive prometheus.Gauge
	WSMessagesSentTotal prometheus.CounterVec

	// Auth metrics
	OTPIssuedTotal   prometheus.CounterVec
	OTPVerifiedTotal prometheus.CounterVec

	// Error metrics
	ErrorsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			FeedRunsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "feed_runs_total",
					Help: "Total feed pipeline runs",
				},
				[]string{"mode", "status"},
			),
			FeedRunDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "feed_run_duration_seconds",
					Help:    "Feed pipeline end-to-end latency in seconds",
					Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
				},
				[]string{"mode"},
			),
			FeedTierFetchesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "feed_tier_fetches_total",
					Help: "Candidate fetch attempts per tier",
				},
				[]string{"tier", "outcome"},
			),
			FeedCandidateCount: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "feed_candidate_count",
					Help:    "Deduplicated candidate pool size per run",
					Buckets: []float64{0, 10, 25, 50, 100, 250, 500, 1000},
				},
				[]string{"mode"},
			),
			FeedStaleCommitsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "feed_stale_commits_total",
					Help: "Pipeline results discarded because a newer run already committed",
				},
			),
			FeedPagesServedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "feed_pages_served_total",
					Help: "Cursor pages served",
				},
				[]string{"has_next"},
			),

			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache_name"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache_name"},
			),

			DatabaseQueryDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "database_query_duration_seconds",
					Help:    "Database query latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
				},
				[]string{"query_type", "table"},
			),
			DatabaseQueriesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "database_queries_total",
					Help: "Total database queries",
				},
				[]string{"query_type", "table", "status"},
			),

			WSConnectionsActive: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "ws_connections_active",
					Help: "Currently open WebSocket connections",
				},
			),
			WSMessagesSentTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ws_messages_sent_total",
					Help: "WebSocket messages delivered to clients",
				},
				[]string{"type"},
			),

			OTPIssuedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "otp_issued_total",
					Help: "One-time codes issued",
				},
				[]string{"channel"},
			),
			OTPVerifiedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "otp_verified_total",
					Help: "One-time code verification attempts",
				},
				[]string{"outcome"},
			),

			ErrorsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "errors_total",
					Help: "Total application errors",
				},
				[]string{"error_type", "endpoint"},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed
func Get() *Metrics {
	if instance == nil {
		return Initialize()
	}
	return instance
}

// RecordTierFetch records a candidate fetch attempt outcome for one tier
func RecordTierFetch(tier, outcome string) {
	Get().FeedTierFetchesTotal.WithLabelValues(tier, outcome).Inc()
}

// RecordFeedRun records a completed pipeline run
func RecordFeedRun(mode, status string, seconds float64) {
	m := Get()
	m.FeedRunsTotal.WithLabelValues(mode, status).Inc()
	m.FeedRunDuration.WithLabelValues(mode).Observe(seconds)
}

// RecordStaleCommit records a pipeline result dropped by the sequence guard
func RecordStaleCommit() {
	Get().FeedStaleCommitsTotal.Inc()
}

// RecordError records an application error by type and endpoint
func RecordError(errorType, endpoint string) {
	Get().ErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}
