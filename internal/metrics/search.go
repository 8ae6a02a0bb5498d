package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchmesh",
			Name:      "search_requests_total",
			Help:      "Total number of orchestrated search requests",
		},
		[]string{"mode", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchmesh",
			Name:      "search_duration_seconds",
			Help:      "End-to-end search orchestration duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode"},
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchmesh",
			Name:      "cache_total",
			Help:      "Response cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)

	BackendQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchmesh",
			Name:      "backend_queries_total",
			Help:      "Per-database full-text queries",
		},
		[]string{"database", "status"},
	)

	BackendQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchmesh",
			Name:      "backend_query_duration_seconds",
			Help:      "Per-database full-text query duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"database"},
	)

	RateLimitRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchmesh",
			Name:      "ratelimit_rejections_total",
			Help:      "Requests rejected by the sliding-window rate limiter",
		},
		[]string{"tier"},
	)

	EnhancerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchmesh",
			Name:      "enhancer_requests_total",
			Help:      "Semantic query enhancement attempts",
		},
		[]string{"status"}, // "success" / "degraded"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(CacheTotal)
	prometheus.MustRegister(BackendQueriesTotal)
	prometheus.MustRegister(BackendQueryDuration)
	prometheus.MustRegister(RateLimitRejectionsTotal)
	prometheus.MustRegister(EnhancerRequestsTotal)
	searchMetricsRegistered = true
}
