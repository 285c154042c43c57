package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "evidex"

// Catalog and research search metrics.
var (
	CatalogSearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_search_total",
			Help:      "Catalog searches by outcome (all, direct, corrected, corrected_any_word, none)",
		},
		[]string{"catalog", "outcome"},
	)

	CatalogSearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_search_duration_seconds",
			Help:      "Catalog search duration in seconds",
			Buckets:   []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		},
		[]string{"catalog"},
	)

	ResearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "research_requests_total",
			Help:      "Total number of upstream literature requests",
		},
		[]string{"operation", "status"},
	)

	ResearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "research_request_duration_seconds",
			Help:      "Upstream literature request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	ResponseCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_total",
			Help:      "Response cache hits and misses",
		},
		[]string{"cache", "result"}, // cache: pubmed/ai, result: hit/miss
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers catalog, research and cache metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(CatalogSearchTotal)
	prometheus.MustRegister(CatalogSearchDuration)
	prometheus.MustRegister(ResearchRequestsTotal)
	prometheus.MustRegister(ResearchRequestDuration)
	prometheus.MustRegister(ResponseCacheTotal)
	searchMetricsRegistered = true
}
