package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline, linker and cache metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Intelligent searches by outcome",
		},
		[]string{"outcome"}, // "results" / "empty" / "cached" / "fallback"
	)

	SearchStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_stage_duration_seconds",
			Help:      "Ranking stage duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"stage"},
	)

	SearchStageCandidates = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_stage_candidates",
			Help:      "Candidates surviving each ranking stage per collection",
			Buckets:   []float64{0, 1, 5, 10, 15, 20, 30, 50},
		},
		[]string{"stage", "collection"},
	)

	LinkAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_attempts_total",
			Help:      "Linker attempts by collection, strategy and outcome",
		},
		[]string{"collection", "strategy", "outcome"}, // outcome: "resolved" / "fallback" / "cached"
	)

	LinkConfidence = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "link_confidence",
			Help:      "Confidence of linker results",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"collection"},
	)

	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Tiered cache lookups by cache, tier and result",
		},
		[]string{"cache", "tier", "result"},
	)

	PersistFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Failed background writes to the persistence backend",
		},
		[]string{"component"},
	)
)

var engineMetricsRegistered bool

// RegisterEngineMetrics registers the search, linking and cache metrics. Must be called once from main.
func RegisterEngineMetrics() {
	if engineMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchStageDuration)
	prometheus.MustRegister(SearchStageCandidates)
	prometheus.MustRegister(LinkAttemptsTotal)
	prometheus.MustRegister(LinkConfidence)
	prometheus.MustRegister(CacheLookupsTotal)
	prometheus.MustRegister(PersistFailuresTotal)
	engineMetricsRegistered = true
}
