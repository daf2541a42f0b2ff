package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the full ranking pipeline per request
	RecoRequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reco_request_duration_seconds",
		Help:    "Latency of the recommendation pipeline",
		Buckets: prometheus.DefBuckets,
	})

	RecoRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reco_requests_total",
		Help: "Total recommendation requests served",
	})

	// Per-strategy recall outcomes: ok, empty, timeout, error
	RecallStrategyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_recall_strategy_total",
			Help: "Recall strategy executions by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	// Picks made after the merchant quota was exhausted. A growing rate here
	// means a single merchant is dominating the tail of results.
	MMRQuotaFallbackTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reco_mmr_quota_fallback_total",
		Help: "MMR selections that ignored the per-merchant quota",
	})

	CappedItemsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reco_capped_items_total",
		Help: "Items removed from results by frequency capping",
	})

	ExploreTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reco_explore_total",
		Help: "Requests where exploration reordering was applied",
	})

	FeedbackEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_feedback_events_total",
			Help: "Feedback and behavior events by event type",
		},
		[]string{"event_type"},
	)

	ResultCategoryEntropy = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reco_result_category_entropy",
		Help:    "Normalized Shannon entropy of result category distribution",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})
)

func Init() {
	prometheus.MustRegister(
		RecoRequestDuration,
		RecoRequestsTotal,
		RecallStrategyTotal,
		MMRQuotaFallbackTotal,
		CappedItemsTotal,
		ExploreTotal,
		FeedbackEventsTotal,
		ResultCategoryEntropy,
	)
}
