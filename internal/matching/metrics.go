package matching

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rankDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "matching_rank_duration_seconds",
			Help: "Time spent ranking a candidate pool",
		},
		[]string{"mode"},
	)

	compositeScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_composite_scores",
			Help:    "Distribution of composite match scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	semanticDegradedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_semantic_degraded_total",
			Help: "Semantic scoring calls that failed and fell back to the base score",
		},
	)

	candidatePoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_candidate_pool_size",
			Help:    "Candidates loaded per ranking request",
			Buckets: prometheus.LinearBuckets(0, 20, 6),
		},
	)
)

func recordRankDuration(mode string, d time.Duration) {
	rankDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func recordCompositeScore(score float64) {
	compositeScores.Observe(score)
}

func recordSemanticDegraded() {
	semanticDegradedTotal.Inc()
}

func recordPoolSize(n int) {
	candidatePoolSize.Observe(float64(n))
}
