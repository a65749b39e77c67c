// Package metrics defines the Prometheus instruments recorded by the recommendation engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recommendation kinds used as label values.
const (
	KindProducts = "products"
	KindStores   = "stores"
	KindProfile  = "profile"
)

var (
	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "osusume_recommendation_duration_seconds",
			Help:    "Duration of recommendation requests, including corpus load and vectorization",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	RecommendationResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "osusume_recommendation_results",
			Help:    "Number of entries returned per recommendation request",
			Buckets: []float64{0, 1, 5, 10, 15, 30, 50, 100},
		},
		[]string{"kind"},
	)

	// SeedSource counts which signal seeded a request: preferences, history or none.
	SeedSource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osusume_seed_source_total",
			Help: "Total recommendation requests by seed source",
		},
		[]string{"source"},
	)

	DataSourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "osusume_data_source_errors_total",
			Help: "Total failed reads from the catalog store",
		},
		[]string{"operation"},
	)

	BackfillAdded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "osusume_backfill_stores_total",
			Help: "Total stores appended by backfill",
		},
	)
)

// ObserveRecommendation records the duration and result size of one request.
func ObserveRecommendation(kind string, start time.Time, results int) {
	RecommendationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	RecommendationResults.WithLabelValues(kind).Observe(float64(results))
}
