// Package vectorstore provides Prometheus metrics for the example index.
package vectorstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SearchesTotal counts similarity searches by result.
	// Labels: result (success, error)
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zvernennia",
			Subsystem: "vectorstore",
			Name:      "searches_total",
			Help:      "Total number of similarity searches against the example index",
		},
		[]string{"result"},
	)

	// SearchDuration tracks similarity search latency.
	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "zvernennia",
			Subsystem: "vectorstore",
			Name:      "search_duration_seconds",
			Help:      "Duration of similarity searches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// ExamplesTotal tracks the size of the example index.
	ExamplesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "zvernennia",
			Subsystem: "vectorstore",
			Name:      "examples_total",
			Help:      "Number of labeled examples currently indexed",
		},
	)

	// SeedOperations counts seeding runs by result.
	// Labels: result (success, error)
	SeedOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "zvernennia",
			Subsystem: "vectorstore",
			Name:      "seed_operations_total",
			Help:      "Total number of example seeding operations",
		},
		[]string{"result"},
	)
)

// RecordSearch records the outcome and duration of a search.
func RecordSearch(success bool, seconds float64) {
	if success {
		SearchesTotal.WithLabelValues("success").Inc()
	} else {
		SearchesTotal.WithLabelValues("error").Inc()
	}
	SearchDuration.Observe(seconds)
}

// RecordExampleCount sets the indexed example gauge.
func RecordExampleCount(n int) {
	ExamplesTotal.Set(float64(n))
}

// RecordSeed records the outcome of a seeding run.
func RecordSeed(success bool) {
	if success {
		SeedOperations.WithLabelValues("success").Inc()
	} else {
		SeedOperations.WithLabelValues("error").Inc()
	}
}
