package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// articlesProcessedTotal counts completed runs by source and model.
	articlesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conspectus_articles_processed_total",
			Help: "Total number of articles processed end to end",
		},
		[]string{"source", "model"},
	)

	// cacheHitsTotal counts requests answered from the store without
	// extraction or generation.
	cacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "conspectus_cache_hits_total",
			Help: "Total number of requests served from the summary cache",
		},
	)

	// failuresTotal counts failed runs by the stage that failed.
	failuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conspectus_failures_total",
			Help: "Total number of failed runs by pipeline stage",
		},
		[]string{"stage"},
	)

	// processingDuration measures the full run duration, cache hits excluded.
	processingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "conspectus_processing_duration_seconds",
			Help:    "End-to-end processing duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"source"},
	)
)
