package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "urbanflow_engine_ticks_total",
		Help: "Number of simulation ticks processed.",
	})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "urbanflow_engine_tick_duration_seconds",
		Help:    "Wall time spent processing one tick.",
		Buckets: prometheus.DefBuckets,
	})

	intersectionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "urbanflow_engine_intersection_errors_total",
		Help: "Per-intersection processing failures, isolated from the rest of the tick.",
	}, []string{"intersection"})

	modelFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "urbanflow_forecast_model_fallbacks_total",
		Help: "Predictions served by the local trend baseline instead of the primary model.",
	})

	recommendationsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "urbanflow_recommendations_generated_total",
		Help: "Recommendations emitted by the recommendation engine.",
	})

	recommendationsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "urbanflow_recommendations_resolved_total",
		Help: "Recommendations resolved by operators, by terminal status.",
	}, []string{"status"})
)
