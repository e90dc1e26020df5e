package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Model Session Metrics
var (
	// ModelLoadsTotal tracks model load attempts by status
	ModelLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sketchpad_model_loads_total",
			Help: "Total model load attempts by status",
		},
		[]string{"status"},
	)

	// ModelLoadDuration tracks how long the model took to load in seconds
	ModelLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sketchpad_model_load_duration_seconds",
			Help:    "Model load duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)
)

// Inference Metrics
var (
	// InferenceRequestsTotal tracks inference requests by outcome (success/not_ready/error)
	InferenceRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sketchpad_inference_requests_total",
			Help: "Total inference requests by status",
		},
		[]string{"status"},
	)

	// InferenceDuration tracks engine execution latency in seconds
	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sketchpad_inference_duration_seconds",
			Help:    "Inference execution duration in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		},
	)

	// PredictionsTotal tracks predicted classes
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sketchpad_predictions_total",
			Help: "Total predictions by predicted label",
		},
		[]string{"label"},
	)

	// StaleResultsTotal tracks results dropped because a newer gesture or clear superseded them
	StaleResultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sketchpad_stale_results_total",
			Help: "Inference results discarded because they were superseded",
		},
	)
)

// Drawing Metrics
var (
	// GesturesTotal tracks completed gestures
	GesturesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sketchpad_gestures_total",
			Help: "Total completed gestures",
		},
	)

	// ClearsTotal tracks surface clears
	ClearsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sketchpad_clears_total",
			Help: "Total surface clears",
		},
	)
)
