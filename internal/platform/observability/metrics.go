package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by several metrics.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusSkipped  = "skipped"
	StatusLimited  = "rate_limited"
	StatusRejected = "rejected"
)

var (
	Predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fakenews_predictions_total",
		Help: "The total number of classified articles by decided label",
	}, []string{"label"})

	PredictionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fakenews_prediction_errors_total",
		Help: "The total number of failed classifications by error kind",
	}, []string{"kind"})

	ProbabilityFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fakenews_probability_fallback_total",
		Help: "Decisions made from the hard label because the scorer returned no usable probability",
	})

	PredictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fakenews_prediction_duration_seconds",
		Help:    "Time spent classifying one article",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})

	ProbFake = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fakenews_prob_fake",
		Help:    "Distribution of P(FAKE) produced by the scorer",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 9),
	})

	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fakenews_api_requests_total",
		Help: "Predict API requests by outcome",
	}, []string{"status"})

	FeedItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fakenews_feed_items_total",
		Help: "Feed items seen by the feed classifier by outcome",
	}, []string{"status"})

	FeedFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fakenews_feed_fetch_duration_seconds",
		Help:    "Duration of feed and article fetches",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	FeedLastSuccessTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fakenews_feed_last_success_timestamp",
		Help: "Unix timestamp of the last feed pass that fetched at least one feed",
	})

	TrainingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fakenews_training_runs_total",
		Help: "Completed training runs by outcome",
	}, []string{"status"})

	ModelInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fakenews_model_info",
		Help: "Loaded model bundle; the value is always 1",
	}, []string{"model_id", "threshold"})

	ModelVocabularySize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fakenews_model_vocabulary_size",
		Help: "Number of terms in the loaded vocabulary",
	})
)
