package db

import "time"

// Prediction sources
const (
	SourceHTTP        = "http"
	SourceInteractive = "interactive"
	SourceFeed        = "feed"
)

// Database connection constants
const (
	// ConnectionRetrySleep is the sleep duration between connection retries
	ConnectionRetrySleep = 2 * time.Second
	// maxConnectionRetries is the number of retries for initial connection
	maxConnectionRetries = 10
)

// Database pool default constants
const (
	defaultMaxConns          int32         = 10
	defaultMinConns          int32         = 1
	defaultMaxConnIdleTime   time.Duration = 30 * time.Minute
	defaultMaxConnLifetime   time.Duration = time.Hour
	defaultHealthCheckPeriod time.Duration = time.Minute
)

// Query limits
const (
	// ExcerptMaxRunes bounds the stored input text per prediction.
	ExcerptMaxRunes = 500
	// DefaultRecentLimit is used when a filter sets no limit.
	DefaultRecentLimit = 50
	// MaxRecentLimit caps RecentPredictions.
	MaxRecentLimit = 1000
)

const (
	tablePredictions  = "predictions"
	tableTrainingRuns = "training_runs"
)
