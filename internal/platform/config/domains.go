package config

import "time"

// DatabaseConfig holds database connection settings. Storage is disabled
// when PostgresDSN is empty.
type DatabaseConfig struct {
	PostgresDSN       string        `env:"POSTGRES_DSN"`
	MaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	MinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	MaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	MaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	HealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

// Enabled reports whether a database is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.PostgresDSN != ""
}

// TextConfig holds normalization settings.
type TextConfig struct {
	StemmingEnabled  bool   `env:"STEMMING_ENABLED" envDefault:"true"`
	DiacriticFolding bool   `env:"DIACRITIC_FOLDING" envDefault:"false"`
	StopwordsPath    string `env:"STOPWORDS_PATH"`
	IncludeTitle     bool   `env:"INCLUDE_TITLE" envDefault:"false"`
}

// TrainingConfig holds vocabulary, scorer and split settings.
type TrainingConfig struct {
	DatasetPath    string  `env:"DATASET_PATH" envDefault:"data/news.csv"`
	MaxFeatures    int     `env:"MAX_FEATURES" envDefault:"10000"`
	NGramMax       int     `env:"NGRAM_MAX" envDefault:"2"`
	MinDF          int     `env:"MIN_DF" envDefault:"1"`
	TestSize       float64 `env:"TEST_SIZE" envDefault:"0.2"`
	SplitSeed      uint64  `env:"SPLIT_SEED" envDefault:"42"`
	TrainSeed      uint64  `env:"TRAIN_SEED" envDefault:"10"`
	LearningRate   float64 `env:"LEARNING_RATE" envDefault:"0.5"`
	Regularization float64 `env:"REGULARIZATION" envDefault:"0"`
	MaxIterations  int     `env:"MAX_ITERATIONS" envDefault:"50"`
}

// ServerConfig holds HTTP surface settings.
type ServerConfig struct {
	HTTPPort       int           `env:"HTTP_PORT" envDefault:"8080"`
	PredictRPS     float64       `env:"PREDICT_RPS" envDefault:"20"`
	PredictBurst   int           `env:"PREDICT_BURST" envDefault:"40"`
	MaxRequestBody int64         `env:"MAX_REQUEST_BODY" envDefault:"1048576"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	// TrustedProxies lists IPs or CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string      `env:"TRUSTED_PROXIES" envSeparator:","`
	LimiterIdle    time.Duration `env:"PREDICT_LIMITER_IDLE" envDefault:"10m"`
}

// FeedConfig holds feed classification settings.
type FeedConfig struct {
	URLs          []string      `env:"FEED_URLS" envSeparator:","`
	SourcesFile   string        `env:"FEEDS_FILE"`
	PollInterval  time.Duration `env:"FEED_POLL_INTERVAL" envDefault:"15m"`
	FetchArticles bool          `env:"FEED_FETCH_ARTICLES" envDefault:"false"`
	MaxItems      int           `env:"FEED_MAX_ITEMS" envDefault:"50"`
	SeenCapacity  int           `env:"FEED_SEEN_CAPACITY" envDefault:"10000"`
	RPS           float64       `env:"FEED_RPS" envDefault:"1"`
	Timeout       time.Duration `env:"FEED_TIMEOUT" envDefault:"30s"`
	UserAgent     string        `env:"USER_AGENT" envDefault:"fakenews-detector/1.0"`
}
