package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	errThresholdRange = errors.New("DECISION_THRESHOLD must be within [0, 1]")
	errTestSizeRange  = errors.New("TEST_SIZE must be within (0, 1)")
	errMaxFeatures    = errors.New("MAX_FEATURES must be positive")
	errNGramMax       = errors.New("NGRAM_MAX must be at least 1")
	errHTTPPort       = errors.New("HTTP_PORT must be within 1..65535")
)

const maxPort = 65535

type Config struct {
	AppEnv            string  `env:"APP_ENV" envDefault:"local"`
	LogLevel          string  `env:"LOG_LEVEL" envDefault:"info"`
	ModelDir          string  `env:"MODEL_DIR" envDefault:"model"`
	DecisionThreshold float64 `env:"DECISION_THRESHOLD" envDefault:"0.70"`

	Database DatabaseConfig
	Text     TextConfig
	Training TrainingConfig
	Server   ServerConfig
	Feed     FeedConfig
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyAliases(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if math.IsNaN(c.DecisionThreshold) || c.DecisionThreshold < 0 || c.DecisionThreshold > 1 {
		errs = append(errs, fmt.Errorf("%w: got %v", errThresholdRange, c.DecisionThreshold))
	}

	if c.Training.TestSize <= 0 || c.Training.TestSize >= 1 {
		errs = append(errs, fmt.Errorf("%w: got %v", errTestSizeRange, c.Training.TestSize))
	}

	if c.Training.MaxFeatures <= 0 {
		errs = append(errs, errMaxFeatures)
	}

	if c.Training.NGramMax < 1 {
		errs = append(errs, errNGramMax)
	}

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > maxPort {
		errs = append(errs, errHTTPPort)
	}

	return errors.Join(errs...)
}

// applyAliases honors the older variable names the detector used to read.
func applyAliases(cfg *Config) {
	if !hasEnv("POSTGRES_DSN") {
		setStringFromEnv("DATABASE_URL", &cfg.Database.PostgresDSN)
	}

	if !hasEnv("DECISION_THRESHOLD") {
		setFloat64FromEnv("FAKE_THRESHOLD", &cfg.DecisionThreshold)
	}
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}

func setFloat64FromEnv(key string, target *float64) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return
	}

	*target = parsed
}
