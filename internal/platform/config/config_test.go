package config

import (
	"errors"
	"testing"
	"time"
)

// Test environment variable keys.
const (
	testEnvThreshold   = "DECISION_THRESHOLD"
	testEnvPostgresDSN = "POSTGRES_DSN"
	testEnvFeedURLs    = "FEED_URLS"
	testEnvTestSize    = "TEST_SIZE"
	testEnvProxies     = "TRUSTED_PROXIES"
)

// Test values.
const (
	testPostgresDSN = "postgres://localhost/test"
	testErrLoad     = "Load() error = %v"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.DecisionThreshold != 0.70 {
		t.Errorf("DecisionThreshold = %v, want 0.70", cfg.DecisionThreshold)
	}

	if cfg.Training.MaxFeatures != 10000 {
		t.Errorf("MaxFeatures = %d, want 10000", cfg.Training.MaxFeatures)
	}

	if cfg.Training.NGramMax != 2 {
		t.Errorf("NGramMax = %d, want 2", cfg.Training.NGramMax)
	}

	if cfg.Training.SplitSeed != 42 || cfg.Training.TrainSeed != 10 {
		t.Errorf("seeds = %d/%d, want 42/10", cfg.Training.SplitSeed, cfg.Training.TrainSeed)
	}

	if !cfg.Text.StemmingEnabled {
		t.Error("StemmingEnabled = false, want true")
	}

	if cfg.Feed.PollInterval != 15*time.Minute {
		t.Errorf("PollInterval = %v, want 15m", cfg.Feed.PollInterval)
	}

	if cfg.Server.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", cfg.Server.HTTPPort)
	}

	if len(cfg.Server.TrustedProxies) != 0 {
		t.Errorf("TrustedProxies = %v, want none", cfg.Server.TrustedProxies)
	}

	if cfg.Server.LimiterIdle != 10*time.Minute {
		t.Errorf("LimiterIdle = %v, want 10m", cfg.Server.LimiterIdle)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(testEnvThreshold, "0.55")
	t.Setenv(testEnvPostgresDSN, testPostgresDSN)
	t.Setenv(testEnvFeedURLs, "https://a.example/rss,https://b.example/atom")
	t.Setenv(testEnvProxies, "10.0.0.0/8,192.168.1.1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.DecisionThreshold != 0.55 {
		t.Errorf("DecisionThreshold = %v, want 0.55", cfg.DecisionThreshold)
	}

	if !cfg.Database.Enabled() || cfg.Database.PostgresDSN != testPostgresDSN {
		t.Errorf("PostgresDSN = %q, want %q", cfg.Database.PostgresDSN, testPostgresDSN)
	}

	if len(cfg.Feed.URLs) != 2 {
		t.Errorf("Feed.URLs = %v, want 2 entries", cfg.Feed.URLs)
	}

	if len(cfg.Server.TrustedProxies) != 2 {
		t.Errorf("TrustedProxies = %v, want 2 entries", cfg.Server.TrustedProxies)
	}
}

func TestLoad_Aliases(t *testing.T) {
	t.Setenv("DATABASE_URL", testPostgresDSN)
	t.Setenv("FAKE_THRESHOLD", "0.8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.Database.PostgresDSN != testPostgresDSN {
		t.Errorf("PostgresDSN = %q, want alias value", cfg.Database.PostgresDSN)
	}

	if cfg.DecisionThreshold != 0.8 {
		t.Errorf("DecisionThreshold = %v, want 0.8", cfg.DecisionThreshold)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{name: "threshold above one", key: testEnvThreshold, value: "1.5", wantErr: errThresholdRange},
		{name: "negative threshold", key: testEnvThreshold, value: "-0.1", wantErr: errThresholdRange},
		{name: "test size one", key: testEnvTestSize, value: "1", wantErr: errTestSizeRange},
		{name: "zero features", key: "MAX_FEATURES", value: "0", wantErr: errMaxFeatures},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("unparsable value", func(t *testing.T) {
		t.Setenv(testEnvThreshold, "high")

		if _, err := Load(); err == nil {
			t.Error("expected error for unparsable threshold")
		}
	})
}
