package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/fakenews-detector/internal/app"
	"github.com/lueurxax/fakenews-detector/internal/platform/config"
	db "github.com/lueurxax/fakenews-detector/internal/storage"
)

var errUnknownMode = errors.New("unknown mode")

func main() {
	mode := flag.String("mode", "", "Run mode (train, evaluate, interactive, serve, feed)")
	once := flag.Bool("once", false, "Run a single pass and exit (for feed mode)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var database *db.DB

	if cfg.Database.Enabled() {
		database, err = connectDatabase(ctx, cfg, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare database")
		}
		defer database.Close()
	}

	application := app.New(cfg, database, os.Stdout, &logger)

	if err := runMode(ctx, application, *mode, *once); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		if errors.Is(err, errUnknownMode) {
			log.Fatalf("Usage: %s --mode=[train|evaluate|interactive|serve|feed] [--once]", os.Args[0])
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func connectDatabase(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*db.DB, error) {
	dc := cfg.Database

	poolOpts := db.PoolOptions{
		MaxConns:          dc.MaxConnections,
		MinConns:          dc.MinConnections,
		MaxConnIdleTime:   dc.MaxConnIdleTime,
		MaxConnLifetime:   dc.MaxConnLifetime,
		HealthCheckPeriod: dc.HealthCheckPeriod,
	}

	database, err := db.NewWithOptions(ctx, dc.PostgresDSN, poolOpts, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return database, nil
}

func newLogger(appEnv, level string) zerolog.Logger {
	var logger zerolog.Logger

	if appEnv == "local" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return logger.Level(lvl)
}

func runMode(ctx context.Context, application *app.App, mode string, once bool) error {
	switch mode {
	case "train":
		return application.RunTrain(ctx)
	case "evaluate":
		return application.RunEvaluate(ctx)
	case "interactive":
		return application.RunInteractive(ctx, os.Stdin)
	case "serve":
		return application.RunServe(ctx)
	case "feed":
		return application.RunFeed(ctx, once)
	default:
		return fmt.Errorf("%w: %q", errUnknownMode, mode)
	}
}
