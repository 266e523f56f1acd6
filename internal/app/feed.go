package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/lueurxax/fakenews-detector/internal/ingest/feed"
	"github.com/lueurxax/fakenews-detector/internal/platform/worker"
)

const feedWorkerName = "feed"

var (
	errNoFeeds          = errors.New("no feeds configured; set FEED_URLS or FEEDS_FILE")
	errFirstPassPending = errors.New("first feed pass has not completed")
)

func (a *App) feedSources() ([]feed.Source, error) {
	fc := a.cfg.Feed

	var fromFile []feed.Source

	if fc.SourcesFile != "" {
		var err error

		fromFile, err = feed.LoadSources(fc.SourcesFile)
		if err != nil {
			return nil, err
		}
	}

	fromEnv, err := feed.SourcesFromURLs(fc.URLs)
	if err != nil {
		return nil, fmt.Errorf("FEED_URLS: %w", err)
	}

	sources := feed.MergeSources(fromFile, fromEnv)
	if len(sources) == 0 {
		return nil, errNoFeeds
	}

	return sources, nil
}

// RunFeed classifies new feed entries every FEED_POLL_INTERVAL, or once
// when once is set. In once mode each verdict is also printed.
func (a *App) RunFeed(ctx context.Context, once bool) error {
	sources, err := a.feedSources()
	if err != nil {
		return err
	}

	l, err := a.loadPipeline()
	if err != nil {
		return err
	}

	fc := a.cfg.Feed

	opts := feed.Options{
		ModelID:       l.bundle.Manifest.ID,
		FetchArticles: fc.FetchArticles,
		MaxItems:      fc.MaxItems,
		SeenCapacity:  fc.SeenCapacity,
		IncludeTitle:  l.bundle.Manifest.IncludeTitle,
	}

	if once {
		opts.OnResult = func(r feed.ItemResult) {
			_, _ = fmt.Fprintf(a.out, "[%s] %.1f%% %s (%s)\n",
				r.Prediction.Label, r.Prediction.Confidence*100, r.Item.Title, r.Item.Link)
		}
	}

	var (
		store  feed.Store
		locker feed.Locker
	)

	if a.database != nil {
		store = a.database
		locker = a.database
	}

	fetcher := feed.NewFetcher(feed.FetcherOptions{
		Timeout:   fc.Timeout,
		UserAgent: fc.UserAgent,
		RPS:       fc.RPS,
	}, a.logger)

	classifier := feed.NewClassifier(sources, fetcher, l.pipeline, store, locker, opts, a.logger)

	a.logger.Info().Int(logFieldCount, len(sources)).Msg("feed sources loaded")

	if once {
		_, err := classifier.RunOnce(ctx)
		return err
	}

	var passed atomic.Bool

	ready := func() error {
		if !passed.Load() {
			return errFirstPassPending
		}

		return nil
	}

	go func() {
		if err := a.newServer(ready).Start(ctx); err != nil {
			a.logger.Error().Err(err).Msg("health check server error")
		}
	}()

	return worker.TickerLoop(ctx, worker.TickerConfig{
		Name:       feedWorkerName,
		Interval:   fc.PollInterval,
		RunOnStart: true,
		OnTick: func(ctx context.Context) {
			if _, err := classifier.RunOnce(ctx); err != nil {
				a.logger.Error().Err(err).Msg("feed pass failed")
				return
			}

			passed.Store(true)
		},
		Logger: a.logger,
	})
}
