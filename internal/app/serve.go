package app

import (
	"context"
	"fmt"

	"github.com/lueurxax/fakenews-detector/internal/platform/observability"
	"github.com/lueurxax/fakenews-detector/internal/predictapi"
)

// RunServe serves the predict API next to the health and metrics endpoints.
func (a *App) RunServe(ctx context.Context) error {
	l, err := a.loadPipeline()
	if err != nil {
		return err
	}

	trusted, err := predictapi.ParseTrustedProxies(a.cfg.Server.TrustedProxies)
	if err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	var store predictapi.Store
	if a.database != nil {
		store = a.database
	}

	api := predictapi.NewHandler(l.pipeline, store, predictapi.Options{
		ModelID: l.bundle.Manifest.ID,
		RPS:     a.cfg.Server.PredictRPS,
		Burst:   a.cfg.Server.PredictBurst,
		MaxBody: a.cfg.Server.MaxRequestBody,
		Timeout: a.cfg.Server.RequestTimeout,

		TrustedProxies: trusted,
		LimiterIdle:    a.cfg.Server.LimiterIdle,
	}, a.logger)

	srv := a.newServer(nil)
	for _, route := range api.Routes() {
		srv.Handle(route, api)
	}

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	return nil
}

// newServer builds the health server; ready reports model state.
func (a *App) newServer(ready observability.ReadyFunc) *observability.Server {
	var pinger observability.Pinger
	if a.database != nil {
		pinger = a.database
	}

	return observability.NewServer(pinger, ready, a.cfg.Server.HTTPPort, a.logger)
}
