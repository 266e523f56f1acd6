package app

import (
	"context"
	"fmt"

	db "github.com/lueurxax/fakenews-detector/internal/storage"
)

// RunEvaluate scores the saved bundle on the whole dataset with the
// configured threshold.
func (a *App) RunEvaluate(ctx context.Context) error {
	l, err := a.loadPipeline()
	if err != nil {
		return err
	}

	articles, err := a.loadArticles(ctx)
	if err != nil {
		return err
	}

	metrics, err := l.pipeline.EvaluateArticles(articles, l.bundle.Manifest.IncludeTitle)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	var last *db.TrainingRun

	if a.database != nil {
		last, err = a.database.LatestTrainingRun(ctx, l.bundle.Manifest.ID)
		if err != nil {
			a.logger.Warn().Err(err).Msg("failed to load training run")
		}
	}

	return writeEvaluationReport(a.out, l.bundle.Manifest, l.pipeline.Policy().Threshold(), len(articles), metrics, last)
}
