package app

import (
	"context"
	"fmt"

	"github.com/lueurxax/fakenews-detector/internal/modelstore"
	"github.com/lueurxax/fakenews-detector/internal/platform/observability"
	"github.com/lueurxax/fakenews-detector/internal/process/features"
	"github.com/lueurxax/fakenews-detector/internal/process/scorer"
	"github.com/lueurxax/fakenews-detector/internal/process/training"
	db "github.com/lueurxax/fakenews-detector/internal/storage"
)

func (a *App) trainingConfig() training.Config {
	t := a.cfg.Training

	return training.Config{
		TestSize:     t.TestSize,
		SplitSeed:    t.SplitSeed,
		Threshold:    a.cfg.DecisionThreshold,
		IncludeTitle: a.cfg.Text.IncludeTitle,
		Vectorizer: features.Config{
			MaxFeatures: t.MaxFeatures,
			NGramMax:    t.NGramMax,
			MinDF:       t.MinDF,
		},
		Scorer: scorer.Config{
			LearningRate:   t.LearningRate,
			Regularization: t.Regularization,
			MaxIterations:  t.MaxIterations,
			Seed:           t.TrainSeed,
		},
	}
}

// RunTrain fits a bundle on the dataset, prints its held-out metrics and
// saves it to MODEL_DIR.
func (a *App) RunTrain(ctx context.Context) error {
	if err := a.runTrain(ctx); err != nil {
		observability.TrainingRuns.WithLabelValues(observability.StatusError).Inc()
		return err
	}

	observability.TrainingRuns.WithLabelValues(observability.StatusOK).Inc()

	return nil
}

func (a *App) runTrain(ctx context.Context) error {
	articles, err := a.loadArticles(ctx)
	if err != nil {
		return err
	}

	normalizer, err := a.newNormalizer(a.cfg.Text.StemmingEnabled, a.cfg.Text.DiacriticFolding)
	if err != nil {
		return err
	}

	res, err := training.New(a.trainingConfig(), normalizer, a.logger).Run(ctx, articles)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	manifest, err := modelstore.Save(a.cfg.ModelDir, modelstore.Bundle{
		Vectorizer: res.Vectorizer,
		Scorer:     res.Scorer,
		Manifest: modelstore.Manifest{
			Threshold:        a.cfg.DecisionThreshold,
			Stemming:         normalizer.Stemming(),
			DiacriticFolding: a.cfg.Text.DiacriticFolding,
			IncludeTitle:     a.cfg.Text.IncludeTitle,
			Midpoint:         res.Midpoint,
			Thresholded:      res.Thresholded,
			TrainCount:       res.TrainCount,
			TestCount:        res.TestCount,
		},
	})
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}

	a.logger.Info().Str(logFieldModelID, manifest.ID).Str(logFieldDir, a.cfg.ModelDir).Msg("model saved")

	if err := writeTrainingReport(a.out, manifest, res); err != nil {
		return err
	}

	if a.database == nil {
		return nil
	}

	c := res.Thresholded.Confusion

	run := &db.TrainingRun{
		ModelID:        manifest.ID,
		Threshold:      manifest.Threshold,
		Accuracy:       res.Thresholded.Accuracy,
		Precision:      res.Thresholded.Precision,
		Recall:         res.Thresholded.Recall,
		F1:             res.Thresholded.F1,
		TN:             c.TN,
		FP:             c.FP,
		FN:             c.FN,
		TP:             c.TP,
		TrainCount:     res.TrainCount,
		TestCount:      res.TestCount,
		VocabularySize: manifest.VocabularySize,
		Duration:       res.Duration,
	}

	if err := a.database.RecordTrainingRun(ctx, run); err != nil {
		a.logger.Warn().Err(err).Msg("failed to record training run")
	}

	return nil
}
