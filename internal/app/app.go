// Package app wires configuration, storage and the classifier into the
// detector's run modes:
//
//   - Train: fit a model bundle from the labeled dataset and save it
//   - Evaluate: score a saved bundle against the dataset
//   - Interactive: classify lines typed on the console
//   - Serve: predict API plus health and metrics endpoints
//   - Feed: classify RSS/Atom feed entries on a schedule
package app

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/lueurxax/fakenews-detector/internal/core/domain"
	"github.com/lueurxax/fakenews-detector/internal/ingest/dataset"
	"github.com/lueurxax/fakenews-detector/internal/modelstore"
	"github.com/lueurxax/fakenews-detector/internal/platform/config"
	"github.com/lueurxax/fakenews-detector/internal/platform/observability"
	"github.com/lueurxax/fakenews-detector/internal/process/decision"
	"github.com/lueurxax/fakenews-detector/internal/process/pipeline"
	"github.com/lueurxax/fakenews-detector/internal/process/textnorm"
	db "github.com/lueurxax/fakenews-detector/internal/storage"
)

const (
	logFieldModelID = "model_id"
	logFieldDir     = "dir"
	logFieldCount   = "count"
)

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
	out      io.Writer
}

// New creates an App. database may be nil when storage is not configured.
// Reports are written to out.
func New(cfg *config.Config, database *db.DB, out io.Writer, logger *zerolog.Logger) *App {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if out == nil {
		out = io.Discard
	}

	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
		out:      out,
	}
}

func (a *App) newNormalizer(stemming, folding bool) (*textnorm.Normalizer, error) {
	opts := []textnorm.Option{
		textnorm.WithStemming(stemming),
		textnorm.WithDiacriticFolding(folding),
	}

	if a.cfg.Text.StopwordsPath != "" {
		opts = append(opts, textnorm.WithStopwordsFile(a.cfg.Text.StopwordsPath))
	}

	n, err := textnorm.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("build normalizer: %w", err)
	}

	return n, nil
}

func (a *App) loadArticles(ctx context.Context) ([]domain.LabeledArticle, error) {
	res, err := dataset.NewLoader(a.logger).Load(ctx, a.cfg.Training.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", a.cfg.Training.DatasetPath, err)
	}

	return res.Articles, nil
}

// loaded is a model bundle wired into an inference pipeline.
type loaded struct {
	bundle   *modelstore.Bundle
	pipeline *pipeline.Pipeline
}

// loadPipeline restores the bundle in MODEL_DIR. Text is normalized with
// the settings the bundle was trained with.
func (a *App) loadPipeline() (*loaded, error) {
	bundle, err := modelstore.Load(a.cfg.ModelDir, a.logger)
	if err != nil {
		return nil, fmt.Errorf("load model from %s: %w", a.cfg.ModelDir, err)
	}

	m := bundle.Manifest

	normalizer, err := a.newNormalizer(m.Stemming, m.DiacriticFolding)
	if err != nil {
		return nil, err
	}

	policy, err := decision.NewPolicy(a.cfg.DecisionThreshold)
	if err != nil {
		return nil, err
	}

	observability.ModelInfo.WithLabelValues(m.ID, strconv.FormatFloat(policy.Threshold(), 'f', 2, 64)).Set(1)
	observability.ModelVocabularySize.Set(float64(m.VocabularySize))

	a.logger.Info().
		Str(logFieldModelID, m.ID).
		Float64("threshold", policy.Threshold()).
		Msg("inference pipeline ready")

	return &loaded{
		bundle:   bundle,
		pipeline: pipeline.New(normalizer, bundle.Vectorizer, bundle.Scorer, policy, a.logger),
	}, nil
}
