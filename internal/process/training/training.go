// Package training fits a vocabulary and scorer from labeled articles and
// reports held-out metrics.
package training

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/fakenews-detector/internal/core/domain"
	"github.com/lueurxax/fakenews-detector/internal/core/errors"
	"github.com/lueurxax/fakenews-detector/internal/process/decision"
	"github.com/lueurxax/fakenews-detector/internal/process/evaluate"
	"github.com/lueurxax/fakenews-detector/internal/process/features"
	"github.com/lueurxax/fakenews-detector/internal/process/scorer"
	"github.com/lueurxax/fakenews-detector/internal/process/textnorm"
)

const (
	DefaultTestSize  = 0.2
	DefaultSplitSeed = 42

	logKeyTrain    = "train"
	logKeyTest     = "test"
	logKeyDim      = "dim"
	logKeyDuration = "duration"
)

type Config struct {
	TestSize  float64
	SplitSeed uint64
	// Threshold is the operating threshold reported next to the midpoint
	// metrics.
	Threshold float64
	// IncludeTitle prepends the title to the body before normalization.
	IncludeTitle bool

	Vectorizer features.Config
	Scorer     scorer.Config
}

// DefaultConfig mirrors the defaults of the training CLI.
func DefaultConfig() Config {
	return Config{
		TestSize:   DefaultTestSize,
		SplitSeed:  DefaultSplitSeed,
		Threshold:  decision.DefaultThreshold,
		Vectorizer: features.DefaultConfig(),
		Scorer:     scorer.DefaultConfig(),
	}
}

// Result is a freshly trained (vectorizer, scorer) pair with its held-out
// evaluation.
type Result struct {
	Vectorizer *features.Vectorizer
	Scorer     *scorer.Scorer

	// Midpoint scores the scorer's own labels (FAKE iff P(FAKE) >= 0.5).
	Midpoint evaluate.Metrics
	// Thresholded scores the labels the decision policy would emit.
	Thresholded evaluate.Metrics
	// Degraded is set when Thresholded fell back to hard labels.
	Degraded bool

	TrainCount int
	TestCount  int
	Duration   time.Duration
}

type Trainer struct {
	cfg        Config
	normalizer *textnorm.Normalizer
	logger     *zerolog.Logger
}

func New(cfg Config, normalizer *textnorm.Normalizer, logger *zerolog.Logger) *Trainer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Trainer{cfg: cfg, normalizer: normalizer, logger: logger}
}

// Run splits articles, fits the vocabulary and scorer on the training half
// and evaluates on the held-out half.
func (t *Trainer) Run(ctx context.Context, articles []domain.LabeledArticle) (*Result, error) {
	start := time.Now()

	policy, err := decision.NewPolicy(t.cfg.Threshold)
	if err != nil {
		return nil, err
	}

	train, test, err := Split(articles, t.cfg.TestSize, t.cfg.SplitSeed)
	if err != nil {
		return nil, err
	}

	t.logger.Info().Int(logKeyTrain, len(train)).Int(logKeyTest, len(test)).Msg("split dataset")

	vec := features.NewVectorizer(t.cfg.Vectorizer)

	XTrain, err := vec.FitTransform(t.normalizer.CleanAll(texts(train, t.cfg.IncludeTitle)))
	if err != nil {
		return nil, fmt.Errorf("fit vocabulary: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sc := scorer.New(t.cfg.Scorer, t.logger)
	if err := sc.Train(XTrain, domain.LabelsOf(train)); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	XTest, err := vec.Transform(t.normalizer.CleanAll(texts(test, t.cfg.IncludeTitle)))
	if err != nil {
		return nil, fmt.Errorf("transform held-out set: %w", err)
	}

	yTest := domain.LabelsOf(test)

	predicted, err := sc.Predict(XTest)
	if err != nil {
		return nil, err
	}

	midpoint, err := evaluate.Evaluate(yTest, predicted)
	if err != nil {
		return nil, err
	}

	thresholdLabels, degraded, err := t.thresholdLabels(sc, XTest, predicted, policy)
	if err != nil {
		return nil, err
	}

	thresholded, err := evaluate.Evaluate(yTest, thresholdLabels)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Vectorizer:  vec,
		Scorer:      sc,
		Midpoint:    midpoint,
		Thresholded: thresholded,
		Degraded:    degraded,
		TrainCount:  len(train),
		TestCount:   len(test),
		Duration:    time.Since(start),
	}

	t.logger.Info().
		Int(logKeyDim, vec.Dim()).
		Dur(logKeyDuration, res.Duration).
		Float64(evaluate.FieldAccuracy, midpoint.Accuracy).
		Float64(evaluate.FieldF1, midpoint.F1).
		Msg("training complete")

	return res, nil
}

func (t *Trainer) thresholdLabels(sc *scorer.Scorer, X []features.Vector, hard []domain.Label, policy decision.Policy) ([]domain.Label, bool, error) {
	probs, err := sc.PredictProbaFake(X)
	if err != nil {
		if errors.KindOf(err) != errors.KindProbabilityUnavailable {
			return nil, false, err
		}

		t.logger.Warn().Err(err).Msg("probability unavailable, thresholded metrics use hard labels")

		return hard, true, nil
	}

	out := make([]domain.Label, len(probs))
	for i, p := range probs {
		out[i] = policy.Decide(p).Label
	}

	return out, false, nil
}

func texts(articles []domain.LabeledArticle, includeTitle bool) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Text(includeTitle)
	}

	return out
}
