// Package pipeline runs inference end to end: normalize, vectorize, score and
// decide. It never refits the vocabulary or retrains the scorer, so one
// pipeline can be shared by concurrent callers.
package pipeline

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/fakenews-detector/internal/core/domain"
	"github.com/lueurxax/fakenews-detector/internal/core/errors"
	"github.com/lueurxax/fakenews-detector/internal/platform/observability"
	"github.com/lueurxax/fakenews-detector/internal/process/decision"
	"github.com/lueurxax/fakenews-detector/internal/process/evaluate"
	"github.com/lueurxax/fakenews-detector/internal/process/features"
	"github.com/lueurxax/fakenews-detector/internal/process/scorer"
	"github.com/lueurxax/fakenews-detector/internal/process/textnorm"
)

type Normalizer interface {
	CleanAll(raws []string) []textnorm.CleanedText
}

type Vectorizer interface {
	Transform(docs []textnorm.CleanedText) ([]features.Vector, error)
}

type Scorer interface {
	Predict(X []features.Vector) ([]domain.Label, error)
	PredictProbaFake(X []features.Vector) ([]float64, error)
}

// Compile-time assertions for the production collaborators.
var (
	_ Normalizer = (*textnorm.Normalizer)(nil)
	_ Vectorizer = (*features.Vectorizer)(nil)
	_ Scorer     = (*scorer.Scorer)(nil)
)

// Prediction is the result for one raw text.
type Prediction struct {
	Label      domain.Label
	Confidence float64
	// ProbFake is the scorer's P(FAKE), or the fallback split when Degraded.
	ProbFake float64
	Degraded bool
	Cleaned  textnorm.CleanedText
}

type Pipeline struct {
	normalizer Normalizer
	vectorizer Vectorizer
	scorer     Scorer
	policy     decision.Policy
	logger     *zerolog.Logger
}

func New(normalizer Normalizer, vectorizer Vectorizer, sc Scorer, policy decision.Policy, logger *zerolog.Logger) *Pipeline {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Pipeline{
		normalizer: normalizer,
		vectorizer: vectorizer,
		scorer:     sc,
		policy:     policy,
		logger:     logger,
	}
}

// Policy returns the decision policy in use.
func (p *Pipeline) Policy() decision.Policy {
	return p.policy
}

// PredictFromText classifies one raw text.
func (p *Pipeline) PredictFromText(raw string) (Prediction, error) {
	out, err := p.PredictBatch([]string{raw})
	if err != nil {
		return Prediction{}, err
	}

	return out[0], nil
}

// PredictBatch classifies raws in one pass through each stage. Stage errors
// are returned with their kind intact; only an unavailable probability is
// recovered from, through the policy fallback.
func (p *Pipeline) PredictBatch(raws []string) ([]Prediction, error) {
	if len(raws) == 0 {
		return nil, nil
	}

	start := time.Now()

	cleaned := p.normalizer.CleanAll(raws)

	X, err := p.vectorizer.Transform(cleaned)
	if err != nil {
		return nil, p.fail(err)
	}

	decisions, probs, err := p.decide(X)
	if err != nil {
		return nil, p.fail(err)
	}

	out := make([]Prediction, len(raws))

	for i, d := range decisions {
		out[i] = Prediction{
			Label:      d.Label,
			Confidence: d.Confidence,
			ProbFake:   probs[i],
			Degraded:   d.Degraded,
			Cleaned:    cleaned[i],
		}

		observability.Predictions.WithLabelValues(d.Label.String()).Inc()

		if !d.Degraded {
			observability.ProbFake.Observe(probs[i])
		}
	}

	observability.PredictionDuration.Observe(time.Since(start).Seconds() / float64(len(raws)))

	return out, nil
}

func (p *Pipeline) decide(X []features.Vector) ([]decision.Decision, []float64, error) {
	probs, err := p.scorer.PredictProbaFake(X)

	switch {
	case err == nil:
		if len(probs) != len(X) {
			return p.fallback(X, errors.Ef(errors.KindProbabilityUnavailable, opPredict, "%d probabilities for %d rows", len(probs), len(X)))
		}

		decisions := make([]decision.Decision, len(probs))
		for i, prob := range probs {
			decisions[i] = p.policy.Decide(prob)
		}

		return decisions, probs, nil
	case errors.KindOf(err) == errors.KindProbabilityUnavailable:
		return p.fallback(X, err)
	default:
		return nil, nil, err
	}
}

func (p *Pipeline) fallback(X []features.Vector, cause error) ([]decision.Decision, []float64, error) {
	labels, err := p.scorer.Predict(X)
	if err != nil {
		return nil, nil, err
	}

	p.logger.Warn().Err(cause).Int(LogFieldCount, len(X)).Msg("probability unavailable, using fallback confidence")

	decisions := make([]decision.Decision, len(labels))
	probs := make([]float64, len(labels))

	for i, l := range labels {
		decisions[i] = p.policy.Fallback(l)
		probs[i] = decisions[i].ProbFake()

		observability.ProbabilityFallbacks.Inc()
	}

	return decisions, probs, nil
}

func (p *Pipeline) fail(err error) error {
	observability.PredictionErrors.WithLabelValues(errors.KindOf(err).String()).Inc()

	return fmt.Errorf("predict: %w", err)
}

// EvaluateArticles classifies each article's text with the pipeline's
// decision rule and scores the labels against the article labels.
func (p *Pipeline) EvaluateArticles(articles []domain.LabeledArticle, includeTitle bool) (evaluate.Metrics, error) {
	if len(articles) == 0 {
		return evaluate.Metrics{}, nil
	}

	raws := make([]string, len(articles))
	for i, a := range articles {
		raws[i] = a.Text(includeTitle)
	}

	preds, err := p.PredictBatch(raws)
	if err != nil {
		return evaluate.Metrics{}, fmt.Errorf("%s: %w", opEvaluate, err)
	}

	predicted := make([]domain.Label, len(preds))
	for i, pr := range preds {
		predicted[i] = pr.Label
	}

	return evaluate.Evaluate(domain.LabelsOf(articles), predicted)
}
