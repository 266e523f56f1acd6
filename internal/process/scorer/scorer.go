// Package scorer wraps a logistic-regression model behind a two-class
// contract: hard FAKE/REAL labels and one P(FAKE) per input row.
//
// The model is a github.com/cdipaolo/goml logistic regression. Its weights
// are fitted here with sparse stochastic gradient steps, since goml's own
// online learner is dense; goml then serves probabilities and persistence.
// The single-column output is mapped to the FAKE class explicitly through the
// observed class list.
package scorer

import (
	"io"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/cdipaolo/goml/base"
	"github.com/cdipaolo/goml/linear"
	"github.com/rs/zerolog"

	"github.com/lueurxax/fakenews-detector/internal/core/domain"
	"github.com/lueurxax/fakenews-detector/internal/core/errors"
	"github.com/lueurxax/fakenews-detector/internal/process/features"
)

const (
	DefaultLearningRate   = 0.5
	DefaultRegularization = 0.0
	DefaultMaxIterations  = 50
	DefaultSeed           = 10

	// minScale bounds how far the shared weight scale may shrink before it
	// is folded back into the weights.
	minScale = 1e-9

	opTrain       = "scorer.train"
	opPredict     = "scorer.predict"
	opPredictProb = "scorer.predict_proba_fake"

	msgNotTrained = "model not trained yet"

	logKeyRows    = "rows"
	logKeyDim     = "dim"
	logKeyEpochs  = "epochs"
	logKeyClasses = "classes"
)

// Config holds the optimizer settings handed to the underlying model and the
// seed that fixes the training row order.
type Config struct {
	LearningRate   float64 `json:"learning_rate"`
	Regularization float64 `json:"regularization"`
	// MaxIterations is the number of passes over the training rows.
	MaxIterations int `json:"max_iterations"`
	// Seed drives the per-pass shuffle of training rows.
	Seed uint64 `json:"seed"`
}

// DefaultConfig returns the settings used by the training CLI.
func DefaultConfig() Config {
	return Config{
		LearningRate:   DefaultLearningRate,
		Regularization: DefaultRegularization,
		MaxIterations:  DefaultMaxIterations,
		Seed:           DefaultSeed,
	}
}

func (c Config) withDefaults() Config {
	if c.LearningRate <= 0 {
		c.LearningRate = DefaultLearningRate
	}

	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}

	return c
}

// Scorer is a binary FAKE/REAL classifier. It is created untrained and
// becomes trained once through Train or Load; afterwards it is read-only.
type Scorer struct {
	cfg     Config
	model   *linear.Logistic
	classes []domain.Label
	dim     int
	epoch   string
	trained bool
	logger  *zerolog.Logger
}

// New returns an untrained scorer.
func New(cfg Config, logger *zerolog.Logger) *Scorer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Scorer{cfg: cfg.withDefaults(), logger: logger}
}

// IsTrained reports whether the scorer can serve predictions.
func (s *Scorer) IsTrained() bool {
	return s.trained
}

// Classes returns the labels seen during training in class order.
func (s *Scorer) Classes() []domain.Label {
	return slices.Clone(s.classes)
}

// Dim returns the feature dimension the scorer was trained on.
func (s *Scorer) Dim() int {
	return s.dim
}

// Train fits the model on X and y. It fails when the data is absent, empty
// or misaligned, or when the underlying fit reports an error.
func (s *Scorer) Train(X []features.Vector, y []domain.Label) error {
	if X == nil || y == nil || len(y) == 0 {
		return errors.E(errors.KindTraining, opTrain, "training data incomplete")
	}

	if len(X) != len(y) {
		return errors.Ef(errors.KindTraining, opTrain, "%d feature rows for %d labels", len(X), len(y))
	}

	dim := X[0].Dim
	if dim <= 0 {
		return errors.E(errors.KindTraining, opTrain, "feature rows have no columns")
	}

	for i := range X {
		if X[i].Dim != dim {
			return errors.Ef(errors.KindTraining, opTrain, "row %d has dimension %d, want %d", i, X[i].Dim, dim)
		}

		if !y[i].Valid() {
			return errors.Ef(errors.KindTraining, opTrain, "row %d has unknown label %d", i, int(y[i]))
		}
	}

	theta := make([]float64, dim+1)
	if err := s.fit(theta, X, y); err != nil {
		return errors.E(errors.KindTraining, opTrain, err)
	}

	model := linear.NewLogistic(base.StochasticGA, s.cfg.LearningRate, s.cfg.Regularization, s.cfg.MaxIterations, nil, nil)
	model.Parameters = theta
	model.Output = io.Discard

	s.model = model
	s.classes = observedClasses(y)
	s.dim = dim
	s.epoch = X[0].Epoch
	s.trained = true

	s.logger.Info().
		Int(logKeyRows, len(X)).
		Int(logKeyDim, dim).
		Int(logKeyEpochs, s.cfg.MaxIterations).
		Stringer(logKeyClasses, classList(s.classes)).
		Msg("scorer trained")

	return nil
}

// fit runs regularized stochastic gradient ascent on the log-likelihood,
// one shuffled pass per iteration, writing into theta (bias first). Each step
// costs O(nnz) of the row: the L2 shrink is folded into a shared scale factor
// instead of touching every weight.
func (s *Scorer) fit(theta []float64, X []features.Vector, y []domain.Label) error {
	alpha := s.cfg.LearningRate

	decay := 1 - alpha*s.cfg.Regularization
	if decay <= 0 {
		return errRegularizationTooStrong
	}

	rng := rand.New(rand.NewPCG(s.cfg.Seed, s.cfg.Seed))
	order := make([]int, len(X))

	for i := range order {
		order[i] = i
	}

	// True feature weights are scale*theta[1:].
	scale := 1.0

	for range s.cfg.MaxIterations {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		for _, i := range order {
			x := X[i]
			h := sigmoid(theta[0] + scale*x.DotOffset(theta, 1))
			g := alpha * (float64(y[i].Int()) - h)

			scale *= decay
			theta[0] += g

			for k, idx := range x.Indices {
				theta[idx+1] += g * x.Values[k] / scale
			}

			if scale < minScale {
				applyScale(theta, scale)
				scale = 1
			}
		}
	}

	applyScale(theta, scale)

	for _, w := range theta {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return errDiverged
		}
	}

	return nil
}

// Predict returns FAKE for rows whose P(FAKE) is at least one half. The label
// comes from the same probability PredictProbaFake reports; only when the
// model yields no usable probability does it fall back to the sign of the
// linear decision value.
func (s *Scorer) Predict(X []features.Vector) ([]domain.Label, error) {
	if err := s.checkInput(opPredict, X); err != nil {
		return nil, err
	}

	out := make([]domain.Label, len(X))

	for i, x := range X {
		var fake bool

		if pReal, err := s.probReal(x); err == nil {
			fake = 1-pReal >= 0.5
		} else {
			// P(REAL) = sigmoid(z), so P(FAKE) >= 0.5 exactly when z <= 0.
			fake = s.decision(x) <= 0
		}

		if fake {
			out[i] = domain.LabelFake
		} else {
			out[i] = domain.LabelReal
		}
	}

	return out, nil
}

// PredictProbaFake returns exactly one P(FAKE) per row of X.
func (s *Scorer) PredictProbaFake(X []features.Vector) ([]float64, error) {
	if err := s.checkInput(opPredictProb, X); err != nil {
		return nil, err
	}

	fakeCol := slices.Index(s.classes, domain.LabelFake)
	if fakeCol < 0 {
		return nil, errors.Ef(errors.KindTraining, opPredictProb, "FAKE was not among the training classes %s", classList(s.classes))
	}

	out := make([]float64, len(X))

	for i, x := range X {
		dist, err := s.classDistribution(x)
		if err != nil {
			return nil, errors.E(errors.KindProbabilityUnavailable, opPredictProb, err)
		}

		out[i] = dist[fakeCol]
	}

	return out, nil
}

// classDistribution returns one probability per observed class. The model
// only reports P(encoding 1); the complement belongs to encoding 0.
func (s *Scorer) classDistribution(x features.Vector) ([]float64, error) {
	p, err := s.probReal(x)
	if err != nil {
		return nil, err
	}

	dist := make([]float64, len(s.classes))

	for k, class := range s.classes {
		if class.Int() == 1 {
			dist[k] = p
		} else {
			dist[k] = 1 - p
		}
	}

	return dist, nil
}

// probReal asks the model for P(encoding 1), which is P(REAL).
func (s *Scorer) probReal(x features.Vector) (float64, error) {
	raw, err := s.model.Predict(x.Dense())
	if err != nil {
		return 0, err
	}

	if len(raw) != 1 {
		return 0, errMalformedProbability
	}

	p := raw[0]
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, errMalformedProbability
	}

	return p, nil
}

func (s *Scorer) decision(x features.Vector) float64 {
	theta := s.model.Parameters

	return theta[0] + x.DotOffset(theta, 1)
}

func (s *Scorer) checkInput(op string, X []features.Vector) error {
	if !s.trained {
		return errors.E(errors.KindTraining, op, msgNotTrained)
	}

	for i, x := range X {
		if x.Dim != s.dim {
			return errors.Ef(errors.KindInvalidInput, op, "row %d has dimension %d, model expects %d", i, x.Dim, s.dim)
		}

		if s.epoch != "" && x.Epoch != "" && x.Epoch != s.epoch {
			return errors.Ef(errors.KindInvalidInput, op, "row %d comes from vocabulary %s, model was trained on %s", i, x.Epoch, s.epoch)
		}
	}

	return nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func applyScale(theta []float64, scale float64) {
	if scale == 1 {
		return
	}

	for j := 1; j < len(theta); j++ {
		theta[j] *= scale
	}
}

func observedClasses(y []domain.Label) []domain.Label {
	seen := make([]domain.Label, 0, len(domain.Labels))

	for _, l := range domain.Labels {
		if slices.Contains(y, l) {
			seen = append(seen, l)
		}
	}

	return seen
}

type classList []domain.Label

func (c classList) String() string {
	out := "["

	for i, l := range c {
		if i > 0 {
			out += " "
		}

		out += l.String()
	}

	return out + "]"
}
