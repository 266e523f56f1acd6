package scorer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cdipaolo/goml/base"
	"github.com/cdipaolo/goml/linear"
	"github.com/rs/zerolog"

	"github.com/lueurxax/fakenews-detector/internal/core/domain"
	kinds "github.com/lueurxax/fakenews-detector/internal/core/errors"
)

const (
	metaSuffix   = ".meta.json"
	metaFileMode = 0o600

	opSave = "scorer.save"
	opLoad = "scorer.load"
)

var (
	errDiverged             = errors.New("model parameters diverged")
	errMalformedProbability = errors.New("model returned a malformed probability")

	errRegularizationTooStrong = errors.New("regularization times learning rate must be below 1")
)

// meta is stored next to the weight file. The weights themselves are written
// by the model's own persistence.
type meta struct {
	Classes []domain.Label `json:"classes"`
	Trained bool           `json:"trained"`
	Dim     int            `json:"dim"`
	Epoch   string         `json:"epoch"`
	Config  Config         `json:"config"`
}

// MetaPath returns the sidecar file that accompanies the weights at path.
func MetaPath(path string) string {
	return path + metaSuffix
}

// Save writes the weights to path and the class ordering, trained flag and
// feature dimension to MetaPath(path).
func (s *Scorer) Save(path string) error {
	if !s.trained {
		return kinds.E(kinds.KindTraining, opSave, msgNotTrained)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve model path: %w", err)
	}

	if err := s.model.PersistToFile(abs); err != nil {
		return fmt.Errorf("persist weights: %w", err)
	}

	data, err := json.MarshalIndent(meta{
		Classes: s.classes,
		Trained: s.trained,
		Dim:     s.dim,
		Epoch:   s.epoch,
		Config:  s.cfg,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scorer meta: %w", err)
	}

	if err := os.WriteFile(MetaPath(abs), data, metaFileMode); err != nil {
		return fmt.Errorf("write scorer meta: %w", err)
	}

	return nil
}

// Load restores a scorer written by Save. The returned scorer is trained.
func Load(path string, logger *zerolog.Logger) (*Scorer, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve model path: %w", err)
	}

	data, err := os.ReadFile(MetaPath(abs))
	if err != nil {
		return nil, fmt.Errorf("read scorer meta: %w", err)
	}

	var m meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, kinds.E(kinds.KindDataFormat, opLoad, err)
	}

	if !m.Trained || len(m.Classes) == 0 || m.Dim <= 0 {
		return nil, kinds.E(kinds.KindDataFormat, opLoad, "scorer meta does not describe a trained model")
	}

	s := New(m.Config, logger)

	model := linear.NewLogistic(base.StochasticGA, s.cfg.LearningRate, s.cfg.Regularization, s.cfg.MaxIterations, nil, nil)
	model.Output = io.Discard

	if err := model.RestoreFromFile(abs); err != nil {
		return nil, fmt.Errorf("restore weights: %w", err)
	}

	if len(model.Parameters) != m.Dim+1 {
		return nil, kinds.Ef(kinds.KindDataFormat, opLoad, "weight file has %d parameters, meta expects %d", len(model.Parameters), m.Dim+1)
	}

	s.model = model
	s.classes = m.Classes
	s.dim = m.Dim
	s.epoch = m.Epoch
	s.trained = true

	return s, nil
}
