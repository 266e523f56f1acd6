// Package modelstore persists a trained (vectorizer, scorer) pair as a
// directory bundle with a manifest describing how it was produced.
package modelstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/fakenews-detector/internal/core/errors"
	"github.com/lueurxax/fakenews-detector/internal/process/evaluate"
	"github.com/lueurxax/fakenews-detector/internal/process/features"
	"github.com/lueurxax/fakenews-detector/internal/process/scorer"
)

const (
	VectorizerFile = "vectorizer.json"
	ScorerFile     = "scorer.json"
	ManifestFile   = "manifest.json"

	dirMode  = 0o755
	fileMode = 0o600

	opSave = "modelstore.save"
	opLoad = "modelstore.load"

	logKeyDir     = "dir"
	logKeyModelID = "model_id"
	logKeyDim     = "dim"
)

// Manifest records how a bundle was trained. Normalization settings are
// stored so inference cleans text the same way training did.
type Manifest struct {
	ID               string           `json:"id"`
	CreatedAt        time.Time        `json:"created_at"`
	Threshold        float64          `json:"threshold"`
	Stemming         bool             `json:"stemming"`
	DiacriticFolding bool             `json:"diacritic_folding"`
	IncludeTitle     bool             `json:"include_title"`
	VectorizerEpoch  string           `json:"vectorizer_epoch"`
	VocabularySize   int              `json:"vocabulary_size"`
	Midpoint         evaluate.Metrics `json:"midpoint_metrics"`
	Thresholded      evaluate.Metrics `json:"thresholded_metrics"`
	TrainCount       int              `json:"train_count"`
	TestCount        int              `json:"test_count"`
}

// Bundle is an immutable inference pair plus its manifest.
type Bundle struct {
	Vectorizer *features.Vectorizer
	Scorer     *scorer.Scorer
	Manifest   Manifest
}

// Save writes b into dir, creating it when needed. An empty manifest ID or
// creation time is filled in and returned.
func Save(dir string, b Bundle) (Manifest, error) {
	if b.Vectorizer == nil || !b.Vectorizer.Fitted() {
		return Manifest{}, errors.E(errors.KindNotFitted, opSave, "vectorizer is not fitted")
	}

	if b.Scorer == nil || !b.Scorer.IsTrained() {
		return Manifest{}, errors.E(errors.KindTraining, opSave, "scorer is not trained")
	}

	if err := os.MkdirAll(dir, dirMode); err != nil {
		return Manifest{}, fmt.Errorf("create model dir: %w", err)
	}

	m := b.Manifest
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	m.VectorizerEpoch = b.Vectorizer.Epoch()
	m.VocabularySize = b.Vectorizer.Dim()

	if err := writeJSON(filepath.Join(dir, VectorizerFile), b.Vectorizer); err != nil {
		return Manifest{}, err
	}

	if err := b.Scorer.Save(filepath.Join(dir, ScorerFile)); err != nil {
		return Manifest{}, fmt.Errorf("save scorer: %w", err)
	}

	// The manifest goes last so a partially written bundle has none.
	if err := writeJSON(filepath.Join(dir, ManifestFile), m); err != nil {
		return Manifest{}, err
	}

	return m, nil
}

// Load restores the bundle in dir.
func Load(dir string, logger *zerolog.Logger) (*Bundle, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	var m Manifest
	if err := readJSON(filepath.Join(dir, ManifestFile), &m); err != nil {
		return nil, err
	}

	vec := &features.Vectorizer{}
	if err := readJSON(filepath.Join(dir, VectorizerFile), vec); err != nil {
		return nil, err
	}

	sc, err := scorer.Load(filepath.Join(dir, ScorerFile), logger)
	if err != nil {
		return nil, fmt.Errorf("load scorer: %w", err)
	}

	if m.VectorizerEpoch != "" && m.VectorizerEpoch != vec.Epoch() {
		return nil, errors.Ef(errors.KindDataFormat, opLoad, "manifest expects vocabulary %s, found %s", m.VectorizerEpoch, vec.Epoch())
	}

	if vec.Dim() != sc.Dim() {
		return nil, errors.Ef(errors.KindDataFormat, opLoad, "vocabulary has %d terms, scorer expects %d", vec.Dim(), sc.Dim())
	}

	logger.Info().Str(logKeyDir, dir).Str(logKeyModelID, m.ID).Int(logKeyDim, vec.Dim()).Msg("model bundle loaded")

	return &Bundle{Vectorizer: vec, Scorer: sc, Manifest: m}, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	if err := os.WriteFile(path, data, fileMode); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}

	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return errors.E(errors.KindDataFormat, opLoad, fmt.Errorf("decode %s: %w", filepath.Base(path), err))
	}

	return nil
}
