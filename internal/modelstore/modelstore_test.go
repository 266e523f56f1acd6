package modelstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/fakenews-detector/internal/core/domain"
	"github.com/lueurxax/fakenews-detector/internal/core/errors"
	"github.com/lueurxax/fakenews-detector/internal/process/evaluate"
	"github.com/lueurxax/fakenews-detector/internal/process/features"
	"github.com/lueurxax/fakenews-detector/internal/process/scorer"
	"github.com/lueurxax/fakenews-detector/internal/process/textnorm"
)

func trainedBundle(t *testing.T) Bundle {
	t.Helper()

	docs := []textnorm.CleanedText{"fake stori", "real report", "fake news", "real news"}
	labels := []domain.Label{domain.LabelFake, domain.LabelReal, domain.LabelFake, domain.LabelReal}

	vec := features.NewVectorizer(features.DefaultConfig())

	X, err := vec.FitTransform(docs)
	require.NoError(t, err)

	sc := scorer.New(scorer.DefaultConfig(), nil)
	require.NoError(t, sc.Train(X, labels))

	return Bundle{
		Vectorizer: vec,
		Scorer:     sc,
		Manifest: Manifest{
			Threshold:  0.7,
			Stemming:   true,
			Midpoint:   evaluate.FromConfusion(evaluate.Confusion{TP: 1, TN: 1}),
			TrainCount: 4,
			TestCount:  2,
		},
	}
}

func TestSaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "model")
	b := trainedBundle(t)

	m, err := Save(dir, b)
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.False(t, m.CreatedAt.IsZero())
	assert.Equal(t, b.Vectorizer.Epoch(), m.VectorizerEpoch)

	for _, name := range []string{VectorizerFile, ScorerFile, scorer.MetaPath(ScorerFile), ManifestFile} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	loaded, err := Load(dir, nil)
	require.NoError(t, err)

	assert.Equal(t, m.ID, loaded.Manifest.ID)
	assert.InDelta(t, 0.7, loaded.Manifest.Threshold, 1e-12)
	assert.True(t, loaded.Manifest.Stemming)
	assert.InDelta(t, 1.0, loaded.Manifest.Midpoint.Accuracy, 1e-12)
	assert.True(t, loaded.Scorer.IsTrained())

	docs := []textnorm.CleanedText{"fake report", "news"}

	want, err := b.Vectorizer.Transform(docs)
	require.NoError(t, err)

	got, err := loaded.Vectorizer.Transform(docs)
	require.NoError(t, err)

	wantProbs, err := b.Scorer.PredictProbaFake(want)
	require.NoError(t, err)

	gotProbs, err := loaded.Scorer.PredictProbaFake(got)
	require.NoError(t, err)
	assert.InDeltaSlice(t, wantProbs, gotProbs, 1e-9)
}

func TestSave_Untrained(t *testing.T) {
	_, err := Save(t.TempDir(), Bundle{Vectorizer: features.NewVectorizer(features.DefaultConfig())})
	assert.Equal(t, errors.KindNotFitted, errors.KindOf(err))

	b := trainedBundle(t)
	b.Scorer = scorer.New(scorer.DefaultConfig(), nil)

	_, err = Save(t.TempDir(), b)
	assert.Equal(t, errors.KindTraining, errors.KindOf(err))
}

func TestLoad_EpochMismatch(t *testing.T) {
	dir := t.TempDir()

	_, err := Save(dir, trainedBundle(t))
	require.NoError(t, err)

	other := trainedBundle(t)
	data, err := other.Vectorizer.MarshalJSON()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, VectorizerFile), data, 0o600))

	_, err = Load(dir, nil)
	assert.Equal(t, errors.KindDataFormat, errors.KindOf(err))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir(), nil)
	require.ErrorIs(t, err, os.ErrNotExist)
}
