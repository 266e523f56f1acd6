package scorer

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/fakenews-detector/internal/core/domain"
	"github.com/lueurxax/fakenews-detector/internal/core/errors"
	"github.com/lueurxax/fakenews-detector/internal/process/features"
	"github.com/lueurxax/fakenews-detector/internal/process/textnorm"
)

func trainedFixture(t *testing.T) (*Scorer, *features.Vectorizer) {
	t.Helper()

	corpus := make([]textnorm.CleanedText, 0, 100)
	labels := make([]domain.Label, 0, 100)

	for range 50 {
		corpus = append(corpus, "fake stori")
		labels = append(labels, domain.LabelFake)
	}

	for range 50 {
		corpus = append(corpus, "real report")
		labels = append(labels, domain.LabelReal)
	}

	vec := features.NewVectorizer(features.DefaultConfig())

	X, err := vec.FitTransform(corpus)
	require.NoError(t, err)

	s := New(DefaultConfig(), nil)
	require.NoError(t, s.Train(X, labels))

	return s, vec
}

func TestTrain_SeparatesClasses(t *testing.T) {
	s, vec := trainedFixture(t)

	assert.True(t, s.IsTrained())
	assert.Equal(t, []domain.Label{domain.LabelFake, domain.LabelReal}, s.Classes())
	assert.Equal(t, vec.Dim(), s.Dim())

	X, err := vec.Transform([]textnorm.CleanedText{"stori fake stori", "report real"})
	require.NoError(t, err)

	probs, err := s.PredictProbaFake(X)
	require.NoError(t, err)
	require.Len(t, probs, 2)
	assert.Greater(t, probs[0], probs[1])
	assert.Greater(t, probs[0], 0.5)
	assert.Less(t, probs[1], 0.5)

	labels, err := s.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, []domain.Label{domain.LabelFake, domain.LabelReal}, labels)
}

func TestTrain_Deterministic(t *testing.T) {
	vec := features.NewVectorizer(features.DefaultConfig())

	train, err := vec.FitTransform([]textnorm.CleanedText{"fake stori", "real report", "fake news", "real news"})
	require.NoError(t, err)

	labels := []domain.Label{domain.LabelFake, domain.LabelReal, domain.LabelFake, domain.LabelReal}

	a := New(DefaultConfig(), nil)
	require.NoError(t, a.Train(train, labels))

	b := New(DefaultConfig(), nil)
	require.NoError(t, b.Train(train, labels))

	X, err := vec.Transform([]textnorm.CleanedText{"fake report", "news"})
	require.NoError(t, err)

	pa, err := a.PredictProbaFake(X)
	require.NoError(t, err)

	pb, err := b.PredictProbaFake(X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, pa, pb, 1e-12)
}

func TestPredictAgreesWithProbability(t *testing.T) {
	s, vec := trainedFixture(t)

	X, err := vec.Transform([]textnorm.CleanedText{
		"fake", "stori", "real", "report", "fake report", "unseen word", "real stori",
	})
	require.NoError(t, err)

	probs, err := s.PredictProbaFake(X)
	require.NoError(t, err)

	labels, err := s.Predict(X)
	require.NoError(t, err)

	for i, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)

		if p >= 0.5 {
			assert.Equal(t, domain.LabelFake, labels[i], "row %d p=%v", i, p)
		} else {
			assert.Equal(t, domain.LabelReal, labels[i], "row %d p=%v", i, p)
		}
	}
}

func TestUntrained(t *testing.T) {
	s := New(DefaultConfig(), nil)
	x := []features.Vector{{Dim: 3}}

	_, err := s.Predict(x)
	assert.Equal(t, errors.KindTraining, errors.KindOf(err))
	assert.ErrorIs(t, err, errors.ErrNotTrained)

	_, err = s.PredictProbaFake(x)
	assert.Equal(t, errors.KindTraining, errors.KindOf(err))

	err = s.Save(filepath.Join(t.TempDir(), "scorer.json"))
	assert.Equal(t, errors.KindTraining, errors.KindOf(err))
}

func TestTrain_InvalidInput(t *testing.T) {
	row := features.Vector{Indices: []int{0}, Values: []float64{1}, Dim: 2}

	tests := []struct {
		name string
		X    []features.Vector
		y    []domain.Label
	}{
		{name: "nil rows", X: nil, y: []domain.Label{domain.LabelFake}},
		{name: "nil labels", X: []features.Vector{row}, y: nil},
		{name: "empty", X: []features.Vector{}, y: []domain.Label{}},
		{name: "length mismatch", X: []features.Vector{row, row}, y: []domain.Label{domain.LabelFake}},
		{name: "no columns", X: []features.Vector{{}}, y: []domain.Label{domain.LabelFake}},
		{name: "ragged rows", X: []features.Vector{row, {Dim: 3}}, y: []domain.Label{domain.LabelFake, domain.LabelReal}},
		{name: "unknown label", X: []features.Vector{row}, y: []domain.Label{domain.Label(7)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(DefaultConfig(), nil)

			err := s.Train(tt.X, tt.y)
			require.Error(t, err)
			assert.Equal(t, errors.KindTraining, errors.KindOf(err))
			assert.False(t, s.IsTrained())
		})
	}
}

func TestPredictProbaFake_FakeNotObserved(t *testing.T) {
	vec := features.NewVectorizer(features.DefaultConfig())

	X, err := vec.FitTransform([]textnorm.CleanedText{"real report", "real news"})
	require.NoError(t, err)

	s := New(DefaultConfig(), nil)
	require.NoError(t, s.Train(X, []domain.Label{domain.LabelReal, domain.LabelReal}))
	assert.Equal(t, []domain.Label{domain.LabelReal}, s.Classes())

	_, err = s.PredictProbaFake(X)
	require.Error(t, err)
	assert.Equal(t, errors.KindTraining, errors.KindOf(err))

	// Hard labels still work with a single observed class.
	_, err = s.Predict(X)
	require.NoError(t, err)
}

func TestPredict_DimensionAndEpochMismatch(t *testing.T) {
	s, vec := trainedFixture(t)

	_, err := s.Predict([]features.Vector{{Dim: vec.Dim() + 1}})
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))

	other := features.NewVectorizer(features.DefaultConfig())
	X, err := other.FitTransform([]textnorm.CleanedText{"fake stori", "real report"})
	require.NoError(t, err)
	require.Equal(t, vec.Dim(), other.Dim())

	_, err = s.PredictProbaFake(X)
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, vec := trainedFixture(t)
	path := filepath.Join(t.TempDir(), "scorer.json")

	require.NoError(t, s.Save(path))
	assert.FileExists(t, path)
	assert.FileExists(t, MetaPath(path))

	restored, err := Load(path, nil)
	require.NoError(t, err)
	assert.True(t, restored.IsTrained())
	assert.Equal(t, s.Classes(), restored.Classes())
	assert.Equal(t, s.Dim(), restored.Dim())

	X, err := vec.Transform([]textnorm.CleanedText{"fake stori", "real report", "fake report"})
	require.NoError(t, err)

	want, err := s.PredictProbaFake(X)
	require.NoError(t, err)

	got, err := restored.PredictProbaFake(X)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-9)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"), nil)
	require.Error(t, err)

	path := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(MetaPath(path), []byte("{"), 0o600))

	_, err = Load(path, nil)
	assert.Equal(t, errors.KindDataFormat, errors.KindOf(err))

	require.NoError(t, os.WriteFile(MetaPath(path), []byte(`{"trained":false}`), 0o600))

	_, err = Load(path, nil)
	assert.Equal(t, errors.KindDataFormat, errors.KindOf(err))
}

// sparseCorpus builds rows of nnz terms each over a dim-wide vocabulary. FAKE
// rows draw from the lower half of the columns and REAL rows from the upper.
func sparseCorpus(rows, dim, nnz int) ([]features.Vector, []domain.Label) {
	rng := rand.New(rand.NewPCG(1, 2))
	half := dim / 2
	weight := 1 / float64(nnz)

	X := make([]features.Vector, rows)
	y := make([]domain.Label, rows)

	for i := range rows {
		label, base := domain.LabelFake, 0
		if i%2 == 1 {
			label, base = domain.LabelReal, half
		}

		cols := rng.Perm(half)[:nnz]
		slices.Sort(cols)

		v := features.Vector{Indices: make([]int, nnz), Values: make([]float64, nnz), Dim: dim}
		for k, c := range cols {
			v.Indices[k] = base + c
			v.Values[k] = weight
		}

		X[i], y[i] = v, label
	}

	return X, y
}

func TestTrain_LargeVocabulary(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "default", cfg: DefaultConfig()},
		{name: "regularized", cfg: Config{LearningRate: 0.5, Regularization: 1e-4, MaxIterations: 50, Seed: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			X, y := sparseCorpus(1000, 10000, 40)

			s := New(tt.cfg, nil)

			start := time.Now()
			require.NoError(t, s.Train(X, y))
			assert.Less(t, time.Since(start), 10*time.Second)
			assert.Equal(t, 10000, s.Dim())

			labels, err := s.Predict(X)
			require.NoError(t, err)

			correct := 0
			for i := range labels {
				if labels[i] == y[i] {
					correct++
				}
			}

			assert.GreaterOrEqual(t, float64(correct)/float64(len(y)), 0.95)
		})
	}
}

func TestTrain_RegularizationTooStrong(t *testing.T) {
	X, y := sparseCorpus(4, 10, 2)

	s := New(Config{LearningRate: 0.5, Regularization: 2, MaxIterations: 1}, nil)

	err := s.Train(X, y)
	require.Error(t, err)
	assert.Equal(t, errors.KindTraining, errors.KindOf(err))
	assert.False(t, s.IsTrained())
}

func TestPredict_MidpointMatchesProbability(t *testing.T) {
	s, vec := trainedFixture(t)

	// A decision value just above zero still rounds to P(FAKE) = 0.5.
	theta := make([]float64, s.Dim()+1)
	theta[0] = 1e-17
	s.model.Parameters = theta

	X, err := vec.Transform([]textnorm.CleanedText{"unseen"})
	require.NoError(t, err)

	probs, err := s.PredictProbaFake(X)
	require.NoError(t, err)
	require.InDelta(t, 0.5, probs[0], 0)

	labels, err := s.Predict(X)
	require.NoError(t, err)
	assert.Equal(t, []domain.Label{domain.LabelFake}, labels)
}
