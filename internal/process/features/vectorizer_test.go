package features

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/fakenews-detector/internal/core/errors"
	"github.com/lueurxax/fakenews-detector/internal/process/textnorm"
)

var testCorpus = []textnorm.CleanedText{
	"fake stori spread fast",
	"real report confirm offici",
	"fake report spread",
	"offici confirm real news",
}

func TestFitTransform_Vocabulary(t *testing.T) {
	v := NewVectorizer(DefaultConfig())

	vecs, err := v.FitTransform([]textnorm.CleanedText{"b a", "a c"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	names, err := v.FeatureNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a c", "b", "b a", "c"}, names)
	assert.Equal(t, 5, v.Dim())
	assert.NotEmpty(t, v.Epoch())

	for _, vec := range vecs {
		assert.InDelta(t, 1.0, vec.Norm(), 1e-9)
		assert.Equal(t, 5, vec.Dim)
	}

	// "a" appears in both documents, so it weighs less than "b" in doc 0.
	assert.Less(t, vecs[0].At(0), vecs[0].At(2))
}

func TestFitTransform_MaxFeaturesKeepsHighestDocumentFrequency(t *testing.T) {
	v := NewVectorizer(Config{MaxFeatures: 2, NGramMax: 1})

	_, err := v.FitTransform([]textnorm.CleanedText{
		"common rare",
		"common often",
		"common often",
	})
	require.NoError(t, err)

	names, err := v.FeatureNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"common", "often"}, names)
}

func TestFitTransform_MinDF(t *testing.T) {
	v := NewVectorizer(Config{NGramMax: 1, MinDF: 2})

	_, err := v.FitTransform([]textnorm.CleanedText{"x y", "x z"})
	require.NoError(t, err)

	names, err := v.FeatureNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, names)
}

func TestFitTransform_EmptyCorpus(t *testing.T) {
	v := NewVectorizer(DefaultConfig())

	_, err := v.FitTransform(nil)
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))

	_, err = v.FitTransform([]textnorm.CleanedText{"", ""})
	assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
	assert.False(t, v.Fitted())
}

func TestTransform_BeforeFit(t *testing.T) {
	v := NewVectorizer(DefaultConfig())

	_, err := v.Transform([]textnorm.CleanedText{"anything"})
	require.ErrorIs(t, err, errors.ErrNotFitted)
	assert.Equal(t, errors.KindNotFitted, errors.KindOf(err))

	_, err = v.FeatureNames()
	assert.Equal(t, errors.KindNotFitted, errors.KindOf(err))
}

func TestTransform_VocabularyStability(t *testing.T) {
	v := NewVectorizer(DefaultConfig())

	fitted, err := v.FitTransform(testCorpus)
	require.NoError(t, err)

	namesBefore, err := v.FeatureNames()
	require.NoError(t, err)

	transformed, err := v.Transform(testCorpus)
	require.NoError(t, err)

	namesAfter, err := v.FeatureNames()
	require.NoError(t, err)
	assert.Equal(t, namesBefore, namesAfter)

	require.Len(t, transformed, len(fitted))

	for i := range fitted {
		assert.Equal(t, fitted[i].Dim, transformed[i].Dim)
		assert.Equal(t, fitted[i].Indices, transformed[i].Indices)
		assert.InDeltaSlice(t, fitted[i].Values, transformed[i].Values, 1e-12)
		assert.Equal(t, v.Epoch(), transformed[i].Epoch)
	}
}

func TestTransform_NeverRelearns(t *testing.T) {
	v := NewVectorizer(DefaultConfig())

	_, err := v.FitTransform(testCorpus)
	require.NoError(t, err)

	dim, epoch := v.Dim(), v.Epoch()

	vecs, err := v.Transform([]textnorm.CleanedText{"complet unseen vocabulari", "fake unseen"})
	require.NoError(t, err)

	assert.Equal(t, dim, v.Dim())
	assert.Equal(t, epoch, v.Epoch())
	assert.Zero(t, vecs[0].NNZ(), "out-of-vocabulary terms contribute nothing")
	assert.Equal(t, 1, vecs[1].NNZ())
}

func TestFitTransform_NewEpochPerFit(t *testing.T) {
	v := NewVectorizer(DefaultConfig())

	_, err := v.FitTransform(testCorpus)
	require.NoError(t, err)

	first := v.Epoch()

	_, err = v.FitTransform(testCorpus[:2])
	require.NoError(t, err)
	assert.NotEqual(t, first, v.Epoch())
}

func TestVectorizerJSONRoundTrip(t *testing.T) {
	v := NewVectorizer(DefaultConfig())

	_, err := v.FitTransform(testCorpus)
	require.NoError(t, err)

	data, err := json.Marshal(v)
	require.NoError(t, err)

	restored := &Vectorizer{}
	require.NoError(t, json.Unmarshal(data, restored))

	assert.True(t, restored.Fitted())
	assert.Equal(t, v.Epoch(), restored.Epoch())

	want, err := v.Transform(testCorpus)
	require.NoError(t, err)

	got, err := restored.Transform(testCorpus)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestVectorizerJSON_Errors(t *testing.T) {
	_, err := json.Marshal(NewVectorizer(DefaultConfig()))
	require.Error(t, err)

	restored := &Vectorizer{}
	err = restored.UnmarshalJSON([]byte(`{"terms":["a","b"],"idf":[1]}`))
	assert.Equal(t, errors.KindDataFormat, errors.KindOf(err))

	err = restored.UnmarshalJSON([]byte(`{"terms":["a","a"],"idf":[1,1]}`))
	assert.Equal(t, errors.KindDataFormat, errors.KindOf(err))
}

func TestVectorHelpers(t *testing.T) {
	vec := Vector{Indices: []int{1, 3}, Values: []float64{0.6, 0.8}, Dim: 4}

	assert.Equal(t, []float64{0, 0.6, 0, 0.8}, vec.Dense())
	assert.InDelta(t, 0.8, vec.At(3), 1e-12)
	assert.Zero(t, vec.At(2))
	assert.InDelta(t, 1.0, vec.Norm(), 1e-12)

	// weights[0] is a bias slot.
	weights := []float64{9, 1, 2, 3, 4}
	assert.InDelta(t, 0.6*2+0.8*4, vec.DotOffset(weights, 1), 1e-12)
	assert.False(t, math.IsNaN(vec.DotOffset(nil, 1)))
}
