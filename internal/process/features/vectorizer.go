// Package features maps cleaned text into TF-IDF vectors over a vocabulary
// learned once from the training corpus.
//
// Column i always means the same term after FitTransform: Transform never
// re-learns the vocabulary, so vectors fed to the scorer at inference time
// line up with the weights it learned.
package features

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/lueurxax/fakenews-detector/internal/core/errors"
	"github.com/lueurxax/fakenews-detector/internal/process/textnorm"
)

const (
	DefaultMaxFeatures = 10000
	DefaultNGramMax    = 2
	DefaultMinDF       = 1

	opFitTransform = "vectorizer.fit_transform"
	opTransform    = "vectorizer.transform"
	opFeatureNames = "vectorizer.feature_names"
	opUnmarshal    = "vectorizer.unmarshal"

	msgFitFirst = "need to call FitTransform before using the vectorizer"
)

// Config bounds the learned vocabulary.
type Config struct {
	// MaxFeatures caps the vocabulary size. Zero or less means no cap.
	MaxFeatures int `json:"max_features"`
	// NGramMax is the longest n-gram kept (1 = unigrams only).
	NGramMax int `json:"ngram_max"`
	// MinDF drops terms seen in fewer documents.
	MinDF int `json:"min_df"`
}

// DefaultConfig returns unigrams+bigrams capped at 10000 terms.
func DefaultConfig() Config {
	return Config{
		MaxFeatures: DefaultMaxFeatures,
		NGramMax:    DefaultNGramMax,
		MinDF:       DefaultMinDF,
	}
}

func (c Config) withDefaults() Config {
	if c.NGramMax < 1 {
		c.NGramMax = DefaultNGramMax
	}

	if c.MinDF < 1 {
		c.MinDF = DefaultMinDF
	}

	return c
}

// Vectorizer learns a vocabulary with FitTransform and maps documents into
// it with Transform. After fitting it is read-only and safe for concurrent
// Transform calls.
type Vectorizer struct {
	cfg        Config
	vocabulary map[string]int
	terms      []string
	idf        []float64
	epoch      string
	fitted     bool
}

// NewVectorizer returns an unfitted vectorizer.
func NewVectorizer(cfg Config) *Vectorizer {
	return &Vectorizer{cfg: cfg.withDefaults()}
}

// Config returns the vectorizer configuration.
func (v *Vectorizer) Config() Config {
	return v.cfg
}

// Fitted reports whether a vocabulary has been learned.
func (v *Vectorizer) Fitted() bool {
	return v.fitted
}

// Dim returns the vocabulary size, zero before fitting.
func (v *Vectorizer) Dim() int {
	return len(v.terms)
}

// Epoch identifies the current vocabulary. It changes on every fit.
func (v *Vectorizer) Epoch() string {
	return v.epoch
}

type termStats struct {
	term  string
	df    int
	count int
}

// FitTransform learns the vocabulary and IDF weights from corpus and returns
// the TF-IDF vectors of corpus.
func (v *Vectorizer) FitTransform(corpus []textnorm.CleanedText) ([]Vector, error) {
	if len(corpus) == 0 {
		return nil, errors.E(errors.KindInvalidInput, opFitTransform, "empty corpus")
	}

	docTerms := make([]map[string]int, len(corpus))
	stats := make(map[string]*termStats)

	for i, doc := range corpus {
		counts := v.countTerms(doc)
		docTerms[i] = counts

		for term, c := range counts {
			s, ok := stats[term]
			if !ok {
				s = &termStats{term: term}
				stats[term] = s
			}

			s.df++
			s.count += c
		}
	}

	selected := v.selectTerms(stats)
	if len(selected) == 0 {
		return nil, errors.E(errors.KindInvalidInput, opFitTransform, "empty vocabulary; documents contain only stopwords")
	}

	n := float64(len(corpus))
	vocabulary := make(map[string]int, len(selected))
	terms := make([]string, len(selected))
	idf := make([]float64, len(selected))

	for i, s := range selected {
		vocabulary[s.term] = i
		terms[i] = s.term
		// Smoothed IDF: every term behaves as if seen in one extra document.
		idf[i] = math.Log((1+n)/(1+float64(s.df))) + 1
	}

	v.vocabulary = vocabulary
	v.terms = terms
	v.idf = idf
	v.epoch = uuid.NewString()
	v.fitted = true

	out := make([]Vector, len(docTerms))
	for i, counts := range docTerms {
		out[i] = v.weigh(counts)
	}

	return out, nil
}

// selectTerms keeps the most frequent terms by document frequency, then
// orders them lexicographically to assign columns.
func (v *Vectorizer) selectTerms(stats map[string]*termStats) []*termStats {
	ranked := make([]*termStats, 0, len(stats))

	for _, s := range stats {
		if s.df >= v.cfg.MinDF {
			ranked = append(ranked, s)
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].df != ranked[j].df {
			return ranked[i].df > ranked[j].df
		}

		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}

		return ranked[i].term < ranked[j].term
	})

	if v.cfg.MaxFeatures > 0 && len(ranked) > v.cfg.MaxFeatures {
		ranked = ranked[:v.cfg.MaxFeatures]
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].term < ranked[j].term
	})

	return ranked
}

// Transform maps docs into the learned vocabulary. Terms outside it are
// ignored.
func (v *Vectorizer) Transform(docs []textnorm.CleanedText) ([]Vector, error) {
	if !v.fitted {
		return nil, errors.E(errors.KindNotFitted, opTransform, msgFitFirst)
	}

	out := make([]Vector, len(docs))
	for i, doc := range docs {
		out[i] = v.weigh(v.countTerms(doc))
	}

	return out, nil
}

// FeatureNames returns the vocabulary; term i is column i.
func (v *Vectorizer) FeatureNames() ([]string, error) {
	if !v.fitted {
		return nil, errors.E(errors.KindNotFitted, opFeatureNames, msgFitFirst)
	}

	out := make([]string, len(v.terms))
	copy(out, v.terms)

	return out, nil
}

func (v *Vectorizer) countTerms(doc textnorm.CleanedText) map[string]int {
	tokens := doc.Tokens()
	counts := make(map[string]int, len(tokens)*v.cfg.NGramMax)

	for n := 1; n <= v.cfg.NGramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			counts[strings.Join(tokens[i:i+n], " ")]++
		}
	}

	return counts
}

// weigh builds an L2-normalized TF-IDF vector from raw term counts.
func (v *Vectorizer) weigh(counts map[string]int) Vector {
	indices := make([]int, 0, len(counts))

	for term := range counts {
		if idx, ok := v.vocabulary[term]; ok {
			indices = append(indices, idx)
		}
	}

	sort.Ints(indices)

	values := make([]float64, len(indices))

	var sumSquares float64

	for i, idx := range indices {
		w := float64(counts[v.terms[idx]]) * v.idf[idx]
		values[i] = w
		sumSquares += w * w
	}

	if sumSquares > 0 {
		norm := math.Sqrt(sumSquares)
		for i := range values {
			values[i] /= norm
		}
	}

	return Vector{Indices: indices, Values: values, Dim: len(v.terms), Epoch: v.epoch}
}

type vectorizerState struct {
	Config Config    `json:"config"`
	Terms  []string  `json:"terms"`
	IDF    []float64 `json:"idf"`
	Epoch  string    `json:"epoch"`
}

// MarshalJSON encodes the learned vocabulary so an inference process can
// restore the exact same feature space.
func (v *Vectorizer) MarshalJSON() ([]byte, error) {
	if !v.fitted {
		return nil, errors.E(errors.KindNotFitted, "vectorizer.marshal", msgFitFirst)
	}

	return json.Marshal(vectorizerState{
		Config: v.cfg,
		Terms:  v.terms,
		IDF:    v.idf,
		Epoch:  v.epoch,
	})
}

// UnmarshalJSON restores a fitted vectorizer.
func (v *Vectorizer) UnmarshalJSON(data []byte) error {
	var st vectorizerState
	if err := json.Unmarshal(data, &st); err != nil {
		return errors.E(errors.KindDataFormat, opUnmarshal, err)
	}

	if len(st.Terms) == 0 || len(st.Terms) != len(st.IDF) {
		return errors.Ef(errors.KindDataFormat, opUnmarshal, "vocabulary has %d terms and %d idf weights", len(st.Terms), len(st.IDF))
	}

	vocabulary := make(map[string]int, len(st.Terms))
	for i, term := range st.Terms {
		if _, dup := vocabulary[term]; dup {
			return errors.Ef(errors.KindDataFormat, opUnmarshal, "duplicate term %q", term)
		}

		vocabulary[term] = i
	}

	v.cfg = st.Config.withDefaults()
	v.vocabulary = vocabulary
	v.terms = st.Terms
	v.idf = st.IDF
	v.epoch = st.Epoch
	v.fitted = true

	return nil
}
