package textnorm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const headline = "BREAKING!! Scientists Found Water on Mars (2024)"

func newNormalizer(t *testing.T, opts ...Option) *Normalizer {
	t.Helper()

	n, err := New(opts...)
	require.NoError(t, err)

	return n
}

func TestClean_WithoutStemming(t *testing.T) {
	n := newNormalizer(t, WithStemming(false))

	tests := []struct {
		name  string
		input string
		want  CleanedText
	}{
		{"empty", "", ""},
		{"only symbols", "!!! ??? ...", ""},
		{"only stopwords", "The and of it", ""},
		{"headline", headline, "breaking scientists found water mars 2024"},
		{"whitespace collapsed", "  fake\t\tnews \n spreads  ", "fake news spreads"},
		{"apostrophes split", "Don't trust it", "trust"},
		{"digits kept", "COVID-19 cases rise", "covid 19 cases rise"},
		{"non-ascii dropped", "café résumé", "caf r sum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Clean(tt.input))
		})
	}
}

func TestClean_WithStemming(t *testing.T) {
	n := newNormalizer(t)
	require.True(t, n.Stemming())

	assert.Equal(t, CleanedText("break scientist found water mar 2024"), n.Clean(headline))
}

func TestClean_DiacriticFolding(t *testing.T) {
	n := newNormalizer(t, WithStemming(false), WithDiacriticFolding(true))

	assert.Equal(t, CleanedText("cafe resume"), n.Clean("Café Résumé"))
}

func TestClean_Deterministic(t *testing.T) {
	inputs := []string{
		headline,
		"Officials confirmed the report on Tuesday, citing multiple sources.",
		"You won't BELIEVE what happened next!!!",
	}

	a := newNormalizer(t)
	b := newNormalizer(t)

	for _, input := range inputs {
		first := a.Clean(input)
		assert.Equal(t, first, a.Clean(input), "repeated call")
		assert.Equal(t, first, b.Clean(input), "second instance")
	}
}

func TestCleanAll(t *testing.T) {
	n := newNormalizer(t, WithStemming(false))

	got := n.CleanAll([]string{"The Fake story", "", "a real REPORT"})
	assert.Equal(t, []CleanedText{"fake story", "", "real report"}, got)
	assert.Equal(t, []string{"real", "report"}, got[2].Tokens())
}

func TestStopwordsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop.txt")
	require.NoError(t, os.WriteFile(path, []byte("# custom list\nFake\n\nnews\n"), 0o600))

	n := newNormalizer(t, WithStemming(false), WithStopwordsFile(path))
	assert.Equal(t, CleanedText("the story"), n.Clean("The fake news story"))
}

func TestStopwordsFile_Errors(t *testing.T) {
	_, err := New(WithStopwordsFile(filepath.Join(t.TempDir(), "missing.txt")))
	require.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("\n# nothing\n"), 0o600))

	_, err = New(WithStopwordsFile(empty))
	require.ErrorIs(t, err, errEmptyStopwords)
}
