// Package textnorm turns raw article text into the cleaned token string the
// vectorizer consumes.
//
// Cleaning is deterministic: lowercase, replace everything outside [a-z0-9 ]
// with a space, collapse whitespace, drop English stopwords and optionally
// stem each remaining token.
package textnorm

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var errEmptyStopwords = errors.New("stopword list is empty")

// CleanedText is the output of Clean: lowercase tokens joined by single
// spaces.
type CleanedText string

func (c CleanedText) String() string { return string(c) }

// Tokens splits the cleaned text back into tokens.
func (c CleanedText) Tokens() []string {
	return strings.Fields(string(c))
}

// Normalizer is immutable after New and safe for concurrent use.
type Normalizer struct {
	stopwords      stopwordSet
	stem           bool
	foldDiacritics bool
}

type options struct {
	stem           bool
	foldDiacritics bool
	stopwordsPath  string
}

// Option configures a Normalizer.
type Option func(*options)

// WithStemming enables or disables stemming. Enabled by default.
func WithStemming(enabled bool) Option {
	return func(o *options) { o.stem = enabled }
}

// WithDiacriticFolding strips combining marks before cleaning so accented
// letters survive as their base letter. Disabled by default.
func WithDiacriticFolding(enabled bool) Option {
	return func(o *options) { o.foldDiacritics = enabled }
}

// WithStopwordsFile replaces the built-in English stopword list with the
// words in path, one per line.
func WithStopwordsFile(path string) Option {
	return func(o *options) { o.stopwordsPath = path }
}

// New acquires the stopword list and returns a ready Normalizer. A stopword
// list that cannot be read is reported here rather than at Clean time.
func New(opts ...Option) (*Normalizer, error) {
	o := options{stem: true}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		set stopwordSet
		err error
	)

	if o.stopwordsPath != "" {
		set, err = loadStopwordsFile(o.stopwordsPath)
	} else {
		set, err = loadEmbeddedStopwords()
	}

	if err != nil {
		return nil, fmt.Errorf("load stopwords: %w", err)
	}

	return &Normalizer{
		stopwords:      set,
		stem:           o.stem,
		foldDiacritics: o.foldDiacritics,
	}, nil
}

// Stemming reports whether tokens are stemmed.
func (n *Normalizer) Stemming() bool {
	return n.stem
}

// Clean normalizes raw. Empty input yields empty output.
func (n *Normalizer) Clean(raw string) CleanedText {
	if raw == "" {
		return ""
	}

	if n.foldDiacritics {
		raw = foldDiacritics(raw)
	}

	tokens := strings.Fields(stripSymbols(strings.ToLower(raw)))
	kept := tokens[:0]

	for _, token := range tokens {
		if n.stopwords.contains(token) {
			continue
		}

		if n.stem {
			token = english.Stem(token, true)
		}

		if token != "" {
			kept = append(kept, token)
		}
	}

	return CleanedText(strings.Join(kept, " "))
}

// CleanAll cleans every document in order.
func (n *Normalizer) CleanAll(raws []string) []CleanedText {
	out := make([]CleanedText, len(raws))
	for i, raw := range raws {
		out[i] = n.Clean(raw)
	}

	return out
}

// stripSymbols replaces every rune outside [a-z0-9 ] with a space.
func stripSymbols(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}

		b.WriteByte(' ')
	}

	return b.String()
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}

	return folded
}
