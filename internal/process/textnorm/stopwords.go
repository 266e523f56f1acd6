package textnorm

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed english_stopwords.txt
var englishStopwordsRaw string

// stopwordSet is read-only after construction.
type stopwordSet map[string]struct{}

func (s stopwordSet) contains(token string) bool {
	_, ok := s[token]

	return ok
}

func loadEmbeddedStopwords() (stopwordSet, error) {
	return parseStopwords(strings.NewReader(englishStopwordsRaw))
}

func loadStopwordsFile(path string) (stopwordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stopwords file: %w", err)
	}
	defer f.Close()

	set, err := parseStopwords(f)
	if err != nil {
		return nil, fmt.Errorf("read stopwords file %s: %w", path, err)
	}

	return set, nil
}

// parseStopwords reads one word per line. Blank lines and lines starting
// with '#' are ignored.
func parseStopwords(r io.Reader) (stopwordSet, error) {
	set := make(stopwordSet)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}

		set[word] = struct{}{}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(set) == 0 {
		return nil, errEmptyStopwords
	}

	return set, nil
}
