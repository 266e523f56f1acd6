package feed

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var errInvalidSource = errors.New("invalid feed source")

// Source is one feed to classify.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
	// FetchArticles overrides the global article fetch setting when set.
	FetchArticles *bool `yaml:"fetch_articles,omitempty"`
	// MaxItems overrides the global per-feed item cap when positive.
	MaxItems int `yaml:"max_items,omitempty"`
}

type sourcesFile struct {
	Feeds []Source `yaml:"feeds"`
}

// LoadSources reads a YAML file of the form
//
//	feeds:
//	  - name: example
//	    url: https://example.com/rss
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}

	return ParseSources(data)
}

// ParseSources decodes and validates a YAML feed list.
func ParseSources(data []byte) ([]Source, error) {
	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode feeds file: %w", err)
	}

	for i := range f.Feeds {
		if err := f.Feeds[i].normalize(); err != nil {
			return nil, fmt.Errorf("feed %d: %w", i, err)
		}
	}

	return f.Feeds, nil
}

// SourcesFromURLs wraps bare URLs, naming each source after its host.
func SourcesFromURLs(urls []string) ([]Source, error) {
	out := make([]Source, 0, len(urls))

	for _, raw := range urls {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		s := Source{URL: raw}
		if err := s.normalize(); err != nil {
			return nil, err
		}

		out = append(out, s)
	}

	return out, nil
}

// MergeSources concatenates lists, dropping later duplicates by URL.
func MergeSources(lists ...[]Source) []Source {
	seen := make(map[string]bool)

	var out []Source

	for _, list := range lists {
		for _, s := range list {
			if seen[s.URL] {
				continue
			}

			seen[s.URL] = true
			out = append(out, s)
		}
	}

	return out
}

func (s *Source) normalize() error {
	s.URL = strings.TrimSpace(s.URL)

	u, err := url.Parse(s.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q is not an http(s) URL", errInvalidSource, s.URL)
	}

	if strings.TrimSpace(s.Name) == "" {
		s.Name = u.Host
	}

	return nil
}
