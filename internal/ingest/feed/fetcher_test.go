package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Test wire</title>
<link>https://wire.example/</link>
<item>
  <title>Council approves budget</title>
  <link>%s/articles/1</link>
  <guid>wire-1</guid>
  <description>&lt;p&gt;The council &lt;b&gt;approved&lt;/b&gt; the budget.&lt;/p&gt;</description>
  <pubDate>Mon, 06 Jan 2025 10:00:00 GMT</pubDate>
</item>
<item>
  <title>Untitled guidless</title>
  <description>No link or guid here.</description>
</item>
</channel></rss>`

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	var srv *httptest.Server

	mux.HandleFunc("/rss", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get(headerUserAgent))
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sprintfRSS(srv.URL)))
	})
	mux.HandleFunc("/articles/1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><article><p>Full article text about the council budget vote.</p></article></body></html>`))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/notfeed", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("just some text"))
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func newTestFetcher() *Fetcher {
	return NewFetcher(FetcherOptions{UserAgent: "test-agent", RPS: 1000}, nil)
}

func TestFetchFeed(t *testing.T) {
	srv := newFeedServer(t)
	f := newTestFetcher()

	items, err := f.FetchFeed(context.Background(), Source{Name: "wire", URL: srv.URL + "/rss"})
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "wire", first.Feed)
	assert.Equal(t, "wire-1", first.Ref)
	assert.Equal(t, "Council approves budget", first.Title)
	assert.Equal(t, srv.URL+"/articles/1", first.Link)
	assert.Equal(t, "The council approved the budget.", first.Text)
	assert.Equal(t, 2025, first.Published.Year())

	second := items[1]
	assert.Len(t, second.Ref, 64, "hash ref for entries without guid or link")
	assert.True(t, second.Published.IsZero())
}

func TestFetchFeed_Errors(t *testing.T) {
	srv := newFeedServer(t)
	f := newTestFetcher()

	_, err := f.FetchFeed(context.Background(), Source{URL: srv.URL + "/broken"})
	require.ErrorIs(t, err, errHTTPStatus)

	_, err = f.FetchFeed(context.Background(), Source{URL: srv.URL + "/notfeed"})
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.FetchFeed(ctx, Source{URL: srv.URL + "/rss"})
	require.Error(t, err)
}

func TestFetchArticle(t *testing.T) {
	srv := newFeedServer(t)
	f := newTestFetcher()

	text, err := f.FetchArticle(context.Background(), srv.URL+"/articles/1")
	require.NoError(t, err)
	assert.Contains(t, text, "Full article text about the council budget vote.")
}

func sprintfRSS(base string) string {
	return fmt.Sprintf(testRSS, base)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{name: "empty", in: "", want: time.Time{}},
		{name: "garbage", in: "sometime last week", want: time.Time{}},
		{name: "iso date", in: "2024-03-05", want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{name: "slash date", in: "2024/03/05 10:30:00", want: time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(parseDate(tt.in)), "got %v", parseDate(tt.in))
		})
	}
}
