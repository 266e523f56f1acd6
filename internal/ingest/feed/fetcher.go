package feed

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lueurxax/fakenews-detector/internal/platform/observability"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "fakenews-detector/1.0"
	defaultRPS       = 1
	maxBodySize      = 10 * 1024 * 1024 // 10MB

	headerUserAgent = "User-Agent"
	headerAccept    = "Accept"
	acceptFeed      = "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8"

	fetchKindFeed    = "feed"
	fetchKindArticle = "article"

	logKeyURL    = "url"
	logKeyFeed   = "feed"
	logKeyItems  = "items"
	logKeyStatus = "status"
)

var errHTTPStatus = errors.New("unexpected HTTP status")

// Item is one feed entry ready for classification.
type Item struct {
	Feed      string
	Ref       string
	Title     string
	Link      string
	Text      string
	Published time.Time
}

type FetcherOptions struct {
	Timeout   time.Duration
	UserAgent string
	// RPS limits requests per host.
	RPS float64
}

// Fetcher downloads feeds and article pages, one rate limiter per host.
type Fetcher struct {
	client    *http.Client
	parser    *gofeed.Parser
	userAgent string
	rps       float64
	logger    *zerolog.Logger

	limiters   map[string]*rate.Limiter
	limitersMu sync.Mutex
}

func NewFetcher(opts FetcherOptions, logger *zerolog.Logger) *Fetcher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	if opts.RPS <= 0 {
		opts.RPS = defaultRPS
	}

	return &Fetcher{
		client:    &http.Client{Timeout: opts.Timeout},
		parser:    gofeed.NewParser(),
		userAgent: opts.UserAgent,
		rps:       opts.RPS,
		logger:    logger,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// FetchFeed downloads and parses src. Items keep feed order.
func (f *Fetcher) FetchFeed(ctx context.Context, src Source) ([]Item, error) {
	start := time.Now()

	defer func() {
		observability.FeedFetchDuration.WithLabelValues(fetchKindFeed).Observe(time.Since(start).Seconds())
	}()

	body, _, err := f.get(ctx, src.URL, acceptFeed)
	if err != nil {
		return nil, err
	}

	parsed, err := f.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.URL, err)
	}

	items := make([]Item, 0, len(parsed.Items))

	for _, it := range parsed.Items {
		items = append(items, toItem(src.Name, it))
	}

	f.logger.Debug().Str(logKeyFeed, src.Name).Int(logKeyItems, len(items)).Msg("feed fetched")

	return items, nil
}

// FetchArticle downloads link and extracts its main text.
func (f *Fetcher) FetchArticle(ctx context.Context, link string) (string, error) {
	start := time.Now()

	defer func() {
		observability.FeedFetchDuration.WithLabelValues(fetchKindArticle).Observe(time.Since(start).Seconds())
	}()

	body, u, err := f.get(ctx, link, "text/html")
	if err != nil {
		return "", err
	}

	return ExtractArticle(body, u), nil
}

func (f *Fetcher) get(ctx context.Context, rawURL, accept string) ([]byte, *url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse url: %w", err)
	}

	if err := f.limiter(u.Host).Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set(headerUserAgent, f.userAgent)
	req.Header.Set(headerAccept, accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		f.logger.Debug().Str(logKeyURL, rawURL).Int(logKeyStatus, resp.StatusCode).Msg("fetch failed")
		return nil, nil, fmt.Errorf("%w: %d from %s", errHTTPStatus, resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, nil, fmt.Errorf("read body: %w", err)
	}

	return body, resp.Request.URL, nil
}

func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.limitersMu.Lock()
	defer f.limitersMu.Unlock()

	l, ok := f.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(f.rps), 1)
		f.limiters[host] = l
	}

	return l
}

func toItem(feedName string, it *gofeed.Item) Item {
	text := TextFromHTML(it.Description)
	if content := TextFromHTML(it.Content); len(content) > len(text) {
		text = content
	}

	item := Item{
		Feed:  feedName,
		Title: collapseSpace(it.Title),
		Link:  it.Link,
		Text:  text,
	}

	switch {
	case it.PublishedParsed != nil:
		item.Published = *it.PublishedParsed
	case it.UpdatedParsed != nil:
		item.Published = *it.UpdatedParsed
	default:
		item.Published = parseDate(it.Published)
	}

	item.Ref = itemRef(it)

	return item
}

// parseDate handles the free-form dates gofeed gives up on.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}
	}

	return t.UTC()
}

// itemRef identifies an item across passes: the GUID, else the link, else
// a hash of title and text.
func itemRef(it *gofeed.Item) string {
	if it.GUID != "" {
		return it.GUID
	}

	if it.Link != "" {
		return it.Link
	}

	sum := sha256.Sum256([]byte(it.Title + "\x00" + it.Description))

	return hex.EncodeToString(sum[:])
}
