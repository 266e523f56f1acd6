// Package feed classifies the entries of RSS/Atom feeds. Each pass fetches
// every source, skips entries already classified, optionally downloads the
// linked article, and logs one prediction per new entry.
package feed

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/lueurxax/fakenews-detector/internal/platform/observability"
	"github.com/lueurxax/fakenews-detector/internal/process/pipeline"
	db "github.com/lueurxax/fakenews-detector/internal/storage"
)

const (
	defaultMaxItems = 50
	// defaultSeenCapacity bounds the in-process dedup set.
	defaultSeenCapacity = 10000

	logKeyLabel      = "label"
	logKeyConfidence = "confidence"
	logKeyTitle      = "title"
	logKeyDegraded   = "degraded"
)

type Predictor interface {
	PredictBatch(raws []string) ([]pipeline.Prediction, error)
}

// ItemFetcher is implemented by *Fetcher.
type ItemFetcher interface {
	FetchFeed(ctx context.Context, src Source) ([]Item, error)
	FetchArticle(ctx context.Context, link string) (string, error)
}

// Store is the optional prediction log used for de-duplication.
type Store interface {
	SeenSourceRefs(ctx context.Context, source string, refs []string) (map[string]bool, error)
	RecordPrediction(ctx context.Context, rec *db.PredictionRecord) error
}

// Locker serializes passes across replicas.
type Locker interface {
	WithAdvisoryLock(ctx context.Context, lockID int64, fn func(ctx context.Context) error) (bool, error)
}

type Options struct {
	ModelID       string
	FetchArticles bool
	MaxItems      int
	IncludeTitle  bool
	// SeenCapacity bounds how many item refs are remembered in process. It is
	// raised to twice the items one pass can return.
	SeenCapacity int
	// OnResult, when set, receives every classified item.
	OnResult func(ItemResult)
}

// ItemResult is one classified entry.
type ItemResult struct {
	Item       Item
	Prediction pipeline.Prediction
}

// Summary counts what one pass did.
type Summary struct {
	Feeds      int
	FeedErrors int
	Items      int
	Skipped    int
	Classified int
	Failed     int
	// Locked is true when another replica held the pass lock.
	Locked bool
}

type Classifier struct {
	sources   []Source
	fetcher   ItemFetcher
	predictor Predictor
	store     Store
	locker    Locker
	opts      Options
	logger    *zerolog.Logger

	// seen de-duplicates within the process when no store is configured.
	// Refs still present in a feed are refreshed on every pass.
	seen *lru.Cache[string, struct{}]
}

// NewClassifier wires a feed classifier. store and locker may be nil.
func NewClassifier(sources []Source, fetcher ItemFetcher, predictor Predictor, store Store, locker Locker, opts Options, logger *zerolog.Logger) *Classifier {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	if opts.MaxItems <= 0 {
		opts.MaxItems = defaultMaxItems
	}

	if opts.SeenCapacity <= 0 {
		opts.SeenCapacity = defaultSeenCapacity
	}

	perPass := 0
	for _, src := range sources {
		if src.MaxItems > 0 {
			perPass += src.MaxItems
		} else {
			perPass += opts.MaxItems
		}
	}

	opts.SeenCapacity = max(opts.SeenCapacity, 2*perPass)

	// The size is positive, which is the only failure lru.New reports.
	seen, _ := lru.New[string, struct{}](opts.SeenCapacity)

	return &Classifier{
		sources:   sources,
		fetcher:   fetcher,
		predictor: predictor,
		store:     store,
		locker:    locker,
		opts:      opts,
		logger:    logger,
		seen:      seen,
	}
}

// RunOnce performs one pass over every source. Per-feed failures are
// counted, logged and skipped; only lock and context errors are returned.
func (c *Classifier) RunOnce(ctx context.Context) (Summary, error) {
	if c.locker == nil {
		return c.pass(ctx)
	}

	var sum Summary

	acquired, err := c.locker.WithAdvisoryLock(ctx, db.FeedPassLockID, func(ctx context.Context) error {
		var passErr error

		sum, passErr = c.pass(ctx)

		return passErr
	})
	if err != nil {
		return sum, err
	}

	if !acquired {
		c.logger.Info().Msg("feed pass skipped, another instance holds the lock")
		return Summary{Locked: true}, nil
	}

	return sum, nil
}

func (c *Classifier) pass(ctx context.Context) (Summary, error) {
	var sum Summary

	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("feed pass: %w", err)
		}

		sum.Feeds++

		if err := c.classifySource(ctx, src, &sum); err != nil {
			sum.FeedErrors++

			c.logger.Warn().Err(err).Str(logKeyFeed, src.Name).Msg("feed skipped")
		}
	}

	if sum.Feeds > sum.FeedErrors {
		observability.FeedLastSuccessTimestamp.SetToCurrentTime()
	}

	c.logger.Info().
		Int("feeds", sum.Feeds).
		Int("feed_errors", sum.FeedErrors).
		Int("items", sum.Items).
		Int("skipped", sum.Skipped).
		Int("classified", sum.Classified).
		Int("failed", sum.Failed).
		Msg("feed pass complete")

	return sum, nil
}

func (c *Classifier) classifySource(ctx context.Context, src Source, sum *Summary) error {
	items, err := c.fetcher.FetchFeed(ctx, src)
	if err != nil {
		return err
	}

	limit := c.opts.MaxItems
	if src.MaxItems > 0 {
		limit = src.MaxItems
	}

	if len(items) > limit {
		items = items[:limit]
	}

	sum.Items += len(items)

	fresh, err := c.unseen(ctx, items)
	if err != nil {
		return err
	}

	skipped := len(items) - len(fresh)
	sum.Skipped += skipped
	observability.FeedItems.WithLabelValues(observability.StatusSkipped).Add(float64(skipped))

	fetchArticles := c.opts.FetchArticles
	if src.FetchArticles != nil {
		fetchArticles = *src.FetchArticles
	}

	ready := make([]Item, 0, len(fresh))
	texts := make([]string, 0, len(fresh))

	for _, it := range fresh {
		if fetchArticles && it.Link != "" {
			c.enrich(ctx, &it)
		}

		text := c.textOf(it)
		if text == "" {
			sum.Skipped++
			observability.FeedItems.WithLabelValues(observability.StatusSkipped).Inc()

			continue
		}

		ready = append(ready, it)
		texts = append(texts, text)
	}

	if len(ready) == 0 {
		return nil
	}

	preds, err := c.predictor.PredictBatch(texts)
	if err != nil {
		sum.Failed += len(ready)
		observability.FeedItems.WithLabelValues(observability.StatusError).Add(float64(len(ready)))

		return fmt.Errorf("classify %s: %w", src.Name, err)
	}

	for i, it := range ready {
		c.emit(ctx, it, texts[i], preds[i])
	}

	sum.Classified += len(ready)

	return nil
}

// unseen drops items already classified in an earlier pass.
func (c *Classifier) unseen(ctx context.Context, items []Item) ([]Item, error) {
	if len(items) == 0 {
		return nil, nil
	}

	var seen map[string]bool

	if c.store != nil {
		refs := make([]string, len(items))
		for i, it := range items {
			refs[i] = it.Ref
		}

		var err error

		seen, err = c.store.SeenSourceRefs(ctx, db.SourceFeed, refs)
		if err != nil {
			return nil, fmt.Errorf("check seen items: %w", err)
		}
	}

	out := make([]Item, 0, len(items))

	for _, it := range items {
		if _, ok := c.seen.Get(it.Ref); ok || seen[it.Ref] {
			continue
		}

		out = append(out, it)
	}

	return out, nil
}

func (c *Classifier) enrich(ctx context.Context, it *Item) {
	text, err := c.fetcher.FetchArticle(ctx, it.Link)
	if err != nil {
		c.logger.Debug().Err(err).Str(logKeyURL, it.Link).Msg("article fetch failed, using feed text")
		return
	}

	if len(text) > len(it.Text) {
		it.Text = text
	}
}

func (c *Classifier) textOf(it Item) string {
	text := strings.TrimSpace(it.Text)
	if text == "" {
		return ""
	}

	if c.opts.IncludeTitle && it.Title != "" {
		return it.Title + " " + text
	}

	return text
}

func (c *Classifier) emit(ctx context.Context, it Item, text string, p pipeline.Prediction) {
	c.seen.Add(it.Ref, struct{}{})

	observability.FeedItems.WithLabelValues(observability.StatusOK).Inc()

	c.logger.Info().
		Str(logKeyFeed, it.Feed).
		Str(logKeyTitle, it.Title).
		Str(logKeyLabel, p.Label.String()).
		Float64(logKeyConfidence, p.Confidence).
		Bool(logKeyDegraded, p.Degraded).
		Msg("feed item classified")

	if c.opts.OnResult != nil {
		c.opts.OnResult(ItemResult{Item: it, Prediction: p})
	}

	if c.store == nil {
		return
	}

	rec := &db.PredictionRecord{
		ModelID:    c.opts.ModelID,
		Source:     db.SourceFeed,
		SourceRef:  it.Ref,
		Title:      it.Title,
		Excerpt:    text,
		Label:      p.Label.String(),
		Confidence: p.Confidence,
		ProbFake:   p.ProbFake,
		Degraded:   p.Degraded,
	}

	if err := c.store.RecordPrediction(ctx, rec); err != nil {
		c.logger.Warn().Err(err).Str(logKeyURL, it.Link).Msg("failed to record feed prediction")
	}
}
