package news

import (
	"context"
	"time"

	"marketpulse/internal/adapters/kafka"
	"marketpulse/internal/domain/news"
	"marketpulse/internal/metrics"
	"marketpulse/internal/workers"
	"marketpulse/pkg/errors"
)

// WorkerName is the scheduler identity of the news ingestor
const WorkerName = "news_ingestion"

// NewsPublisher receives newly stored items
type NewsPublisher interface {
	PublishNewsIngested(ctx context.Context, item news.Item) error
}

// Ingestor polls configured feeds and stores new headlines, deduplicated on URL
type Ingestor struct {
	*workers.BaseWorker
	repo      news.Repository
	fetcher   news.FeedFetcher
	feeds     []news.Feed
	maxItems  int
	cache     news.SeenCache
	publisher NewsPublisher
	now       func() time.Time
}

// Option configures an Ingestor
type Option func(*Ingestor)

// WithSeenCache short-circuits URLs already known to be stored
func WithSeenCache(cache news.SeenCache) Option {
	return func(in *Ingestor) {
		in.cache = cache
	}
}

// WithPublisher publishes every newly inserted item
func WithPublisher(p NewsPublisher) Option {
	return func(in *Ingestor) {
		in.publisher = p
	}
}

// WithMaxItemsPerFeed overrides how many entries each feed contributes
func WithMaxItemsPerFeed(n int) Option {
	return func(in *Ingestor) {
		if n > 0 {
			in.maxItems = n
		}
	}
}

// WithClock overrides the clock used for undated entries
func WithClock(now func() time.Time) Option {
	return func(in *Ingestor) {
		in.now = now
	}
}

// NewIngestor creates a new news ingestion worker
func NewIngestor(
	repo news.Repository,
	fetcher news.FeedFetcher,
	feeds []news.Feed,
	interval time.Duration,
	enabled bool,
	opts ...Option,
) *Ingestor {
	in := &Ingestor{
		BaseWorker: workers.NewBaseWorker(WorkerName, interval, enabled),
		repo:       repo,
		fetcher:    fetcher,
		feeds:      feeds,
		maxItems:   news.DefaultMaxItemsPerFeed,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(in)
	}

	return in
}

// feedStats counts per-feed outcomes
type feedStats struct {
	inserted   int
	duplicates int
	cached     int
	failed     int
	skipped    int
}

// Run executes one pass over all feeds. Feed and item failures are isolated;
// the run fails only when every feed failed to fetch.
func (in *Ingestor) Run(ctx context.Context) error {
	var fetchErrs errors.MultiError
	var total feedStats

	for _, feed := range in.feeds {
		// Check for context cancellation (graceful shutdown)
		select {
		case <-ctx.Done():
			in.Log().Info("News ingestion interrupted by shutdown", "inserted", total.inserted)
			return ctx.Err()
		default:
		}

		result, err := in.fetcher.Fetch(ctx, feed.URL)
		if err != nil {
			metrics.FeedFailures.WithLabelValues(feed.URL).Inc()
			in.Log().Warn("Failed to fetch feed", "feed", feed.URL, "error", err)
			fetchErrs.Add(err)
			continue
		}

		stats, err := in.ingestFeed(ctx, feed, result)
		if err != nil {
			return err
		}

		total.inserted += stats.inserted
		total.duplicates += stats.duplicates
		total.cached += stats.cached
		total.failed += stats.failed
		total.skipped += stats.skipped
	}

	in.Log().Info("News ingestion complete",
		"feeds", len(in.feeds),
		"feed_failures", len(fetchErrs.Errors),
		"inserted", total.inserted,
		"duplicates", total.duplicates,
		"cached", total.cached,
		"failed", total.failed,
	)

	if len(in.feeds) > 0 && len(fetchErrs.Errors) == len(in.feeds) {
		return errors.Wrapf(errors.ErrFeedUnavailable, "all %d feeds failed: %v", len(in.feeds), fetchErrs.Error())
	}
	return nil
}

func (in *Ingestor) ingestFeed(ctx context.Context, feed news.Feed, result *news.FeedResult) (feedStats, error) {
	var stats feedStats
	if result == nil {
		return stats, nil
	}

	source := news.ResolveSource(feed, result.Title)
	now := in.now()

	for _, entry := range news.SelectLatest(result.Entries, in.maxItems) {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		item := news.NewItem(entry, source, now)
		if item.URL == "" {
			stats.skipped++
			metrics.NewsItems.WithLabelValues(source, "skipped").Inc()
			in.Log().Debug("Skipping entry without link", "feed", feed.URL, "title", item.Title)
			continue
		}

		if in.alreadySeen(ctx, item.URL) {
			stats.cached++
			metrics.NewsItems.WithLabelValues(source, "cached").Inc()
			continue
		}

		inserted, err := in.repo.InsertIgnoreDuplicate(ctx, &item)
		if err != nil {
			stats.failed++
			metrics.NewsItems.WithLabelValues(source, "failed").Inc()
			in.Log().Warn("Failed to store news item",
				"feed", feed.URL,
				"url", item.URL,
				"error", err,
			)
			continue
		}

		in.markSeen(ctx, item.URL)

		if !inserted {
			stats.duplicates++
			metrics.NewsItems.WithLabelValues(source, "duplicate").Inc()
			continue
		}

		stats.inserted++
		metrics.NewsItems.WithLabelValues(source, "inserted").Inc()
		in.publish(ctx, item)
	}

	in.Log().Debug("Feed ingested",
		"feed", feed.URL,
		"source", source,
		"entries", len(result.Entries),
		"inserted", stats.inserted,
		"duplicates", stats.duplicates,
	)

	return stats, nil
}

// alreadySeen consults the cache; cache faults fall through to the store
func (in *Ingestor) alreadySeen(ctx context.Context, url string) bool {
	if in.cache == nil {
		return false
	}

	seen, err := in.cache.Seen(ctx, url)
	if err != nil {
		in.Log().Debug("Seen cache lookup failed, using store", "url", url, "error", err)
		return false
	}
	return seen
}

func (in *Ingestor) markSeen(ctx context.Context, url string) {
	if in.cache == nil {
		return
	}

	if err := in.cache.MarkSeen(ctx, url); err != nil {
		in.Log().Debug("Failed to mark url seen", "url", url, "error", err)
	}
}

func (in *Ingestor) publish(ctx context.Context, item news.Item) {
	if in.publisher == nil {
		return
	}

	err := in.publisher.PublishNewsIngested(ctx, item)
	metrics.RecordKafkaPublish(kafka.TopicNewsIngested, err)
	if err != nil {
		in.Log().Warn("Failed to publish news item", "url", item.URL, "error", err)
	}
}
