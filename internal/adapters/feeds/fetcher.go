package feeds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"marketpulse/internal/adapters/ratelimit"
	"marketpulse/internal/adapters/retry"
	"marketpulse/internal/domain/news"
	"marketpulse/pkg/errors"
)

// Compile-time check
var _ news.FeedFetcher = (*Fetcher)(nil)

const maxFeedBytes = 10 << 20

// Config holds fetcher settings
type Config struct {
	Timeout           time.Duration
	UserAgent         string
	RequestsPerMinute int

	// Retry applies to transport failures, 5xx and 429; zero MaxRetries disables it
	Retry retry.Config
}

// statusError is a non-2xx feed response
type statusError struct {
	url    string
	code   int
	status string
}

func (e *statusError) Error() string   { return fmt.Sprintf("fetch %s: %s", e.url, e.status) }
func (e *statusError) StatusCode() int { return e.code }
func (e *statusError) Unwrap() error   { return errors.ErrFeedUnavailable }

// Fetcher downloads RSS/Atom feeds and parses them with gofeed
type Fetcher struct {
	client    *http.Client
	userAgent string
	limiters  *ratelimit.HostLimiters
	retry     *retry.Policy
}

// NewFetcher creates a feed fetcher with its own HTTP client
func NewFetcher(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		limiters:  ratelimit.NewHostLimiters(cfg.RequestsPerMinute),
		retry:     retry.New(cfg.Retry),
	}
}

// Fetch downloads and parses one feed
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (*news.FeedResult, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "feed url %q: %v", feedURL, err)
	}

	feed, err := retry.Do(ctx, f.retry, func(ctx context.Context) (*gofeed.Feed, error) {
		if err := f.limiters.Wait(ctx, u.Host); err != nil {
			return nil, err
		}
		return f.fetchOnce(ctx, feedURL)
	})
	if err != nil {
		return nil, err
	}

	return convertFeed(feed), nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build feed request")
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w: %w", feedURL, errors.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{url: feedURL, code: resp.StatusCode, status: resp.Status}
	}

	feed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrFeedUnavailable, "parse %s: %v", feedURL, err)
	}
	return feed, nil
}

func convertFeed(feed *gofeed.Feed) *news.FeedResult {
	result := &news.FeedResult{
		Title:   feed.Title,
		Entries: make([]news.FeedEntry, 0, len(feed.Items)),
	}

	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		entry := news.FeedEntry{
			Title:     item.Title,
			Link:      item.Link,
			Published: item.Published,
		}
		switch {
		case item.PublishedParsed != nil:
			t := item.PublishedParsed.UTC()
			entry.PublishedAt = &t
		case item.UpdatedParsed != nil:
			t := item.UpdatedParsed.UTC()
			entry.PublishedAt = &t
		}

		result.Entries = append(result.Entries, entry)
	}

	return result
}
