package news

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/domain/news"
	"marketpulse/internal/testsupport"
	"marketpulse/pkg/errors"
)

const (
	feedA = "https://feeds.example.com/markets.xml"
	feedB = "https://rss.example.org/economy"
)

var baseTime = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

func at(h int) *time.Time {
	t := baseTime.Add(time.Duration(h) * time.Hour)
	return &t
}

func entries(prefix string, n int) []news.FeedEntry {
	out := make([]news.FeedEntry, n)
	for i := 0; i < n; i++ {
		out[i] = news.FeedEntry{
			Title:       fmt.Sprintf("%s headline %d", prefix, i),
			Link:        fmt.Sprintf("https://example.com/%s/%d", prefix, i),
			PublishedAt: at(i),
		}
	}
	return out
}

func newTestIngestor(store news.Repository, fetcher news.FeedFetcher, feeds []news.Feed, opts ...Option) *Ingestor {
	opts = append([]Option{WithClock(func() time.Time { return baseTime.Add(48 * time.Hour) })}, opts...)
	return NewIngestor(store, fetcher, feeds, 5*time.Minute, true, opts...)
}

func TestIngestor_IdempotentAcrossRuns(t *testing.T) {
	store := testsupport.NewMemoryNewsStore()
	fetcher := &testsupport.FakeFeedFetcher{
		Results: map[string]*news.FeedResult{
			feedA: {Title: "Markets", Entries: entries("a", 3)},
		},
	}
	ingestor := newTestIngestor(store, fetcher, []news.Feed{{URL: feedA, Label: "Wire"}})

	require.NoError(t, ingestor.Run(context.Background()))
	require.NoError(t, ingestor.Run(context.Background()))

	items := store.Items()
	require.Len(t, items, 3)

	urls := make(map[string]bool)
	for _, item := range items {
		assert.False(t, urls[item.URL], "duplicate url %s", item.URL)
		urls[item.URL] = true
		assert.Equal(t, "Wire", item.Source)
		assert.Equal(t, news.NeutralSentiment, item.SentimentScore)
	}
}

func TestIngestor_TakesFiveNewest(t *testing.T) {
	store := testsupport.NewMemoryNewsStore()
	fetcher := &testsupport.FakeFeedFetcher{
		Results: map[string]*news.FeedResult{
			feedA: {Title: "Markets", Entries: entries("a", 8)},
		},
	}
	ingestor := newTestIngestor(store, fetcher, []news.Feed{{URL: feedA}})

	require.NoError(t, ingestor.Run(context.Background()))

	items := store.Items()
	require.Len(t, items, 5)
	// newest first: entries 7..3
	for i, item := range items {
		assert.Equal(t, fmt.Sprintf("https://example.com/a/%d", 7-i), item.URL)
	}
	assert.Equal(t, "Markets", items[0].Source)
}

func TestIngestor_MaxItemsOption(t *testing.T) {
	store := testsupport.NewMemoryNewsStore()
	fetcher := &testsupport.FakeFeedFetcher{
		Results: map[string]*news.FeedResult{feedA: {Entries: entries("a", 8)}},
	}
	ingestor := newTestIngestor(store, fetcher, []news.Feed{{URL: feedA}}, WithMaxItemsPerFeed(2))

	require.NoError(t, ingestor.Run(context.Background()))
	assert.Len(t, store.Items(), 2)
	assert.Equal(t, "feeds.example.com", store.Items()[0].Source)
}

func TestIngestor_FeedFailureIsSkipped(t *testing.T) {
	store := testsupport.NewMemoryNewsStore()
	fetcher := &testsupport.FakeFeedFetcher{
		Results: map[string]*news.FeedResult{feedB: {Title: "Economy", Entries: entries("b", 2)}},
		Errors:  map[string]error{feedA: errors.ErrFeedUnavailable},
	}
	ingestor := newTestIngestor(store, fetcher, []news.Feed{{URL: feedA}, {URL: feedB}})

	require.NoError(t, ingestor.Run(context.Background()))

	assert.Equal(t, []string{feedA, feedB}, fetcher.Calls())
	assert.Len(t, store.Items(), 2)
}

func TestIngestor_AllFeedsFailing(t *testing.T) {
	store := testsupport.NewMemoryNewsStore()
	fetcher := &testsupport.FakeFeedFetcher{
		Errors: map[string]error{
			feedA: errors.ErrFeedUnavailable,
			feedB: errors.New("dns failure"),
		},
	}
	ingestor := newTestIngestor(store, fetcher, []news.Feed{{URL: feedA}, {URL: feedB}})

	err := ingestor.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFeedUnavailable))
	assert.Empty(t, store.Items())
}

func TestIngestor_ItemFailureIsSkipped(t *testing.T) {
	store := testsupport.NewMemoryNewsStore()
	batch := entries("a", 3)
	store.FailInsert(batch[1].Link, errors.New("constraint violation"))

	fetcher := &testsupport.FakeFeedFetcher{
		Results: map[string]*news.FeedResult{feedA: {Entries: batch}},
	}
	ingestor := newTestIngestor(store, fetcher, []news.Feed{{URL: feedA}})

	require.NoError(t, ingestor.Run(context.Background()))

	items := store.Items()
	require.Len(t, items, 2)
	assert.Equal(t, batch[2].Link, items[0].URL)
	assert.Equal(t, batch[0].Link, items[1].URL)
}

func TestIngestor_PublishTimeFallbacks(t *testing.T) {
	store := testsupport.NewMemoryNewsStore()
	now := baseTime.Add(48 * time.Hour)

	fetcher := &testsupport.FakeFeedFetcher{
		Results: map[string]*news.FeedResult{feedA: {Entries: []news.FeedEntry{
			{Title: "raw", Link: "https://example.com/raw", Published: "Mon, 04 Mar 2024 07:30:00 +0000"},
			{Title: "undated", Link: "https://example.com/undated", Published: "sometime"},
			{Title: "no link"},
		}}},
	}
	ingestor := newTestIngestor(store, fetcher, []news.Feed{{URL: feedA}})

	require.NoError(t, ingestor.Run(context.Background()))

	items := store.Items()
	require.Len(t, items, 2)

	assert.Equal(t, "https://example.com/raw", items[0].URL)
	assert.True(t, items[0].PublishedAt.Equal(time.Date(2024, 3, 4, 7, 30, 0, 0, time.UTC)))

	assert.Equal(t, "https://example.com/undated", items[1].URL)
	assert.True(t, items[1].PublishedAt.Equal(now))
}

func TestIngestor_SeenCache(t *testing.T) {
	store := testsupport.NewMemoryNewsStore()
	cache := testsupport.NewMemorySeenCache()
	publisher := &testsupport.RecordingPublisher{}

	batch := entries("a", 3)
	store.FailInsert(batch[0].Link, errors.New("timeout"))

	fetcher := &testsupport.FakeFeedFetcher{
		Results: map[string]*news.FeedResult{feedA: {Entries: batch}},
	}
	ingestor := newTestIngestor(store, fetcher, []news.Feed{{URL: feedA}},
		WithSeenCache(cache),
		WithPublisher(publisher),
	)

	require.NoError(t, ingestor.Run(context.Background()))

	assert.True(t, cache.Has(batch[1].Link))
	assert.True(t, cache.Has(batch[2].Link))
	// a failed insert is never marked
	assert.False(t, cache.Has(batch[0].Link))
	assert.Len(t, publisher.News, 2)

	require.NoError(t, ingestor.Run(context.Background()))
	assert.Len(t, publisher.News, 2)
	assert.Len(t, store.Items(), 2)
}

func TestIngestor_CacheFaultFallsBackToStore(t *testing.T) {
	store := testsupport.NewMemoryNewsStore()
	cache := testsupport.NewMemorySeenCache()
	cache.Err = errors.ErrUnavailable

	fetcher := &testsupport.FakeFeedFetcher{
		Results: map[string]*news.FeedResult{feedA: {Entries: entries("a", 2)}},
	}
	ingestor := newTestIngestor(store, fetcher, []news.Feed{{URL: feedA}}, WithSeenCache(cache))

	require.NoError(t, ingestor.Run(context.Background()))
	require.NoError(t, ingestor.Run(context.Background()))

	assert.Len(t, store.Items(), 2)
}

func TestIngestor_PublishesOnlyNewItems(t *testing.T) {
	existing := entries("a", 1)[0]
	store := testsupport.NewMemoryNewsStore(news.Item{URL: existing.Link, Title: existing.Title, PublishedAt: *existing.PublishedAt})
	publisher := &testsupport.RecordingPublisher{}

	fetcher := &testsupport.FakeFeedFetcher{
		Results: map[string]*news.FeedResult{feedA: {Entries: entries("a", 2)}},
	}
	ingestor := newTestIngestor(store, fetcher, []news.Feed{{URL: feedA}}, WithPublisher(publisher))

	require.NoError(t, ingestor.Run(context.Background()))

	require.Len(t, publisher.News, 1)
	assert.Equal(t, "https://example.com/a/1", publisher.News[0].URL)
	assert.NotZero(t, publisher.News[0].ID)
}

func TestIngestor_CancelledContext(t *testing.T) {
	store := testsupport.NewMemoryNewsStore()
	fetcher := &testsupport.FakeFeedFetcher{
		Results: map[string]*news.FeedResult{feedA: {Entries: entries("a", 2)}},
	}
	ingestor := newTestIngestor(store, fetcher, []news.Feed{{URL: feedA}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, ingestor.Run(ctx), context.Canceled)
	assert.Empty(t, fetcher.Calls())
}
