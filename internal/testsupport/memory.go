package testsupport

import (
	"context"
	"sort"
	"sync"
	"time"

	"marketpulse/internal/domain/market"
	"marketpulse/internal/domain/news"
)

// MemoryTickStore is an in-memory market.Repository
type MemoryTickStore struct {
	mu        sync.Mutex
	ticks     []market.Tick
	appendErr error
	queryErr  error
	appends   int
}

var _ market.Repository = (*MemoryTickStore)(nil)

// NewMemoryTickStore creates an empty store
func NewMemoryTickStore(seed ...market.Tick) *MemoryTickStore {
	return &MemoryTickStore{ticks: append([]market.Tick(nil), seed...)}
}

// FailAppends makes every AppendTicks call fail with err without storing anything
func (s *MemoryTickStore) FailAppends(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}

// FailQueries makes every QueryTicks call fail with err
func (s *MemoryTickStore) FailQueries(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryErr = err
}

func (s *MemoryTickStore) AppendTicks(_ context.Context, ticks []market.Tick) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appends++
	if s.appendErr != nil {
		return s.appendErr
	}
	s.ticks = append(s.ticks, ticks...)
	return nil
}

func (s *MemoryTickStore) QueryTicks(_ context.Context, symbol string, since time.Time, limit int) ([]market.Tick, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queryErr != nil {
		return nil, s.queryErr
	}

	var out []market.Tick
	for _, t := range s.ticks {
		if t.Symbol == symbol && t.Time.After(since) {
			out = append(out, t)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryTickStore) CountTicks(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.ticks)), nil
}

// Ticks returns a copy of everything stored
func (s *MemoryTickStore) Ticks() []market.Tick {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]market.Tick(nil), s.ticks...)
}

// AppendCalls returns how many times AppendTicks was invoked
func (s *MemoryTickStore) AppendCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appends
}

// MemoryNewsStore is an in-memory news.Repository keyed on URL
type MemoryNewsStore struct {
	mu        sync.Mutex
	items     []news.Item
	byURL     map[string]int
	nextID    int64
	failURLs  map[string]error
	recentErr error
}

var _ news.Repository = (*MemoryNewsStore)(nil)

// NewMemoryNewsStore creates an empty store
func NewMemoryNewsStore(seed ...news.Item) *MemoryNewsStore {
	s := &MemoryNewsStore{
		byURL:    make(map[string]int),
		failURLs: make(map[string]error),
	}
	for i := range seed {
		item := seed[i]
		_, _ = s.InsertIgnoreDuplicate(context.Background(), &item)
	}
	return s
}

// FailInsert makes inserts of url fail with err
func (s *MemoryNewsStore) FailInsert(url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failURLs[url] = err
}

// FailRecent makes GetRecent fail with err
func (s *MemoryNewsStore) FailRecent(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recentErr = err
}

func (s *MemoryNewsStore) InsertIgnoreDuplicate(_ context.Context, item *news.Item) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.failURLs[item.URL]; ok {
		return false, err
	}
	if _, exists := s.byURL[item.URL]; exists {
		return false, nil
	}

	s.nextID++
	item.ID = s.nextID
	s.byURL[item.URL] = len(s.items)
	s.items = append(s.items, *item)
	return true, nil
}

func (s *MemoryNewsStore) GetRecent(_ context.Context, limit int) ([]news.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recentErr != nil {
		return nil, s.recentErr
	}

	out := append([]news.Item(nil), s.items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryNewsStore) CountNews(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.items)), nil
}

// Items returns stored items in insertion order
func (s *MemoryNewsStore) Items() []news.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]news.Item(nil), s.items...)
}

// StaticPriceSource quotes fixed prices and fails for configured symbols
type StaticPriceSource struct {
	Prices map[string]float64
	Errors map[string]error
}

var _ market.PriceSource = (*StaticPriceSource)(nil)

func (s *StaticPriceSource) Quote(_ context.Context, inst market.Instrument) (float64, error) {
	if err, ok := s.Errors[inst.Symbol]; ok {
		return 0, err
	}
	if p, ok := s.Prices[inst.Symbol]; ok {
		return p, nil
	}
	return inst.BasePrice, nil
}

// FakeFeedFetcher serves canned feeds
type FakeFeedFetcher struct {
	mu      sync.Mutex
	Results map[string]*news.FeedResult
	Errors  map[string]error
	calls   []string
}

var _ news.FeedFetcher = (*FakeFeedFetcher)(nil)

func (f *FakeFeedFetcher) Fetch(_ context.Context, url string) (*news.FeedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, url)
	if err, ok := f.Errors[url]; ok {
		return nil, err
	}
	return f.Results[url], nil
}

// Calls returns fetched URLs in order
func (f *FakeFeedFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// MemorySeenCache is an in-memory news.SeenCache
type MemorySeenCache struct {
	mu   sync.Mutex
	seen map[string]bool
	Err  error
}

var _ news.SeenCache = (*MemorySeenCache)(nil)

// NewMemorySeenCache creates an empty cache
func NewMemorySeenCache() *MemorySeenCache {
	return &MemorySeenCache{seen: make(map[string]bool)}
}

func (c *MemorySeenCache) Seen(_ context.Context, url string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return false, c.Err
	}
	return c.seen[url], nil
}

func (c *MemorySeenCache) MarkSeen(_ context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.seen[url] = true
	return nil
}

// Has reports whether url was marked
func (c *MemorySeenCache) Has(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen[url]
}

// RecordingPublisher captures published events
type RecordingPublisher struct {
	mu      sync.Mutex
	Batches []market.TickBatch
	News    []news.Item
	Err     error
}

func (p *RecordingPublisher) PublishTickBatch(_ context.Context, batch market.TickBatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Batches = append(p.Batches, batch)
	return nil
}

func (p *RecordingPublisher) PublishNewsIngested(_ context.Context, item news.Item) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.News = append(p.News, item)
	return nil
}
