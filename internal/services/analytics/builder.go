package analytics

import (
	"context"
	"strings"
	"time"

	"marketpulse/internal/domain/analytics"
	"marketpulse/internal/domain/market"
	"marketpulse/internal/domain/news"
	"marketpulse/internal/metrics"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

const (
	DefaultLookback      = 24 * time.Hour
	DefaultMaxRows       = 1000
	DefaultHeadlineLimit = 5
)

// Config tunes the context builder; zero values fall back to defaults
type Config struct {
	Lookback      time.Duration
	MaxRows       int
	HeadlineLimit int
}

func (c Config) withDefaults() Config {
	if c.Lookback <= 0 {
		c.Lookback = DefaultLookback
	}
	if c.MaxRows <= 0 {
		c.MaxRows = DefaultMaxRows
	}
	if c.HeadlineLimit <= 0 {
		c.HeadlineLimit = DefaultHeadlineLimit
	}
	return c
}

// Builder derives market contexts from stored ticks and headlines.
// It holds no mutable state and is safe for concurrent use.
type Builder struct {
	ticks market.Repository
	news  news.Repository
	cfg   Config
	now   func() time.Time
	log   *logger.Logger
}

// Option customizes a Builder
type Option func(*Builder)

// WithClock overrides the time source used for the lookback cutoff
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a market context builder
func NewBuilder(ticks market.Repository, newsRepo news.Repository, cfg Config, opts ...Option) *Builder {
	b := &Builder{
		ticks: ticks,
		news:  newsRepo,
		cfg:   cfg.withDefaults(),
		now:   time.Now,
		log:   logger.Get().With("component", "context_builder"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build summarizes the symbol's ticks over the lookback window.
// ok is false when the window holds no ticks; that is not an error.
func (b *Builder) Build(ctx context.Context, symbol string, lookback time.Duration) (*analytics.MarketContext, bool, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, false, errors.NewValidationError("symbol", "must not be empty", symbol)
	}
	if lookback <= 0 {
		lookback = b.cfg.Lookback
	}

	since := b.now().UTC().Add(-lookback)
	ticks, err := b.ticks.QueryTicks(ctx, symbol, since, b.cfg.MaxRows)
	if err != nil {
		metrics.ContextBuilds.WithLabelValues("error").Inc()
		return nil, false, errors.Wrapf(err, "query ticks for %s", symbol)
	}

	prices := make([]float64, len(ticks))
	for i, t := range ticks {
		prices[i] = t.Price
	}

	summary, ok := analytics.Summarize(prices)
	if !ok {
		metrics.ContextBuilds.WithLabelValues("no_data").Inc()
		b.log.Debug("No ticks in window", "symbol", symbol, "lookback", lookback.String())
		return nil, false, nil
	}

	mc := &analytics.MarketContext{
		Symbol:       symbol,
		CurrentPrice: summary.Current,
		Highest:      summary.Highest,
		Lowest:       summary.Lowest,
		AvgPrice:     summary.Avg,
		Change:       summary.Change,
		ChangePct:    summary.ChangePct,
		Volatility:   summary.Volatility,
		Trend:        analytics.ClassifyTrend(summary.ChangePct),
		DataPoints:   summary.Count,
		TimeRange:    analytics.WindowLabel(lookback),
		RecentNews:   b.headlines(ctx),
		NewestTickAt: ticks[0].Time,
		OldestTickAt: ticks[len(ticks)-1].Time,
	}

	metrics.ContextBuilds.WithLabelValues("ok").Inc()
	b.log.Debug("Market context built",
		"symbol", symbol,
		"data_points", mc.DataPoints,
		"trend", string(mc.Trend),
	)

	return mc, true, nil
}

// headlines is best effort: a news read failure yields a context without news
func (b *Builder) headlines(ctx context.Context) []analytics.Headline {
	items, err := b.news.GetRecent(ctx, b.cfg.HeadlineLimit)
	if err != nil {
		b.log.Warn("Failed to load recent news", "error", err)
		return []analytics.Headline{}
	}

	out := make([]analytics.Headline, 0, len(items))
	for _, it := range items {
		out = append(out, analytics.Headline{
			Title:       it.Title,
			Source:      it.Source,
			PublishedAt: it.PublishedAt,
		})
	}
	return out
}
