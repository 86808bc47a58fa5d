package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/pkg/errors"
)

func TestInstrumentList_Decode(t *testing.T) {
	var list InstrumentList
	require.NoError(t, list.Decode("AAPL:185.50, EURUSD=X:1.0850,BTC-USD:42500"))

	require.Len(t, list, 3)
	assert.Equal(t, []string{"AAPL", "EURUSD=X", "BTC-USD"}, list.Symbols())
	assert.Equal(t, 1.085, list[1].BasePrice)
	assert.Equal(t, 42500.0, list[2].BasePrice)
}

func TestInstrumentList_DecodeRejectsBadPairs(t *testing.T) {
	cases := []string{"AAPL", "AAPL:", ":12", "AAPL:abc", "AAPL:1,AAPL:2"}
	for _, value := range cases {
		var list InstrumentList
		err := list.Decode(value)
		assert.Error(t, err, value)
		assert.True(t, errors.Is(err, errors.ErrInvalidInput), value)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Workers.TickIngestInterval)
	assert.Equal(t, 300*time.Second, cfg.Workers.NewsIngestInterval)
	assert.Equal(t, 24*time.Hour, cfg.Analytics.LookbackWindow)
	assert.Equal(t, 1000, cfg.Analytics.MaxRows)
	assert.Equal(t, 5, cfg.Analytics.HeadlineLimit)
	assert.Equal(t, 5, cfg.News.MaxItemsPerFeed)
	assert.Equal(t, TickStorePostgres, cfg.Market.TickStore)
	assert.Equal(t,
		[]string{"AAPL", "GOOGL", "MSFT", "BTC-USD", "ETH-USD", "EURUSD=X"},
		cfg.Market.Instruments.Symbols(),
	)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Market:    MarketConfig{Instruments: InstrumentList{{Symbol: "AAPL", BasePrice: 185.5}}, TickStore: TickStorePostgres},
			News:      NewsConfig{FeedURLs: []string{"https://example.com/rss"}, MaxItemsPerFeed: 5},
			Analytics: AnalyticsConfig{LookbackWindow: time.Hour, MaxRows: 10, HeadlineLimit: 5},
			Workers:   WorkerConfig{TickIngestInterval: time.Second, NewsIngestInterval: time.Second, NewsIngestEnabled: true},
		}
	}

	require.NoError(t, valid().Validate())

	tests := map[string]func(c *Config){
		"zero tick interval":  func(c *Config) { c.Workers.TickIngestInterval = 0 },
		"zero news interval":  func(c *Config) { c.Workers.NewsIngestInterval = 0 },
		"no instruments":      func(c *Config) { c.Market.Instruments = nil },
		"negative baseline":   func(c *Config) { c.Market.Instruments[0].BasePrice = -1 },
		"zero baseline":       func(c *Config) { c.Market.Instruments[0].BasePrice = 0 },
		"unknown tick store":  func(c *Config) { c.Market.TickStore = "sqlite" },
		"no feeds":            func(c *Config) { c.News.FeedURLs = nil },
		"zero rows cap":       func(c *Config) { c.Analytics.MaxRows = 0 },
		"zero lookback":       func(c *Config) { c.Analytics.LookbackWindow = 0 },
		"zero items per feed": func(c *Config) { c.News.MaxItemsPerFeed = 0 },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), errors.ErrInvalidInput)
		})
	}
}

func TestNewsConfig_Sources(t *testing.T) {
	single := NewsConfig{
		FeedURLs:    []string{"https://finance.yahoo.com/news/rssindex"},
		SourceLabel: "Yahoo Finance",
	}
	assert.Equal(t, []FeedSource{
		{URL: "https://finance.yahoo.com/news/rssindex", Label: "Yahoo Finance"},
	}, single.Sources())

	multi := NewsConfig{
		FeedURLs:    []string{"Reuters|https://example.com/reuters.xml", " https://example.com/other.xml ", ""},
		SourceLabel: "Yahoo Finance",
	}
	assert.Equal(t, []FeedSource{
		{URL: "https://example.com/reuters.xml", Label: "Reuters"},
		{URL: "https://example.com/other.xml"},
	}, multi.Sources())
}
