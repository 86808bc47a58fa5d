package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"marketpulse/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Postgres      PostgresConfig
	ClickHouse    ClickHouseConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	AI            AIConfig
	ErrorTracking ErrorTrackingConfig
	Market        MarketConfig
	News          NewsConfig
	Analytics     AnalyticsConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"marketpulse"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type HTTPConfig struct {
	Enabled bool `envconfig:"HTTP_ENABLED" default:"true"`
	Port    int  `envconfig:"HTTP_PORT" default:"8080"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"user"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"password"`
	Database string `envconfig:"POSTGRES_DB" default:"economy_data"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"10"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ClickHouseConfig struct {
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"economy_data"`
}

type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
}

// Enabled reports whether events should be published
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type AIConfig struct {
	DeepSeekKey     string        `envconfig:"DEEPSEEK_API_KEY"`
	DeepSeekBaseURL string        `envconfig:"DEEPSEEK_BASE_URL" default:"https://api.deepseek.com"`
	Model           string        `envconfig:"AI_MODEL" default:"deepseek-chat"`
	Temperature     float64       `envconfig:"AI_TEMPERATURE" default:"0.7"`
	MaxTokens       int           `envconfig:"AI_MAX_TOKENS" default:"1000"`
	Timeout         time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Tick store backends
const (
	TickStorePostgres   = "postgres"
	TickStoreClickHouse = "clickhouse"
)

type MarketConfig struct {
	// Tracked instruments with their baseline reference prices, "SYMBOL:price" pairs
	Instruments InstrumentList `envconfig:"MARKET_INSTRUMENTS" default:"AAPL:185.50,GOOGL:142.30,MSFT:378.90,BTC-USD:42500.00,ETH-USD:2280.50,EURUSD=X:1.0850"`
	TickStore   string         `envconfig:"TICK_STORE" default:"postgres"`
}

type NewsConfig struct {
	FeedURLs          []string      `envconfig:"NEWS_FEED_URLS" default:"https://finance.yahoo.com/news/rssindex"`
	SourceLabel       string        `envconfig:"NEWS_SOURCE_LABEL" default:"Yahoo Finance"`
	MaxItemsPerFeed   int           `envconfig:"NEWS_MAX_ITEMS_PER_FEED" default:"5"`
	FetchTimeout      time.Duration `envconfig:"NEWS_FETCH_TIMEOUT" default:"30s"`
	FetchRetries      int           `envconfig:"NEWS_FETCH_RETRIES" default:"2"`
	RequestsPerMinute int           `envconfig:"NEWS_REQUESTS_PER_MINUTE" default:"30"`
	UserAgent         string        `envconfig:"NEWS_USER_AGENT" default:"marketpulse/1.0"`
	SeenCacheTTL      time.Duration `envconfig:"NEWS_SEEN_CACHE_TTL" default:"72h"`
}

// FeedSource is one configured feed with its optional display label
type FeedSource struct {
	URL   string
	Label string
}

// Sources resolves NEWS_FEED_URLS entries. An entry may carry its own label
// as "Label|URL"; NEWS_SOURCE_LABEL labels an unlabelled entry only when a
// single feed is configured.
func (c NewsConfig) Sources() []FeedSource {
	out := make([]FeedSource, 0, len(c.FeedURLs))
	for _, raw := range c.FeedURLs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		src := FeedSource{URL: raw}
		if idx := strings.Index(raw, "|"); idx >= 0 {
			src.Label = strings.TrimSpace(raw[:idx])
			src.URL = strings.TrimSpace(raw[idx+1:])
		}
		out = append(out, src)
	}

	if len(out) == 1 && out[0].Label == "" {
		out[0].Label = c.SourceLabel
	}
	return out
}

type AnalyticsConfig struct {
	LookbackWindow time.Duration `envconfig:"ANALYTICS_LOOKBACK_WINDOW" default:"24h"`
	MaxRows        int           `envconfig:"ANALYTICS_MAX_ROWS" default:"1000"`
	HeadlineLimit  int           `envconfig:"ANALYTICS_HEADLINE_LIMIT" default:"5"`
}

// WorkerConfig contains intervals and lifecycle settings for the ingestion jobs
type WorkerConfig struct {
	TickIngestInterval time.Duration `envconfig:"WORKER_TICK_INGEST_INTERVAL" default:"60s"`
	TickIngestEnabled  bool          `envconfig:"WORKER_TICK_INGEST_ENABLED" default:"true"`
	NewsIngestInterval time.Duration `envconfig:"WORKER_NEWS_INGEST_INTERVAL" default:"300s"`
	NewsIngestEnabled  bool          `envconfig:"WORKER_NEWS_INGEST_ENABLED" default:"true"`

	// How long Stop waits for in-flight executions before abandoning them
	ShutdownGrace time.Duration `envconfig:"WORKER_SHUTDOWN_GRACE" default:"2m"`
	RunOnStart    bool          `envconfig:"WORKER_RUN_ON_START" default:"true"`
}

// Instrument is a tracked symbol and its baseline reference price
type Instrument struct {
	Symbol    string
	BasePrice float64
}

// InstrumentList decodes "AAPL:185.50,MSFT:378.90" keeping declaration order
type InstrumentList []Instrument

// Decode implements envconfig.Decoder
func (l *InstrumentList) Decode(value string) error {
	var out InstrumentList
	seen := make(map[string]bool)

	for _, pair := range strings.Split(value, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		idx := strings.LastIndex(pair, ":")
		if idx <= 0 || idx == len(pair)-1 {
			return errors.NewValidationError("MARKET_INSTRUMENTS", "expected SYMBOL:price", pair)
		}

		symbol := strings.TrimSpace(pair[:idx])
		price, err := strconv.ParseFloat(strings.TrimSpace(pair[idx+1:]), 64)
		if err != nil {
			return errors.NewValidationError("MARKET_INSTRUMENTS", "invalid price", pair)
		}
		if seen[symbol] {
			return errors.NewValidationError("MARKET_INSTRUMENTS", "duplicate symbol", symbol)
		}
		seen[symbol] = true

		out = append(out, Instrument{Symbol: symbol, BasePrice: price})
	}

	*l = out
	return nil
}

// Symbols returns the tracked symbols in declaration order
func (l InstrumentList) Symbols() []string {
	symbols := make([]string, len(l))
	for i, inst := range l {
		symbols[i] = inst.Symbol
	}
	return symbols
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// Validate checks the settings the ingestion pipeline cannot run without
func (c *Config) Validate() error {
	if c.Workers.TickIngestInterval <= 0 {
		return errors.NewValidationError("WORKER_TICK_INGEST_INTERVAL", "must be greater than 0", c.Workers.TickIngestInterval)
	}
	if c.Workers.NewsIngestInterval <= 0 {
		return errors.NewValidationError("WORKER_NEWS_INGEST_INTERVAL", "must be greater than 0", c.Workers.NewsIngestInterval)
	}
	if len(c.Market.Instruments) == 0 {
		return errors.NewValidationError("MARKET_INSTRUMENTS", "at least one instrument is required", "")
	}
	for _, inst := range c.Market.Instruments {
		if inst.BasePrice <= 0 {
			return errors.NewValidationError("MARKET_INSTRUMENTS", "baseline price must be positive", inst.Symbol)
		}
	}
	if c.Market.TickStore != TickStorePostgres && c.Market.TickStore != TickStoreClickHouse {
		return errors.NewValidationError("TICK_STORE", "must be postgres or clickhouse", c.Market.TickStore)
	}
	if c.Workers.NewsIngestEnabled && len(c.News.FeedURLs) == 0 {
		return errors.NewValidationError("NEWS_FEED_URLS", "at least one feed is required", "")
	}
	if c.News.MaxItemsPerFeed <= 0 {
		return errors.NewValidationError("NEWS_MAX_ITEMS_PER_FEED", "must be greater than 0", c.News.MaxItemsPerFeed)
	}
	if c.Analytics.LookbackWindow <= 0 {
		return errors.NewValidationError("ANALYTICS_LOOKBACK_WINDOW", "must be greater than 0", c.Analytics.LookbackWindow)
	}
	if c.Analytics.MaxRows <= 0 {
		return errors.NewValidationError("ANALYTICS_MAX_ROWS", "must be greater than 0", c.Analytics.MaxRows)
	}
	if c.Analytics.HeadlineLimit < 0 {
		return errors.NewValidationError("ANALYTICS_HEADLINE_LIMIT", "cannot be negative", c.Analytics.HeadlineLimit)
	}

	return nil
}
