package bootstrap

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"marketpulse/internal/adapters/ai"
	chclient "marketpulse/internal/adapters/clickhouse"
	"marketpulse/internal/adapters/config"
	errnoop "marketpulse/internal/adapters/errors/noop"
	"marketpulse/internal/adapters/errors/sentry"
	"marketpulse/internal/adapters/kafka"
	pgclient "marketpulse/internal/adapters/postgres"
	redisclient "marketpulse/internal/adapters/redis"
	"marketpulse/internal/events"
	"marketpulse/internal/metrics"
	chrepo "marketpulse/internal/repository/clickhouse"
	pgrepo "marketpulse/internal/repository/postgres"
	redisrepo "marketpulse/internal/repository/redis"
	"marketpulse/internal/services/analytics"
	"marketpulse/internal/services/report"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)

	metrics.Init()
}

// provideErrorTracker returns Sentry when configured, otherwise a no-op tracker
func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects Postgres, and ClickHouse and Redis when enabled.
// Schemas are created idempotently.
func (c *Container) MustInitInfrastructure() {
	var err error

	c.Log.Info("Connecting to PostgreSQL...")
	c.PG, err = pgclient.NewClient(c.Context, c.Config.Postgres)
	if err != nil {
		c.Log.Fatalf("failed to connect postgres: %v", err)
	}
	if err := pgrepo.EnsureSchema(c.Context, c.PG.DB()); err != nil {
		c.Log.Fatalf("failed to prepare postgres schema: %v", err)
	}
	c.Log.Info("✓ PostgreSQL connected")

	if c.Config.Market.TickStore == config.TickStoreClickHouse {
		c.Log.Info("Connecting to ClickHouse...")
		c.CH, err = chclient.NewClient(c.Context, c.Config.ClickHouse)
		if err != nil {
			c.Log.Fatalf("failed to connect clickhouse: %v", err)
		}
		c.Log.Info("✓ ClickHouse connected")
	}

	if c.Config.Redis.Enabled {
		c.Log.Info("Connecting to Redis...")
		c.Redis, err = redisclient.NewClient(c.Context, c.Config.Redis)
		if err != nil {
			c.Log.Fatalf("failed to connect redis: %v", err)
		}
		c.Log.Info("✓ Redis connected")
	}
}

// ========================================
// Phase 3: Repositories
// ========================================

// MustInitRepositories selects the tick store backend and builds the news store
func (c *Container) MustInitRepositories() {
	if c.CH != nil {
		ticks := chrepo.NewTickRepository(c.CH.Conn())
		if err := ticks.EnsureSchema(c.Context); err != nil {
			c.Log.Fatalf("failed to prepare clickhouse schema: %v", err)
		}
		c.Repos.Ticks = ticks
	} else {
		c.Repos.Ticks = pgrepo.NewTickRepository(c.PG.DB())
	}
	c.Repos.News = pgrepo.NewNewsRepository(c.PG.DB())

	if c.Redis != nil {
		c.Repos.Seen = redisrepo.NewSeenURLCache(c.Redis.Client(), c.Config.News.SeenCacheTTL)
	}

	if err := prometheus.Register(metrics.NewStoreCollector(c.Log, c.Repos.Ticks, c.Repos.News)); err != nil {
		c.Log.Warn("Store collector not registered", "error", err)
	}

	c.Log.Info("✓ Repositories initialized", "tick_store", c.Config.Market.TickStore)
}

// ========================================
// Phase 4: External Adapters
// ========================================

// MustInitAdapters builds the Kafka publisher and the chat provider when configured
func (c *Container) MustInitAdapters() {
	if c.Config.Kafka.Enabled() {
		c.Adapters.KafkaProducer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      c.Config.Kafka.Brokers,
			WriteTimeout: 10 * time.Second,
		})
		c.Adapters.Publisher = events.NewPublisher(c.Adapters.KafkaProducer, c.Config.App.Name)
		c.Log.Info("✓ Kafka publisher initialized", "brokers", c.Config.Kafka.Brokers)
	}

	chat, err := ai.NewDeepSeekProvider(ai.DeepSeekConfig{
		APIKey:     c.Config.AI.DeepSeekKey,
		BaseURL:    c.Config.AI.DeepSeekBaseURL,
		Timeout:    c.Config.AI.Timeout,
		MaxRetries: 2,
	})
	switch {
	case errors.Is(err, errors.ErrNotConfigured):
		c.Log.Info("AI provider not configured, reports disabled")
	case err != nil:
		c.Log.Fatalf("failed to init AI provider: %v", err)
	default:
		c.Adapters.Chat = chat
		c.Log.Info("✓ AI provider initialized", "provider", chat.Name())
	}
}

// ========================================
// Phase 5: Services
// ========================================

// MustInitServices builds the context builder and the report service
func (c *Container) MustInitServices() {
	c.Services.Contexts = analytics.NewBuilder(c.Repos.Ticks, c.Repos.News, analytics.Config{
		Lookback:      c.Config.Analytics.LookbackWindow,
		MaxRows:       c.Config.Analytics.MaxRows,
		HeadlineLimit: c.Config.Analytics.HeadlineLimit,
	})

	c.Services.Reports = report.NewService(c.Services.Contexts, c.Adapters.Chat, report.Config{
		Model:       c.Config.AI.Model,
		Temperature: c.Config.AI.Temperature,
		MaxTokens:   c.Config.AI.MaxTokens,
	})
}
