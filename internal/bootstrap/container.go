package bootstrap

import (
	"context"

	"marketpulse/internal/adapters/ai"
	chclient "marketpulse/internal/adapters/clickhouse"
	"marketpulse/internal/adapters/config"
	"marketpulse/internal/adapters/kafka"
	pgclient "marketpulse/internal/adapters/postgres"
	redisclient "marketpulse/internal/adapters/redis"
	"marketpulse/internal/api"
	"marketpulse/internal/domain/market"
	"marketpulse/internal/domain/news"
	"marketpulse/internal/events"
	"marketpulse/internal/metrics"
	"marketpulse/internal/services/analytics"
	"marketpulse/internal/services/report"
	"marketpulse/internal/workers"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

// TickStore is the tick repository plus the row count used by metrics
type TickStore interface {
	market.Repository
	metrics.TickCounter
}

// NewsStore is the news repository plus the row count used by metrics
type NewsStore interface {
	news.Repository
	metrics.NewsCounter
}

// Container holds all application dependencies and their lifecycle.
// Components are organized in initialization order.
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure; CH and Redis stay nil when not enabled
	PG    *pgclient.Client
	CH    *chclient.Client
	Redis *redisclient.Client

	Repos    *Repositories
	Adapters *Adapters
	Services *Services

	// Ingestion daemon only
	Scheduler  *workers.Scheduler
	HTTPServer *api.Server

	Lifecycle *Lifecycle
	Context   context.Context
	Cancel    context.CancelFunc
}

// Repositories groups the stores
type Repositories struct {
	Ticks TickStore
	News  NewsStore
	Seen  news.SeenCache // nil when Redis is disabled
}

// Adapters groups external clients
type Adapters struct {
	KafkaProducer *kafka.Producer  // nil when no brokers are configured
	Publisher     *events.Publisher // nil when no brokers are configured
	Chat          ai.ChatProvider   // nil when no API key is configured
}

// Services groups the read-side services
type Services struct {
	Contexts *analytics.Builder
	Reports  *report.Service
}

// NewContainer creates an empty container; call the MustInit phases in order
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())
	return &Container{
		Repos:     &Repositories{},
		Adapters:  &Adapters{},
		Services:  &Services{},
		Lifecycle: NewLifecycle(),
		Context:   ctx,
		Cancel:    cancel,
	}
}

// MustInitCore wires everything both entrypoints need: config, logging, stores, services
func (c *Container) MustInitCore() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitAdapters()
	c.MustInitServices()
}

// Close releases infrastructure without the daemon shutdown sequence; used by one-shot tools
func (c *Container) Close() {
	c.Cancel()
	c.Lifecycle.flushErrorTracker(context.Background(), c.ErrorTracker, c.Log)
	_ = logger.Sync()
	c.Lifecycle.closeDatabases(c.PG, c.CH, c.Redis, c.Log)
}
