package bootstrap

import (
	"os"
	"os/signal"
	"syscall"

	"marketpulse/internal/adapters/feeds"
	"marketpulse/internal/adapters/retry"
	"marketpulse/internal/api"
	"marketpulse/internal/api/health"
	reportapi "marketpulse/internal/api/report"
	"marketpulse/internal/domain/market"
	"marketpulse/internal/domain/news"
	"marketpulse/internal/workers"
	"marketpulse/internal/workers/marketdata"
	newsworker "marketpulse/internal/workers/news"
)

// ========================================
// Phase 6: Background Workers
// ========================================

// MustInitWorkers registers the tick and news ingestion jobs with a new scheduler
func (c *Container) MustInitWorkers() {
	cfg := c.Config

	c.Scheduler = workers.NewScheduler(
		workers.WithShutdownGrace(cfg.Workers.ShutdownGrace),
		workers.WithRunOnStart(cfg.Workers.RunOnStart),
		workers.WithLogger(c.Log.With("component", "scheduler")),
		workers.WithTracker(c.ErrorTracker),
	)

	instruments := make([]market.Instrument, len(cfg.Market.Instruments))
	for i, inst := range cfg.Market.Instruments {
		instruments[i] = market.Instrument{Symbol: inst.Symbol, BasePrice: inst.BasePrice}
	}

	var tickOpts []marketdata.TickIngestorOption
	if c.Adapters.Publisher != nil {
		tickOpts = append(tickOpts, marketdata.WithPublisher(c.Adapters.Publisher))
	}
	ticks := marketdata.NewTickIngestor(
		c.Repos.Ticks,
		marketdata.NewSimulatedPriceSource(nil),
		instruments,
		cfg.Workers.TickIngestInterval,
		cfg.Workers.TickIngestEnabled,
		tickOpts...,
	)

	sources := cfg.News.Sources()
	feedList := make([]news.Feed, len(sources))
	for i, src := range sources {
		feedList[i] = news.Feed{URL: src.URL, Label: src.Label}
	}

	fetchRetry := retry.DefaultConfig()
	fetchRetry.MaxRetries = cfg.News.FetchRetries

	newsOpts := []newsworker.Option{newsworker.WithMaxItemsPerFeed(cfg.News.MaxItemsPerFeed)}
	if c.Repos.Seen != nil {
		newsOpts = append(newsOpts, newsworker.WithSeenCache(c.Repos.Seen))
	}
	if c.Adapters.Publisher != nil {
		newsOpts = append(newsOpts, newsworker.WithPublisher(c.Adapters.Publisher))
	}
	newsJob := newsworker.NewIngestor(
		c.Repos.News,
		feeds.NewFetcher(feeds.Config{
			Timeout:           cfg.News.FetchTimeout,
			UserAgent:         cfg.News.UserAgent,
			RequestsPerMinute: cfg.News.RequestsPerMinute,
			Retry:             fetchRetry,
		}),
		feedList,
		cfg.Workers.NewsIngestInterval,
		cfg.Workers.NewsIngestEnabled,
		newsOpts...,
	)

	for _, w := range []workers.Worker{ticks, newsJob} {
		if err := c.Scheduler.Register(w); err != nil {
			c.Log.Fatalf("failed to register worker %s: %v", w.Name(), err)
		}
	}

	c.Log.Info("✓ Workers registered",
		"tick_interval", cfg.Workers.TickIngestInterval.String(),
		"news_interval", cfg.Workers.NewsIngestInterval.String(),
		"instruments", len(instruments),
		"feeds", len(feedList),
	)
}

// ========================================
// Phase 7: HTTP
// ========================================

// MustInitHTTP builds the ops server: health probes, metrics and the report API
func (c *Container) MustInitHTTP() {
	hh := health.New(c.Log.With("component", "health"), c.Config.App.Name, c.Config.App.Version).
		Register("postgres", c.PG.Health)
	if c.CH != nil {
		hh.Register("clickhouse", c.CH.Health)
	}
	if c.Redis != nil {
		hh.Register("redis", c.Redis.Health)
	}
	if c.Scheduler != nil {
		hh.WithJobs(c.Scheduler)
	}

	c.HTTPServer = api.NewServer(api.ServerConfig{
		Port:        c.Config.HTTP.Port,
		ServiceName: c.Config.App.Name,
		Version:     c.Config.App.Version,
		Reports: reportapi.New(
			c.Services.Reports,
			c.Services.Contexts,
			c.Config.AI.Timeout,
			c.Log.With("component", "report_api"),
		),
	}, hh, c.Log)
}

// ========================================
// Phase 8: Run
// ========================================

// Start launches the scheduler and, when enabled, the HTTP server
func (c *Container) Start() {
	if err := c.Scheduler.Start(c.Context); err != nil {
		c.Log.Fatalf("failed to start scheduler: %v", err)
	}

	if c.Config.HTTP.Enabled {
		go func() {
			if err := c.HTTPServer.Start(); err != nil {
				c.Log.Error("HTTP server stopped with error", "error", err)
			}
		}()
	}

	c.Log.Info("✅ System started", "jobs", c.Scheduler.Jobs())
}

// WaitForShutdown blocks until SIGINT/SIGTERM and runs the ordered shutdown
func (c *Container) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	c.Log.Info("Shutdown signal received", "signal", sig.String())

	c.Lifecycle.Shutdown(c)
	c.Cancel()
}
