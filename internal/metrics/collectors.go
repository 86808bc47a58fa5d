package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"marketpulse/pkg/logger"
)

// TickCounter reports the number of stored ticks
type TickCounter interface {
	CountTicks(ctx context.Context) (int64, error)
}

// NewsCounter reports the number of stored news items
type NewsCounter interface {
	CountNews(ctx context.Context) (int64, error)
}

// StoreCollector reports table sizes at scrape time
type StoreCollector struct {
	log   *logger.Logger
	ticks TickCounter
	news  NewsCounter

	totalTicks *prometheus.Desc
	totalNews  *prometheus.Desc
}

// NewStoreCollector creates a new store collector
func NewStoreCollector(log *logger.Logger, ticks TickCounter, news NewsCounter) *StoreCollector {
	return &StoreCollector{
		log:   log,
		ticks: ticks,
		news:  news,

		totalTicks: prometheus.NewDesc(
			"marketpulse_stored_ticks",
			"Number of rows in market_ticks",
			nil, nil,
		),
		totalNews: prometheus.NewDesc(
			"marketpulse_stored_news",
			"Number of rows in financial_news",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalTicks
	ch <- c.totalNews
}

// Collect implements prometheus.Collector
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if c.ticks != nil {
		count, err := c.ticks.CountTicks(ctx)
		if err != nil {
			c.log.Warn("Failed to collect tick count metric", "error", err)
		} else {
			ch <- prometheus.MustNewConstMetric(c.totalTicks, prometheus.GaugeValue, float64(count))
		}
	}

	if c.news != nil {
		count, err := c.news.CountNews(ctx)
		if err != nil {
			c.log.Warn("Failed to collect news count metric", "error", err)
		} else {
			ch <- prometheus.MustNewConstMetric(c.totalNews, prometheus.GaugeValue, float64(count))
		}
	}
}
