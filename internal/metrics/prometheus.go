package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error|panic
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketpulse_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "marketpulse_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	WorkerSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_worker_skipped_total",
			Help: "Triggers dropped because the previous execution was still running",
		},
		[]string{"worker"},
	)

	// Ingestion metrics
	TicksIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_ticks_ingested_total",
			Help: "Ticks committed to the store",
		},
		[]string{"symbol"},
	)

	QuoteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_quote_failures_total",
			Help: "Per-symbol quote failures",
		},
		[]string{"symbol"},
	)

	TickBatchFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketpulse_tick_batch_failures_total",
			Help: "Tick batches dropped because the store write failed",
		},
	)

	NewsItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_news_items_total",
			Help: "News entries processed by outcome",
		},
		[]string{"source", "result"}, // result: inserted|duplicate|cached|failed|skipped
	)

	FeedFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_feed_failures_total",
			Help: "Feed fetch failures",
		},
		[]string{"feed"},
	)

	// Analytics metrics
	ContextBuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_context_builds_total",
			Help: "Market context builds by result",
		},
		[]string{"result"}, // result: ok|no_data|error
	)

	Reports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_reports_total",
			Help: "Generated reports by status",
		},
		[]string{"status"},
	)

	ReportLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marketpulse_report_latency_seconds",
			Help:    "Report generation latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_kafka_messages_total",
			Help: "Events published to Kafka",
		},
		[]string{"topic", "status"},
	)
)

var initOnce sync.Once

// Init registers all metrics with Prometheus
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			WorkerExecutions,
			WorkerDuration,
			WorkerLastRun,
			WorkerSkipped,
			TicksIngested,
			QuoteFailures,
			TickBatchFailures,
			NewsItems,
			FeedFailures,
			ContextBuilds,
			Reports,
			ReportLatency,
			KafkaMessages,
		)
	})
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, status string) {
	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordWorkerSkipped records a trigger dropped by the overlap guard
func RecordWorkerSkipped(worker string) {
	WorkerSkipped.WithLabelValues(worker).Inc()
}

// RecordKafkaPublish records an event publish attempt
func RecordKafkaPublish(topic string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	KafkaMessages.WithLabelValues(topic, status).Inc()
}
