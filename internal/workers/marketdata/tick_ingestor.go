package marketdata

import (
	"context"
	"time"

	"marketpulse/internal/adapters/kafka"
	"marketpulse/internal/domain/market"
	"marketpulse/internal/metrics"
	"marketpulse/internal/workers"
	"marketpulse/pkg/errors"
)

// WorkerName is the scheduler identity of the tick ingestor
const WorkerName = "market_data_ingestion"

// TickPublisher receives committed tick batches
type TickPublisher interface {
	PublishTickBatch(ctx context.Context, batch market.TickBatch) error
}

// TickIngestor samples one price per instrument and stores the batch atomically
type TickIngestor struct {
	*workers.BaseWorker
	repo        market.Repository
	source      market.PriceSource
	publisher   TickPublisher
	instruments []market.Instrument
	now         func() time.Time
}

// TickIngestorOption configures a TickIngestor
type TickIngestorOption func(*TickIngestor)

// WithPublisher publishes each committed batch
func WithPublisher(p TickPublisher) TickIngestorOption {
	return func(ti *TickIngestor) {
		ti.publisher = p
	}
}

// WithClock overrides the sampling clock
func WithClock(now func() time.Time) TickIngestorOption {
	return func(ti *TickIngestor) {
		ti.now = now
	}
}

// NewTickIngestor creates a new tick ingestion worker
func NewTickIngestor(
	repo market.Repository,
	source market.PriceSource,
	instruments []market.Instrument,
	interval time.Duration,
	enabled bool,
	opts ...TickIngestorOption,
) *TickIngestor {
	ti := &TickIngestor{
		BaseWorker:  workers.NewBaseWorker(WorkerName, interval, enabled),
		repo:        repo,
		source:      source,
		instruments: instruments,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(ti)
	}

	return ti
}

// Run executes one ingestion pass
func (ti *TickIngestor) Run(ctx context.Context) error {
	batch, err := ti.Collect(ctx)
	if err != nil {
		return err
	}

	if len(batch.Ticks) == 0 {
		ti.Log().Warn("No quotes collected, nothing to store", "instruments", len(ti.instruments))
		return nil
	}

	if err := ti.repo.AppendTicks(ctx, batch.Ticks); err != nil {
		metrics.TickBatchFailures.Inc()
		ti.Log().Warn("Tick batch dropped",
			"ticks", len(batch.Ticks),
			"sampled_at", batch.SampledAt,
			"error", err,
		)
		return errors.Wrapf(errors.ErrStoreWrite, "append %d ticks: %v", len(batch.Ticks), err)
	}

	for _, tick := range batch.Ticks {
		metrics.TicksIngested.WithLabelValues(tick.Symbol).Inc()
	}

	ti.Log().Info("Market ticks stored",
		"ticks", len(batch.Ticks),
		"instruments", len(ti.instruments),
		"sampled_at", batch.SampledAt,
	)

	ti.publish(ctx, batch)
	return nil
}

// Collect quotes every instrument at a single UTC instant.
// Per-symbol failures are logged and left out of the batch.
func (ti *TickIngestor) Collect(ctx context.Context) (market.TickBatch, error) {
	sampledAt := ti.now().UTC()
	batch := market.TickBatch{
		SampledAt: sampledAt,
		Ticks:     make([]market.Tick, 0, len(ti.instruments)),
	}

	for _, inst := range ti.instruments {
		// Check for context cancellation (graceful shutdown)
		select {
		case <-ctx.Done():
			ti.Log().Info("Tick collection interrupted by shutdown",
				"collected", len(batch.Ticks),
				"instruments", len(ti.instruments),
			)
			return market.TickBatch{}, ctx.Err()
		default:
		}

		price, err := ti.source.Quote(ctx, inst)
		if err != nil {
			metrics.QuoteFailures.WithLabelValues(inst.Symbol).Inc()
			ti.Log().Warn("Failed to quote instrument",
				"symbol", inst.Symbol,
				"error", err,
			)
			continue
		}

		batch.Ticks = append(batch.Ticks, market.Tick{
			Time:   sampledAt,
			Symbol: inst.Symbol,
			Price:  price,
		})
	}

	return batch, nil
}

func (ti *TickIngestor) publish(ctx context.Context, batch market.TickBatch) {
	if ti.publisher == nil {
		return
	}

	err := ti.publisher.PublishTickBatch(ctx, batch)
	metrics.RecordKafkaPublish(kafka.TopicMarketTicks, err)
	if err != nil {
		ti.Log().Warn("Failed to publish tick batch", "error", err)
	}
}
