package events

import (
	"context"

	"marketpulse/internal/adapters/kafka"
	"marketpulse/internal/domain/market"
	"marketpulse/internal/domain/news"
	"marketpulse/pkg/errors"
)

// Sender is the transport the publisher writes to; *kafka.Producer satisfies it
type Sender interface {
	Publish(ctx context.Context, topic string, key string, event interface{}) error
}

// TickBatchEvent is emitted after a tick batch is committed
type TickBatchEvent struct {
	BaseEvent
	SampledAt string        `json:"sampled_at"`
	Ticks     []market.Tick `json:"ticks"`
}

// NewsIngestedEvent is emitted for every newly stored news item
type NewsIngestedEvent struct {
	BaseEvent
	Item news.Item `json:"item"`
}

// Publisher publishes ingestion events
type Publisher struct {
	sender Sender
	source string
}

// NewPublisher creates a new event publisher
func NewPublisher(sender Sender, source string) *Publisher {
	return &Publisher{
		sender: sender,
		source: source,
	}
}

// PublishTickBatch publishes a committed tick batch to market.ticks
func (p *Publisher) PublishTickBatch(ctx context.Context, batch market.TickBatch) error {
	event := TickBatchEvent{
		BaseEvent: NewBaseEvent(kafka.TopicMarketTicks, p.source),
		SampledAt: batch.SampledAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Ticks:     batch.Ticks,
	}

	key := batch.SampledAt.UTC().Format("20060102T150405")
	if err := p.sender.Publish(ctx, kafka.TopicMarketTicks, key, event); err != nil {
		return errors.Wrap(err, "publish tick batch")
	}
	return nil
}

// PublishNewsIngested publishes a newly stored news item to news.ingested
func (p *Publisher) PublishNewsIngested(ctx context.Context, item news.Item) error {
	event := NewsIngestedEvent{
		BaseEvent: NewBaseEvent(kafka.TopicNewsIngested, p.source),
		Item:      item,
	}

	if err := p.sender.Publish(ctx, kafka.TopicNewsIngested, item.URL, event); err != nil {
		return errors.Wrap(err, "publish news item")
	}
	return nil
}
