package market

import (
	"context"
	"time"
)

// Repository is the time-series store contract used by ingestion and analytics
type Repository interface {
	// AppendTicks writes the whole batch atomically; on error nothing is written
	AppendTicks(ctx context.Context, ticks []Tick) error

	// QueryTicks returns ticks for symbol with time > since, newest first, at most limit rows
	QueryTicks(ctx context.Context, symbol string, since time.Time, limit int) ([]Tick, error)
}

// PriceSource produces the current price for an instrument
type PriceSource interface {
	Quote(ctx context.Context, inst Instrument) (float64, error)
}
