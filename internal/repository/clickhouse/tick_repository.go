package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"marketpulse/internal/domain/market"
	"marketpulse/pkg/errors"
)

// Compile-time check
var _ market.Repository = (*TickRepository)(nil)

const tickTableDDL = `
CREATE TABLE IF NOT EXISTS market_ticks (
	time   DateTime64(3, 'UTC'),
	symbol LowCardinality(String),
	price  Float64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(time)
ORDER BY (symbol, time)`

// TickRepository implements market.Repository using ClickHouse
type TickRepository struct {
	conn driver.Conn
}

// NewTickRepository creates a new ClickHouse tick repository
func NewTickRepository(conn driver.Conn) *TickRepository {
	return &TickRepository{conn: conn}
}

// EnsureSchema creates the market_ticks table when missing
func (r *TickRepository) EnsureSchema(ctx context.Context) error {
	if err := r.conn.Exec(ctx, tickTableDDL); err != nil {
		return errors.Wrap(err, "failed to create clickhouse market_ticks")
	}
	return nil
}

// AppendTicks sends the batch as a single insert block
func (r *TickRepository) AppendTicks(ctx context.Context, ticks []market.Tick) error {
	if len(ticks) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO market_ticks (time, symbol, price)")
	if err != nil {
		return errors.Wrap(err, "failed to prepare tick batch")
	}

	for i := range ticks {
		if err := batch.AppendStruct(&ticks[i]); err != nil {
			_ = batch.Abort()
			return errors.Wrapf(err, "failed to append tick %s", ticks[i].Symbol)
		}
	}

	if err := batch.Send(); err != nil {
		return errors.Wrap(err, "failed to send tick batch")
	}

	return nil
}

// QueryTicks returns ticks for symbol strictly newer than since, newest first
func (r *TickRepository) QueryTicks(ctx context.Context, symbol string, since time.Time, limit int) ([]market.Tick, error) {
	var ticks []market.Tick

	query := `
		SELECT time, symbol, price
		FROM market_ticks
		WHERE symbol = ? AND time > ?
		ORDER BY time DESC
		LIMIT ?`

	if err := r.conn.Select(ctx, &ticks, query, symbol, since.UTC(), limit); err != nil {
		return nil, errors.Wrapf(err, "failed to query ticks for %s", symbol)
	}

	return ticks, nil
}

// CountTicks returns the total number of stored ticks
func (r *TickRepository) CountTicks(ctx context.Context) (int64, error) {
	var count uint64
	if err := r.conn.QueryRow(ctx, "SELECT count() FROM market_ticks").Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count ticks")
	}
	return int64(count), nil
}
