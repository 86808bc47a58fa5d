package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"marketpulse/internal/domain/market"
	"marketpulse/pkg/errors"
)

// Compile-time check
var _ market.Repository = (*TickRepository)(nil)

// TickRepository implements market.Repository on a TimescaleDB hypertable
type TickRepository struct {
	db *sqlx.DB
}

// NewTickRepository creates a new tick repository
func NewTickRepository(db *sqlx.DB) *TickRepository {
	return &TickRepository{db: db}
}

// AppendTicks writes the whole batch in one transaction. Either every tick
// is committed or none is.
func (r *TickRepository) AppendTicks(ctx context.Context, ticks []market.Tick) error {
	if len(ticks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `INSERT INTO market_ticks (time, symbol, price) VALUES ($1, $2, $3)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare tick insert")
	}
	defer stmt.Close()

	for i, tick := range ticks {
		if _, err := stmt.ExecContext(ctx, tick.Time, tick.Symbol, tick.Price); err != nil {
			return errors.Wrapf(err, "failed to insert tick %s at index %d", tick.Symbol, i)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit tick batch")
	}

	return nil
}

// QueryTicks returns ticks for symbol strictly newer than since, newest first
func (r *TickRepository) QueryTicks(ctx context.Context, symbol string, since time.Time, limit int) ([]market.Tick, error) {
	var ticks []market.Tick

	query := `
		SELECT time, symbol, price
		FROM market_ticks
		WHERE symbol = $1 AND time > $2
		ORDER BY time DESC
		LIMIT $3`

	if err := r.db.SelectContext(ctx, &ticks, query, symbol, since, limit); err != nil {
		return nil, errors.Wrapf(err, "failed to query ticks for %s", symbol)
	}

	return ticks, nil
}

// CountTicks returns the total number of stored ticks
func (r *TickRepository) CountTicks(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM market_ticks`); err != nil {
		return 0, errors.Wrap(err, "failed to count ticks")
	}
	return count, nil
}
