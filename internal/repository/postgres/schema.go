package postgres

import (
	"context"

	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS market_ticks (
	time   TIMESTAMPTZ NOT NULL,
	symbol TEXT NOT NULL,
	price  DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_market_ticks_symbol_time ON market_ticks (symbol, time DESC);

CREATE TABLE IF NOT EXISTS financial_news (
	id              SERIAL PRIMARY KEY,
	published_at    TIMESTAMPTZ NOT NULL,
	title           TEXT NOT NULL,
	source          TEXT,
	url             TEXT UNIQUE,
	sentiment_score DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_financial_news_published_at ON financial_news (published_at DESC);
`

// EnsureSchema creates the tick and news tables when missing and turns
// market_ticks into a TimescaleDB hypertable when the extension is loaded.
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return errors.Wrap(err, "failed to create schema")
	}

	var hypertable string
	err := db.GetContext(ctx, &hypertable,
		`SELECT create_hypertable('market_ticks', 'time', if_not_exists => TRUE)::text`)
	if err != nil {
		// Plain Postgres works, only slower on large windows
		logger.Get().Warn("timescaledb hypertable unavailable, using plain table", "error", err)
		return nil
	}

	logger.Get().Debug("market_ticks hypertable ready", "hypertable", hypertable)
	return nil
}
