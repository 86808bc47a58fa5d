package testsupport

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"marketpulse/internal/adapters/postgres"
)

// PostgresTestHelper manages a connection and a rolled back transaction for integration tests.
type PostgresTestHelper struct {
	client     *postgres.Client
	tx         *sqlx.Tx
	rolledBack bool
}

// NewTestPostgres connects using environment settings and begins a transaction that is always rolled back.
// The test is skipped when the environment is not configured.
func NewTestPostgres(t *testing.T) *PostgresTestHelper {
	t.Helper()

	cfg := LoadPostgresConfig(t)

	client, err := postgres.NewClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to create postgres client: %v", err)
	}

	tx, err := client.DB().BeginTxx(context.Background(), nil)
	if err != nil {
		_ = client.Close()
		t.Fatalf("failed to start transaction: %v", err)
	}

	helper := &PostgresTestHelper{client: client, tx: tx}
	t.Cleanup(func() {
		helper.Rollback()
		_ = client.Close()
	})

	return helper
}

// Tx returns the active transaction for the test.
func (h *PostgresTestHelper) Tx() *sqlx.Tx {
	return h.tx
}

// DB returns the underlying database handle.
func (h *PostgresTestHelper) DB() *sqlx.DB {
	return h.client.DB()
}

// Rollback rolls back the transaction once.
func (h *PostgresTestHelper) Rollback() {
	if h.rolledBack {
		return
	}
	_ = h.tx.Rollback()
	h.rolledBack = true
}

// DeleteTicks registers cleanup of ticks written outside the test transaction
func (h *PostgresTestHelper) DeleteTicks(t *testing.T, symbol string) {
	t.Helper()
	t.Cleanup(func() {
		_, _ = h.client.DB().Exec(`DELETE FROM market_ticks WHERE symbol = $1`, symbol)
	})
}
