package testsupport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"marketpulse/internal/adapters/clickhouse"
)

// NewTestClickHouse connects to ClickHouse for integration tests
func NewTestClickHouse(t *testing.T) driver.Conn {
	t.Helper()

	cfg := LoadClickHouseConfig(t)

	client, err := clickhouse.NewClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to connect to clickhouse: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return client.Conn()
}

// RegisterTableCleanup schedules deletion of matching rows after the test completes
func RegisterTableCleanup(t *testing.T, conn driver.Conn, table, condition string) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = conn.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", table, condition))
	})
}
