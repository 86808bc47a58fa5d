package metrics

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

type staticCounter struct {
	n   int64
	err error
}

func (s staticCounter) CountTicks(context.Context) (int64, error) { return s.n, s.err }
func (s staticCounter) CountNews(context.Context) (int64, error)  { return s.n, s.err }

func TestStoreCollector_ReportsCounts(t *testing.T) {
	c := NewStoreCollector(logger.Nop(), staticCounter{n: 42}, staticCounter{n: 7})

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	expected := `
# HELP marketpulse_stored_news Number of rows in financial_news
# TYPE marketpulse_stored_news gauge
marketpulse_stored_news 7
# HELP marketpulse_stored_ticks Number of rows in market_ticks
# TYPE marketpulse_stored_ticks gauge
marketpulse_stored_ticks 42
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected)))
}

func TestStoreCollector_SkipsFailingCounter(t *testing.T) {
	c := NewStoreCollector(logger.Nop(), staticCounter{err: errors.ErrUnavailable}, staticCounter{n: 3})

	assert.Equal(t, 1, testutil.CollectAndCount(c))
}

func TestRecordWorkerSkipped(t *testing.T) {
	before := testutil.ToFloat64(WorkerSkipped.WithLabelValues("metrics_test_worker"))
	RecordWorkerSkipped("metrics_test_worker")
	assert.Equal(t, before+1, testutil.ToFloat64(WorkerSkipped.WithLabelValues("metrics_test_worker")))
}
