package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/domain/analytics"
	"marketpulse/internal/services/report"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

type stubGenerator struct {
	rep      *report.Report
	err      error
	symbol   string
	lookback time.Duration
}

func (g *stubGenerator) GenerateWindow(_ context.Context, symbol string, lookback time.Duration) (*report.Report, error) {
	g.symbol = symbol
	g.lookback = lookback
	return g.rep, g.err
}

type stubContexts struct {
	mc  *analytics.MarketContext
	ok  bool
	err error
}

func (c *stubContexts) Build(context.Context, string, time.Duration) (*analytics.MarketContext, bool, error) {
	return c.mc, c.ok, c.err
}

func serve(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandleReport(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		gen      *stubGenerator
		wantCode int
	}{
		{
			name:     "ok",
			target:   "/api/v1/report?symbol=SPX&hours=6",
			gen:      &stubGenerator{rep: &report.Report{Symbol: "SPX", Status: report.StatusOK, Content: "analysis"}},
			wantCode: http.StatusOK,
		},
		{
			name:     "no data",
			target:   "/api/v1/report?symbol=XYZ",
			gen:      &stubGenerator{rep: &report.Report{Symbol: "XYZ", Status: report.StatusNoData}},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "not configured",
			target:   "/api/v1/report?symbol=SPX",
			gen:      &stubGenerator{rep: &report.Report{Status: report.StatusNotConfigured}},
			wantCode: http.StatusServiceUnavailable,
		},
		{
			name:     "provider failure",
			target:   "/api/v1/report?symbol=SPX",
			gen:      &stubGenerator{err: errors.Wrap(errors.ErrExternal, "chat")},
			wantCode: http.StatusBadGateway,
		},
		{
			name:     "missing symbol",
			target:   "/api/v1/report",
			gen:      &stubGenerator{},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad hours",
			target:   "/api/v1/report?symbol=SPX&hours=-3",
			gen:      &stubGenerator{},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(tt.gen, &stubContexts{}, time.Second, logger.Nop())
			rec := serve(h.HandleReport, tt.target)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestHandleReport_PassesWindow(t *testing.T) {
	gen := &stubGenerator{rep: &report.Report{Symbol: "SPX", Status: report.StatusOK, Content: "analysis"}}
	h := New(gen, &stubContexts{}, time.Second, logger.Nop())

	rec := serve(h.HandleReport, "/api/v1/report?symbol=%20SPX%20&hours=6")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "SPX", gen.symbol)
	assert.Equal(t, 6*time.Hour, gen.lookback)

	var body report.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "analysis", body.Content)
}

func TestHandleContext(t *testing.T) {
	mc := &analytics.MarketContext{Symbol: "SPX", CurrentPrice: 100, DataPoints: 4, Trend: analytics.TrendMildDown}

	h := New(&stubGenerator{}, &stubContexts{mc: mc, ok: true}, time.Second, logger.Nop())
	rec := serve(h.HandleContext, "/api/v1/context?symbol=SPX")
	require.Equal(t, http.StatusOK, rec.Code)

	var got analytics.MarketContext
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, analytics.TrendMildDown, got.Trend)
	assert.Equal(t, 4, got.DataPoints)

	h = New(&stubGenerator{}, &stubContexts{ok: false}, time.Second, logger.Nop())
	assert.Equal(t, http.StatusNotFound, serve(h.HandleContext, "/api/v1/context?symbol=SPX").Code)

	h = New(&stubGenerator{}, &stubContexts{err: errors.ErrUnavailable}, time.Second, logger.Nop())
	assert.Equal(t, http.StatusInternalServerError, serve(h.HandleContext, "/api/v1/context?symbol=SPX").Code)
}

func TestHandlersRejectNonGet(t *testing.T) {
	gen := &stubGenerator{}
	h := New(gen, &stubContexts{ok: true}, time.Second, logger.Nop())

	for _, fn := range []http.HandlerFunc{h.HandleReport, h.HandleContext} {
		rec := httptest.NewRecorder()
		fn(rec, httptest.NewRequest(http.MethodPost, "/api/v1/report?symbol=SPX", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))
	}
	assert.Empty(t, gen.symbol)
}
