package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/workers"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

type fakeJobs struct {
	running bool
	health  map[string]workers.WorkerHealth
}

func (f *fakeJobs) IsRunning() bool { return f.running }

func (f *fakeJobs) Jobs() []string {
	out := make([]string, 0, len(f.health))
	for name := range f.health {
		out = append(out, name)
	}
	return out
}

func (f *fakeJobs) Health(name string) (workers.WorkerHealth, bool) {
	h, ok := f.health[name]
	return h, ok
}

func ok(context.Context) error   { return nil }
func down(context.Context) error { return errors.ErrUnavailable }

func decode(t *testing.T, rec *httptest.ResponseRecorder) HealthStatus {
	t.Helper()
	var st HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

func TestLiveness(t *testing.T) {
	h := New(logger.Nop(), "marketpulse", "test")
	rec := httptest.NewRecorder()
	h.HandleLiveness(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name     string
		checks   map[string]CheckFunc
		running  bool
		wantCode int
	}{
		{name: "all healthy", checks: map[string]CheckFunc{"postgres": ok, "redis": ok}, running: true, wantCode: http.StatusOK},
		{name: "dependency down", checks: map[string]CheckFunc{"postgres": ok, "redis": down}, running: true, wantCode: http.StatusServiceUnavailable},
		{name: "scheduler stopped", checks: map[string]CheckFunc{"postgres": ok}, running: false, wantCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(logger.Nop(), "marketpulse", "test").WithJobs(&fakeJobs{running: tt.running})
			for name, c := range tt.checks {
				h.Register(name, c)
			}

			rec := httptest.NewRecorder()
			h.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			st := decode(t, rec)
			assert.Contains(t, st.Checks, "scheduler")
			assert.Len(t, st.Checks, len(tt.checks)+1)
		})
	}
}

func TestHealth_DegradedAndJobs(t *testing.T) {
	lastRun := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	jobs := &fakeJobs{running: true, health: map[string]workers.WorkerHealth{
		"news_ingestion": {
			Enabled:     true,
			LastRun:     lastRun,
			LastError:   errors.ErrFeedUnavailable,
			RunCount:    3,
			ErrorCount:  1,
			SkipCount:   2,
			AvgDuration: 1500 * time.Millisecond,
		},
	}}
	h := New(logger.Nop(), "marketpulse", "test").
		Register("postgres", ok).
		Register("clickhouse", down).
		WithJobs(jobs)

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	st := decode(t, rec)
	assert.Equal(t, StatusDegraded, st.Status)
	assert.Equal(t, StatusUnhealthy, st.Checks["clickhouse"].Status)
	assert.Equal(t, errors.ErrUnavailable.Error(), st.Checks["clickhouse"].Error)

	job := st.Jobs["news_ingestion"]
	assert.Equal(t, int64(2), job.SkipCount)
	assert.Equal(t, "2024-06-03T12:00:00Z", job.LastRun)
	assert.Equal(t, errors.ErrFeedUnavailable.Error(), job.LastError)
	assert.Equal(t, "1.5s", job.AvgDuration)
}

func TestHealth_AllDown(t *testing.T) {
	h := New(logger.Nop(), "marketpulse", "test").Register("postgres", down)

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, StatusUnhealthy, decode(t, rec).Status)
}
