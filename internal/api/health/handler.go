package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"marketpulse/internal/workers"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc probes one dependency, e.g. a store client's Health method
type CheckFunc func(ctx context.Context) error

// JobReporter exposes scheduler state for health output
type JobReporter interface {
	IsRunning() bool
	Jobs() []string
	Health(name string) (workers.WorkerHealth, bool)
}

// Handler provides health check endpoints
type Handler struct {
	log         *logger.Logger
	checks      map[string]CheckFunc
	jobs        JobReporter
	startTime   time.Time
	serviceName string
	version     string
}

// New creates a new health check handler; add dependencies with Register
func New(log *logger.Logger, serviceName, version string) *Handler {
	return &Handler{
		log:         log,
		checks:      make(map[string]CheckFunc),
		startTime:   time.Now(),
		serviceName: serviceName,
		version:     version,
	}
}

// Register adds a named dependency check. Not safe to call once serving.
func (h *Handler) Register(name string, check CheckFunc) *Handler {
	h.checks[name] = check
	return h
}

// WithJobs attaches the scheduler; readiness then requires it to be running
func (h *Handler) WithJobs(jobs JobReporter) *Handler {
	h.jobs = jobs
	return h
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                     `json:"status"` // healthy, degraded, unhealthy
	Service   string                     `json:"service"`
	Version   string                     `json:"version"`
	Uptime    string                     `json:"uptime"`
	Timestamp string                     `json:"timestamp"`
	Checks    map[string]ComponentHealth `json:"checks"`
	Jobs      map[string]JobHealth       `json:"jobs,omitempty"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time,omitempty"`
	Error        string `json:"error,omitempty"`
}

// JobHealth is the public view of one scheduled job
type JobHealth struct {
	Enabled     bool   `json:"enabled"`
	Running     bool   `json:"running"`
	LastRun     string `json:"last_run,omitempty"`
	LastError   string `json:"last_error,omitempty"`
	RunCount    int64  `json:"run_count"`
	ErrorCount  int64  `json:"error_count"`
	SkipCount   int64  `json:"skip_count"`
	AvgDuration string `json:"avg_duration"`
}

// HandleLiveness returns 200 OK if service is running
func (h *Handler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HandleReadiness fails unless every dependency answers and the scheduler is running
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := h.runChecks(ctx)
	allHealthy := true
	for _, c := range checks {
		if c.Status != StatusHealthy {
			allHealthy = false
		}
	}

	if h.jobs != nil {
		sched := ComponentHealth{Status: StatusHealthy}
		if !h.jobs.IsRunning() {
			sched = ComponentHealth{Status: StatusUnhealthy, Error: errors.ErrSchedulerNotRunning.Error()}
			allHealthy = false
		}
		checks["scheduler"] = sched
	}

	status := h.newStatus(checks)
	statusCode := http.StatusOK
	if !allHealthy {
		status.Status = StatusUnhealthy
		statusCode = http.StatusServiceUnavailable
		h.log.Warn("Readiness check failed", "checks", checks)
	}

	writeJSON(w, statusCode, status)
}

// HandleHealth returns detailed health including per-job statistics.
// Partial dependency failure reports degraded with 200.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	checks := h.runChecks(ctx)
	healthy := 0
	for _, c := range checks {
		if c.Status == StatusHealthy {
			healthy++
		}
	}

	status := h.newStatus(checks)
	status.Jobs = h.jobHealth()

	statusCode := http.StatusOK
	switch {
	case len(checks) > 0 && healthy == 0:
		status.Status = StatusUnhealthy
		statusCode = http.StatusServiceUnavailable
	case healthy < len(checks):
		status.Status = StatusDegraded
	}

	writeJSON(w, statusCode, status)
}

func (h *Handler) newStatus(checks map[string]ComponentHealth) HealthStatus {
	return HealthStatus{
		Status:    StatusHealthy,
		Service:   h.serviceName,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}
}

func (h *Handler) runChecks(ctx context.Context) map[string]ComponentHealth {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]ComponentHealth, len(names))
	for _, name := range names {
		start := time.Now()
		err := h.checks[name](ctx)
		elapsed := time.Since(start)

		if err != nil {
			h.log.Warn("Health check failed", "component", name, "error", err, "elapsed", elapsed.String())
			out[name] = ComponentHealth{
				Status:       StatusUnhealthy,
				ResponseTime: elapsed.String(),
				Error:        err.Error(),
			}
			continue
		}
		out[name] = ComponentHealth{Status: StatusHealthy, ResponseTime: elapsed.String()}
	}
	return out
}

func (h *Handler) jobHealth() map[string]JobHealth {
	if h.jobs == nil {
		return nil
	}

	out := make(map[string]JobHealth)
	for _, name := range h.jobs.Jobs() {
		wh, ok := h.jobs.Health(name)
		if !ok {
			continue
		}
		jh := JobHealth{
			Enabled:     wh.Enabled,
			Running:     wh.IsRunning,
			RunCount:    wh.RunCount,
			ErrorCount:  wh.ErrorCount,
			SkipCount:   wh.SkipCount,
			AvgDuration: wh.AvgDuration.String(),
		}
		if !wh.LastRun.IsZero() {
			jh.LastRun = wh.LastRun.UTC().Format(time.RFC3339)
		}
		if wh.LastError != nil {
			jh.LastError = wh.LastError.Error()
		}
		out[name] = jh
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
