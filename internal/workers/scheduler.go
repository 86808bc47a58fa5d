package workers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"marketpulse/internal/metrics"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

// DefaultShutdownGrace bounds how long Stop waits for in-flight executions
const DefaultShutdownGrace = 2 * time.Minute

// Option configures a Scheduler
type Option func(*Scheduler)

// WithShutdownGrace sets how long Stop waits before abandoning executions
func WithShutdownGrace(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.grace = d
		}
	}
}

// WithRunOnStart controls whether each job fires immediately on Start
func WithRunOnStart(enabled bool) Option {
	return func(s *Scheduler) {
		s.runOnStart = enabled
	}
}

// WithLogger overrides the scheduler logger
func WithLogger(log *logger.Logger) Option {
	return func(s *Scheduler) {
		s.log = log
	}
}

// WithTracker records a breadcrumb on the error tracker for every execution
func WithTracker(tracker errors.Tracker) Option {
	return func(s *Scheduler) {
		s.tracker = tracker
	}
}

// job is one registered worker plus its single-execution guard and health
type job struct {
	worker  Worker
	running atomic.Bool

	healthMu      sync.RWMutex
	lastRun       time.Time
	lastError     error
	runCount      int64
	errorCount    int64
	skipCount     int64
	totalDuration time.Duration
}

func (j *job) recordRun(duration time.Duration, err error) {
	j.healthMu.Lock()
	defer j.healthMu.Unlock()

	j.lastRun = time.Now()
	j.runCount++
	j.totalDuration += duration
	j.lastError = err
	if err != nil {
		j.errorCount++
	}
}

func (j *job) recordSkip() {
	j.healthMu.Lock()
	defer j.healthMu.Unlock()
	j.skipCount++
}

func (j *job) health() WorkerHealth {
	j.healthMu.RLock()
	defer j.healthMu.RUnlock()

	avgDuration := time.Duration(0)
	if j.runCount > 0 {
		avgDuration = time.Duration(int64(j.totalDuration) / j.runCount)
	}

	return WorkerHealth{
		LastRun:     j.lastRun,
		LastError:   j.lastError,
		RunCount:    j.runCount,
		ErrorCount:  j.errorCount,
		SkipCount:   j.skipCount,
		AvgDuration: avgDuration,
		IsRunning:   j.running.Load(),
		Enabled:     j.worker.Enabled(),
	}
}

// Scheduler runs registered workers on fixed intervals.
// A job never overlaps itself: a firing that arrives while the previous
// execution of the same job is still running is dropped.
type Scheduler struct {
	mu      sync.RWMutex
	jobs    map[string]*job
	order   []string
	started bool

	ctx      context.Context
	cancel   context.CancelFunc
	timers   *sync.WaitGroup
	inflight *sync.WaitGroup

	grace      time.Duration
	runOnStart bool
	log        *logger.Logger
	tracker    errors.Tracker
}

// NewScheduler creates a new worker scheduler
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		jobs:       make(map[string]*job),
		grace:      DefaultShutdownGrace,
		runOnStart: true,
		log:        logger.Get().With("component", "scheduler"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Register adds a worker, replacing any job with the same name.
// Registration is only allowed while the scheduler is idle and no run
// of the replaced job is still executing.
func (s *Scheduler) Register(w Worker) error {
	if w == nil || w.Name() == "" {
		return errors.NewValidationError("worker", "worker with a name is required", nil)
	}
	if w.Interval() <= 0 {
		return errors.NewValidationError("interval", "must be positive", w.Interval())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.Wrapf(errors.ErrSchedulerRunning, "cannot register %s", w.Name())
	}

	if existing, exists := s.jobs[w.Name()]; exists {
		// a run abandoned by Stop still holds the old guard
		if existing.running.Load() {
			return errors.Wrapf(errors.ErrWorkerBusy, "cannot replace %s", w.Name())
		}
		s.log.Info("Worker replaced", "worker", w.Name(), "interval", w.Interval())
	} else {
		s.order = append(s.order, w.Name())
		s.log.Info("Worker registered", "worker", w.Name(), "interval", w.Interval())
	}

	s.jobs[w.Name()] = &job{worker: w}
	return nil
}

// RegisterFunc registers a bare function as an always-enabled worker
func (s *Scheduler) RegisterFunc(name string, interval time.Duration, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.NewValidationError("fn", "function is required", nil)
	}

	return s.Register(&funcWorker{
		BaseWorker: NewBaseWorker(name, interval, true),
		fn:         fn,
	})
}

// Start begins running all enabled workers
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.ErrSchedulerRunning
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.timers = &sync.WaitGroup{}
	s.inflight = &sync.WaitGroup{}
	s.started = true

	enabled := 0
	for _, name := range s.order {
		j := s.jobs[name]
		if !j.worker.Enabled() {
			s.log.Info("Skipping disabled worker", "worker", name)
			continue
		}

		enabled++
		s.timers.Add(1)
		go s.runJob(s.ctx, j, s.timers, s.inflight)
	}

	s.log.Info("Worker scheduler started", "workers", enabled, "registered", len(s.order))
	return nil
}

// Stop cancels the job context, stops all timers and waits for in-flight
// executions up to the shutdown grace. Executions still running after the
// grace are abandoned and ErrTimeout is returned.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.ErrSchedulerNotRunning
	}

	s.cancel()
	s.started = false
	timers, inflight := s.timers, s.inflight
	s.mu.Unlock()

	s.log.Info("Stopping worker scheduler...")

	timers.Wait()

	done := make(chan struct{})
	go func() {
		inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("All workers stopped gracefully")
		return nil
	case <-time.After(s.grace):
		s.log.Warn("Worker shutdown timed out, abandoning running executions",
			"grace", s.grace,
			"running", s.runningJobs(),
		)
		return errors.Wrapf(errors.ErrTimeout, "shutdown grace %s exceeded", s.grace)
	}
}

// Trigger fires one out-of-band execution of the named job.
// It returns false when the job is already executing. Disabled jobs
// are never fired.
func (s *Scheduler) Trigger(name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return false, errors.ErrSchedulerNotRunning
	}

	j, ok := s.jobs[name]
	if !ok {
		return false, errors.Wrapf(errors.ErrNotFound, "worker %s", name)
	}
	if !j.worker.Enabled() {
		return false, errors.Wrapf(errors.ErrWorkerDisabled, "worker %s", name)
	}

	return s.fire(s.ctx, j, "manual", s.inflight), nil
}

// runJob re-arms the job at a fixed interval until the context is cancelled
func (s *Scheduler) runJob(ctx context.Context, j *job, timers, inflight *sync.WaitGroup) {
	defer timers.Done()

	name := j.worker.Name()
	ticker := time.NewTicker(j.worker.Interval())
	defer ticker.Stop()

	if s.runOnStart {
		s.fire(ctx, j, "start", inflight)
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("Worker timer stopped", "worker", name)
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			s.fire(ctx, j, "timer", inflight)
		}
	}
}

// fire starts an execution unless one is already running for the job
func (s *Scheduler) fire(ctx context.Context, j *job, trigger string, inflight *sync.WaitGroup) bool {
	name := j.worker.Name()

	if !j.running.CompareAndSwap(false, true) {
		j.recordSkip()
		metrics.RecordWorkerSkipped(name)
		s.log.Debug("Worker still running, trigger skipped", "worker", name, "trigger", trigger)
		return false
	}

	inflight.Add(1)
	go func() {
		defer inflight.Done()
		defer j.running.Store(false)
		s.execute(ctx, j, trigger)
	}()

	return true
}

// execute runs a single iteration of the worker with error handling
func (s *Scheduler) execute(ctx context.Context, j *job, trigger string) {
	name := j.worker.Name()
	runID := uuid.NewString()
	log := s.log.With("worker", name, "run_id", runID)
	start := time.Now()

	if s.tracker != nil {
		s.tracker.AddBreadcrumb(ctx, "worker run", "scheduler", errors.LevelInfo, map[string]interface{}{
			"worker":  name,
			"run_id":  runID,
			"trigger": trigger,
		})
	}

	var err error
	status := "success"

	func() {
		defer func() {
			if r := recover(); r != nil {
				status = "panic"
				err = errors.Wrapf(errors.ErrInternal, "worker panicked: %v", r)
			}
		}()
		err = j.worker.Run(ctx)
	}()

	duration := time.Since(start)
	if err != nil && status != "panic" {
		status = "error"
	}

	j.recordRun(duration, err)
	metrics.RecordWorkerExecution(name, duration, status)

	if err != nil {
		log.Error("Worker execution failed",
			"error", err,
			"status", status,
			"trigger", trigger,
			"duration", duration,
		)
		return
	}

	log.Debug("Worker execution completed",
		"trigger", trigger,
		"duration", duration,
	)
}

// Jobs returns the registered job names in registration order
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Health returns health information for the named job
func (s *Scheduler) Health(name string) (WorkerHealth, bool) {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return WorkerHealth{}, false
	}
	return j.health(), true
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Scheduler) runningJobs() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var running []string
	for name, j := range s.jobs {
		if j.running.Load() {
			running = append(running, name)
		}
	}
	sort.Strings(running)
	return fmt.Sprint(running)
}
