package retry

import (
	"context"
	"math"
	"net"
	"net/http"
	"time"

	"marketpulse/pkg/errors"
)

// Strategy defines the backoff curve
type Strategy string

const (
	StrategyExponential Strategy = "exponential"
	StrategyLinear      Strategy = "linear"
	StrategyFixed       Strategy = "fixed"
)

// Config contains retry configuration. MaxRetries counts attempts after the first.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Strategy     Strategy
	Multiplier   float64 // exponential only
}

// DefaultConfig returns the settings used for outbound HTTP sources
func DefaultConfig() Config {
	return Config{
		MaxRetries:   2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Strategy:     StrategyExponential,
		Multiplier:   2.0,
	}
}

// StatusCoder is implemented by errors carrying an HTTP status
type StatusCoder interface {
	StatusCode() int
}

// Policy runs functions with backoff between retryable failures
type Policy struct {
	config Config
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a retry policy. A negative MaxRetries disables retries.
func New(config Config) *Policy {
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 5 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.Strategy == "" {
		config.Strategy = StrategyExponential
	}

	return &Policy{config: config, sleep: sleepCtx}
}

// Do executes fn until it succeeds, fails permanently, or retries run out
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Do is the value-returning form of Policy.Do
func Do[T any](ctx context.Context, p *Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !Retryable(err) || attempt == p.config.MaxRetries {
			break
		}

		if err := p.sleep(ctx, p.delay(attempt)); err != nil {
			return zero, errors.Wrap(err, "retry cancelled")
		}
	}

	if p.config.MaxRetries == 0 || !Retryable(lastErr) {
		return zero, lastErr
	}
	return zero, errors.Wrapf(lastErr, "max retries (%d) exceeded", p.config.MaxRetries)
}

func (p *Policy) delay(attempt int) time.Duration {
	var d time.Duration

	switch p.config.Strategy {
	case StrategyLinear:
		d = p.config.InitialDelay * time.Duration(1+attempt)
	case StrategyFixed:
		d = p.config.InitialDelay
	default:
		d = time.Duration(float64(p.config.InitialDelay) * math.Pow(p.config.Multiplier, float64(attempt)))
	}

	if d > p.config.MaxDelay {
		d = p.config.MaxDelay
	}
	return d
}

// Retryable reports whether err is a transient failure worth another attempt
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var coder StatusCoder
	if errors.As(err, &coder) {
		code := coder.StatusCode()
		return code == http.StatusTooManyRequests ||
			code == http.StatusRequestTimeout ||
			code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
