package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"marketpulse/pkg/errors"
)

// Limiter provides rate limiting for outbound requests to one upstream
type Limiter struct {
	limiter *rate.Limiter
	name    string
}

// NewLimiter creates a new rate limiter
// requestsPerMinute: maximum number of requests allowed per minute
func NewLimiter(name string, requestsPerMinute int) *Limiter {
	rps := float64(requestsPerMinute) / 60.0

	// Allow burst of 10% of per-minute limit
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
	}
}

// Wait blocks until the rate limiter allows the request
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "rate limiter %s", l.name)
	}
	return nil
}

// Allow checks if a request is allowed without blocking
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// HostLimiters hands out one limiter per upstream host, created on first use
type HostLimiters struct {
	mu                sync.Mutex
	limiters          map[string]*Limiter
	requestsPerMinute int
}

// NewHostLimiters creates a per-host limiter set; requestsPerMinute <= 0 disables limiting
func NewHostLimiters(requestsPerMinute int) *HostLimiters {
	return &HostLimiters{
		limiters:          make(map[string]*Limiter),
		requestsPerMinute: requestsPerMinute,
	}
}

// Wait waits on the limiter for host
func (h *HostLimiters) Wait(ctx context.Context, host string) error {
	if h == nil || h.requestsPerMinute <= 0 {
		return nil
	}
	return h.get(host).Wait(ctx)
}

func (h *HostLimiters) get(host string) *Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	if l, ok := h.limiters[host]; ok {
		return l
	}

	l := NewLimiter(host, h.requestsPerMinute)
	h.limiters[host] = l
	return l
}
