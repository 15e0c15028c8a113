package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mylifeisrpg/keygate/internal/domain/ratelimit"
)

// RateLimiter implements ratelimit.Limiter with an in-memory GCRA table.
// A background sweep drops keys idle for longer than maxIdle.
type RateLimiter struct {
	mu    sync.Mutex
	cells map[string]time.Time

	sweepEvery time.Duration
	maxIdle    time.Duration
	now        func() time.Time

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewRateLimiter creates a limiter that sweeps every 5 minutes and forgets
// keys idle for an hour.
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithSweep(5*time.Minute, time.Hour)
}

// NewRateLimiterWithSweep creates a limiter with custom sweep settings.
func NewRateLimiterWithSweep(sweepEvery, maxIdle time.Duration) *RateLimiter {
	return &RateLimiter{
		cells:      make(map[string]time.Time),
		sweepEvery: sweepEvery,
		maxIdle:    maxIdle,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
}

// Allow records an event for key if the policy permits it.
func (r *RateLimiter) Allow(_ context.Context, key string, p ratelimit.Policy) (ratelimit.Decision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, tat := ratelimit.Next(r.now(), r.cells[key], p)
	if d.Allowed {
		r.cells[key] = tat
	}
	return d, nil
}

// Start runs the sweep loop until ctx is done or Stop is called.
func (r *RateLimiter) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t := time.NewTicker(r.sweepEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-t.C:
				r.sweep()
			}
		}
	}()
}

func (r *RateLimiter) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.maxIdle)
	removed := 0
	for key, tat := range r.cells {
		if tat.Before(cutoff) {
			delete(r.cells, key)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("rate limiter sweep", "removed", removed, "remaining", len(r.cells))
	}
}

// Stop ends the sweep loop and waits for it. Safe to call more than once.
func (r *RateLimiter) Stop() {
	r.once.Do(func() { close(r.stop) })
	r.wg.Wait()
}

// Size returns the number of tracked keys.
func (r *RateLimiter) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cells)
}

// Compile-time interface verification.
var _ ratelimit.Limiter = (*RateLimiter)(nil)
