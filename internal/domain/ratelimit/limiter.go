package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether an event for key fits its policy.
// Implementations must be safe for concurrent use.
type Limiter interface {
	Allow(ctx context.Context, key string, p Policy) (Decision, error)
}

// Next computes a GCRA step. tat is the key's theoretical arrival time
// (zero when unseen). It returns the decision and the new tat to store;
// the stored tat is unchanged when the event is rejected.
func Next(now, tat time.Time, p Policy) (Decision, time.Time) {
	interval := p.interval()
	capacity := time.Duration(p.burst()) * interval
	tolerance := capacity - interval

	if tat.Before(now) {
		tat = now
	}
	if earliest := tat.Add(-tolerance); now.Before(earliest) {
		return Decision{RetryAfter: earliest.Sub(now)}, tat
	}

	next := tat.Add(interval)
	remaining := int((capacity - next.Sub(now)) / interval)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: true, Remaining: remaining}, next
}
