// Package ratelimit provides the interval gate used to pace requests
// against the remote site.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Gate enforces a minimum interval between passes. It replaces the fixed
// sleeps between page and metadata requests with something a test can drive
// through a fake clock.
type Gate struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGate returns a gate with the given minimum interval. A zero or
// negative interval disables pacing.
func NewGate(interval time.Duration) *Gate {
	return &Gate{
		interval: interval,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// NewGateWithClock returns a gate driven by the supplied clock and sleep
// functions. Tests use this to run without wall-clock delay.
func NewGateWithClock(interval time.Duration, now func() time.Time, sleep func(context.Context, time.Duration) error) *Gate {
	return &Gate{interval: interval, now: now, sleep: sleep}
}

// Wait blocks until the interval since the previous pass has elapsed, then
// records the pass. The first call never blocks. Cancelling the context
// aborts the wait.
func (g *Gate) Wait(ctx context.Context) error {
	if g.interval <= 0 {
		return ctx.Err()
	}

	g.mu.Lock()
	now := g.now()
	var wait time.Duration
	if !g.last.IsZero() {
		if elapsed := now.Sub(g.last); elapsed < g.interval {
			wait = g.interval - elapsed
		}
	}
	// Reserve the slot before sleeping so concurrent callers queue up
	// behind each other instead of sharing one interval.
	g.last = now.Add(wait)
	g.mu.Unlock()

	if wait <= 0 {
		return ctx.Err()
	}
	return g.sleep(ctx, wait)
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
