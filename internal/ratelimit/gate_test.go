package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when the gate sleeps, so tests never touch the
// wall clock.
type fakeClock struct {
	now    time.Time
	slept  []time.Duration
	cancel bool
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if c.cancel {
		return context.Canceled
	}
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return nil
}

func TestGateFirstPassIsFree(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	gate := NewGateWithClock(500*time.Millisecond, clock.Now, clock.Sleep)

	require.NoError(t, gate.Wait(context.Background()))
	assert.Empty(t, clock.slept)
}

func TestGateEnforcesInterval(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	gate := NewGateWithClock(500*time.Millisecond, clock.Now, clock.Sleep)

	ctx := context.Background()
	require.NoError(t, gate.Wait(ctx))
	require.NoError(t, gate.Wait(ctx))
	require.NoError(t, gate.Wait(ctx))

	require.Len(t, clock.slept, 2)
	assert.Equal(t, 500*time.Millisecond, clock.slept[0])
	assert.Equal(t, 500*time.Millisecond, clock.slept[1])
}

func TestGateSkipsWaitWhenIntervalAlreadyElapsed(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	gate := NewGateWithClock(500*time.Millisecond, clock.Now, clock.Sleep)

	ctx := context.Background()
	require.NoError(t, gate.Wait(ctx))

	clock.now = clock.now.Add(2 * time.Second)
	require.NoError(t, gate.Wait(ctx))
	assert.Empty(t, clock.slept)
}

func TestGateZeroIntervalNeverBlocks(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	gate := NewGateWithClock(0, clock.Now, clock.Sleep)

	for i := 0; i < 10; i++ {
		require.NoError(t, gate.Wait(context.Background()))
	}
	assert.Empty(t, clock.slept)
}

func TestGatePropagatesCancellation(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0), cancel: true}
	gate := NewGateWithClock(time.Second, clock.Now, clock.Sleep)

	ctx := context.Background()
	require.NoError(t, gate.Wait(ctx))
	assert.ErrorIs(t, gate.Wait(ctx), context.Canceled)
}
