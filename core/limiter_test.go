package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateWindowAllowsUnderCeiling(t *testing.T) {
	w := NewRateWindow(3)

	clock := time.Unix(1000, 0)
	w.now = func() time.Time { return clock }
	w.sleep = func(context.Context, time.Duration) error {
		t.Fatal("should not sleep under the ceiling")
		return nil
	}

	for i := 0; i < 3; i++ {
		require.NoError(t, w.Wait(context.Background()))
	}
	assert.Equal(t, 3, w.Pending())
}

func TestRateWindowBlocksAtCeiling(t *testing.T) {
	w := NewRateWindow(2)

	clock := time.Unix(1000, 0)
	var slept []time.Duration
	w.now = func() time.Time { return clock }
	w.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		// Simulate the passage of time so the oldest stamp expires.
		clock = clock.Add(d)
		return nil
	}

	require.NoError(t, w.Wait(context.Background()))
	require.NoError(t, w.Wait(context.Background()))
	require.NoError(t, w.Wait(context.Background()))

	require.Len(t, slept, 1)
	assert.Equal(t, time.Minute, slept[0])
}

func TestRateWindowExpiresOldCalls(t *testing.T) {
	w := NewRateWindow(1)

	clock := time.Unix(1000, 0)
	w.now = func() time.Time { return clock }
	w.sleep = func(context.Context, time.Duration) error {
		t.Fatal("expired stamps should free the slot without sleeping")
		return nil
	}

	require.NoError(t, w.Wait(context.Background()))
	clock = clock.Add(61 * time.Second)
	require.NoError(t, w.Wait(context.Background()))
	assert.Equal(t, 1, w.Pending())
}

func TestRateWindowDisabled(t *testing.T) {
	w := NewRateWindow(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, w.Wait(context.Background()))
	}
	assert.Equal(t, 0, w.Pending())
}

func TestRateWindowHonorsCancellation(t *testing.T) {
	w := NewRateWindow(1)

	clock := time.Unix(1000, 0)
	w.now = func() time.Time { return clock }

	require.NoError(t, w.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.Wait(ctx), context.Canceled)
}
