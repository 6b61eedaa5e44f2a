package core

import (
	"context"
	"sync"
	"time"
)

// RateWindow enforces a calls-per-minute ceiling with a rolling window of
// call timestamps. Wait blocks until issuing another call would not exceed
// the ceiling; calls are delayed, never dropped. This runs before a request
// is sent, independent of any rate-limit error the provider may return.
type RateWindow struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	stamps []time.Time
	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
}

// NewRateWindow creates a limiter allowing max calls per rolling minute.
// max <= 0 disables limiting.
func NewRateWindow(max int) *RateWindow {
	return &RateWindow{
		max:    max,
		window: time.Minute,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Wait blocks until a call slot is available, then records the call.
func (r *RateWindow) Wait(ctx context.Context) error {
	if r.max <= 0 {
		return nil
	}

	for {
		r.mu.Lock()
		now := r.now()
		r.prune(now)
		if len(r.stamps) < r.max {
			r.stamps = append(r.stamps, now)
			r.mu.Unlock()
			return nil
		}
		wait := r.window - now.Sub(r.stamps[0])
		r.mu.Unlock()

		if wait <= 0 {
			wait = time.Millisecond
		}
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Pending returns how many calls are currently inside the window.
func (r *RateWindow) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune(r.now())
	return len(r.stamps)
}

// prune drops timestamps older than the window. Callers hold the lock.
func (r *RateWindow) prune(now time.Time) {
	cutoff := now.Add(-r.window)
	i := 0
	for i < len(r.stamps) && !r.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		r.stamps = append(r.stamps[:0], r.stamps[i:]...)
	}
}
