// Package locks provides advisory per-path locks used by the file-writing
// tool when a parallel agent group runs. Locking reduces, but does not
// eliminate, the chance of two concurrent agents corrupting the same output
// file; it is a best-effort mitigation, not a correctness guarantee.
package locks

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Manager hands out advisory locks keyed by normalized path.
type Manager struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewManager creates an empty lock manager.
func NewManager() *Manager {
	return &Manager{locks: map[string]chan struct{}{}}
}

// Acquire blocks until the lock for path is held, the wait exceeds timeout,
// or ctx is cancelled. On success it returns a release function which must
// be called exactly once.
func (m *Manager) Acquire(ctx context.Context, path string, timeout time.Duration) (func(), error) {
	m.mu.Lock()
	ch, ok := m.locks[path]
	if !ok {
		ch = make(chan struct{}, 1)
		m.locks[path] = ch
	}
	m.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-timer.C:
		return nil, fmt.Errorf("timed out waiting %s for lock on %s", timeout, path)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryAcquire attempts a non-blocking acquisition.
func (m *Manager) TryAcquire(path string) (func(), bool) {
	m.mu.Lock()
	ch, ok := m.locks[path]
	if !ok {
		ch = make(chan struct{}, 1)
		m.locks[path] = ch
	}
	m.mu.Unlock()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, true
	default:
		return nil, false
	}
}
