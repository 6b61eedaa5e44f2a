package repair

import (
	"container/list"
	"sync"
)

// CounterSet tracks consecutive content-synthesis events per (agent, path)
// pair. It is bounded: when more than cap pairs are tracked, the least
// recently touched pair is pruned. Counters belong to the engine instance
// that owns the repairer, so separate runs never share state.
type CounterSet struct {
	mu      sync.Mutex
	cap     int
	entries map[counterKey]*list.Element
	order   *list.List // front = most recently touched
}

type counterKey struct {
	agent string
	path  string
}

type counterEntry struct {
	key   counterKey
	count int
}

// NewCounterSet creates a counter set bounded at cap pairs. cap <= 0
// defaults to 256.
func NewCounterSet(cap int) *CounterSet {
	if cap <= 0 {
		cap = 256
	}
	return &CounterSet{
		cap:     cap,
		entries: map[counterKey]*list.Element{},
		order:   list.New(),
	}
}

// Increment bumps the consecutive-synthesis counter for (agent, path) and
// returns the new value.
func (c *CounterSet) Increment(agent, path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := counterKey{agent: agent, path: path}
	if el, ok := c.entries[key]; ok {
		entry := el.Value.(*counterEntry)
		entry.count++
		c.order.MoveToFront(el)
		return entry.count
	}

	el := c.order.PushFront(&counterEntry{key: key, count: 1})
	c.entries[key] = el
	c.prune()
	return 1
}

// Reset clears the counter for (agent, path); called whenever usable content
// was supplied, so only consecutive synthesis events accumulate.
func (c *CounterSet) Reset(agent, path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := counterKey{agent: agent, path: path}
	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
}

// Count returns the current counter for (agent, path).
func (c *CounterSet) Count(agent, path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[counterKey{agent: agent, path: path}]; ok {
		return el.Value.(*counterEntry).count
	}
	return 0
}

// Len returns the number of tracked pairs.
func (c *CounterSet) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// prune evicts least-recently-touched pairs past capacity. Callers hold the
// lock.
func (c *CounterSet) prune() {
	for len(c.entries) > c.cap {
		back := c.order.Back()
		if back == nil {
			return
		}
		entry := back.Value.(*counterEntry)
		c.order.Remove(back)
		delete(c.entries, entry.key)
	}
}
