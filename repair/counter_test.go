package repair

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterSetIncrementAndReset(t *testing.T) {
	c := NewCounterSet(8)

	assert.Equal(t, 1, c.Increment("a", "x.py"))
	assert.Equal(t, 2, c.Increment("a", "x.py"))
	assert.Equal(t, 1, c.Increment("a", "y.py"))
	assert.Equal(t, 1, c.Increment("b", "x.py"))

	c.Reset("a", "x.py")
	assert.Equal(t, 0, c.Count("a", "x.py"))
	assert.Equal(t, 1, c.Count("a", "y.py"))
	assert.Equal(t, 1, c.Increment("a", "x.py"))
}

func TestCounterSetBounded(t *testing.T) {
	c := NewCounterSet(4)

	for i := 0; i < 10; i++ {
		c.Increment("agent", fmt.Sprintf("file%d.py", i))
	}

	assert.Equal(t, 4, c.Len())
	// Oldest pairs were evicted, newest survive.
	assert.Equal(t, 0, c.Count("agent", "file0.py"))
	assert.Equal(t, 1, c.Count("agent", "file9.py"))
}

func TestCounterSetEvictsLeastRecentlyTouched(t *testing.T) {
	c := NewCounterSet(2)

	c.Increment("agent", "a.py")
	c.Increment("agent", "b.py")
	// Touch a.py so b.py becomes the eviction candidate.
	c.Increment("agent", "a.py")
	c.Increment("agent", "c.py")

	assert.Equal(t, 2, c.Count("agent", "a.py"))
	assert.Equal(t, 0, c.Count("agent", "b.py"))
	assert.Equal(t, 1, c.Count("agent", "c.py"))
}
