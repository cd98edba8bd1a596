package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"neo-alexandria/internal/domain/shared"
)

func TestCache_SetThenGetHitsAndMisses(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	c := NewCache(10, clock, zap.NewNop())

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("resource:1", "value", time.Minute)
	v, ok := c.Get("resource:1")
	assert.True(t, ok)
	assert.Equal(t, "value", v)

	hits, misses, _ := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	c := NewCache(10, clock, zap.NewNop())

	c.Set("key", "value", time.Second)
	clock.Advance(2 * time.Second)

	_, ok := c.Get("key")
	assert.False(t, ok)
}

func TestCache_EvictsLeastRecentlyUsedWhenOverCapacity(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	c := NewCache(2, clock, zap.NewNop())

	c.Set("a", 1, time.Hour)
	c.Set("b", 2, time.Hour)
	c.Get("a") // touch a, making b the LRU victim
	c.Set("c", 3, time.Hour)

	_, aOK := c.Get("a")
	_, bOK := c.Get("b")
	_, cOK := c.Get("c")
	assert.True(t, aOK)
	assert.False(t, bOK, "b should have been evicted as least recently used")
	assert.True(t, cOK)
}

func TestCache_InvalidatePatternMatchesWildcardPrefix(t *testing.T) {
	clock := shared.NewFixedClock(time.Now())
	c := NewCache(10, clock, zap.NewNop())

	c.Set("resource:1:quality", 1, time.Hour)
	c.Set("resource:1:graph", 1, time.Hour)
	c.Set("resource:2:quality", 1, time.Hour)

	removed := c.InvalidatePattern("resource:1:*")
	assert.Equal(t, 2, removed)

	_, ok := c.Get("resource:2:quality")
	assert.True(t, ok)
	_, _, invalidations := c.Stats()
	assert.Equal(t, uint64(2), invalidations)
}

func TestTTLFor_FallsBackToResourceDefault(t *testing.T) {
	assert.Equal(t, DefaultTTLs["embedding"], TTLFor("embedding"))
	assert.Equal(t, DefaultTTLs["resource"], TTLFor("unknown_kind"))
}
