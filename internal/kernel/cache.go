// Package kernel implements the shared kernel described in spec §4.1: the
// cache, event bus, and task queue client that every domain module is
// constructed with instead of reaching for a hidden singleton.
package kernel

import (
	"container/list"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"neo-alexandria/internal/domain/shared"
)

// Default TTLs per spec §4.13.
var DefaultTTLs = map[string]time.Duration{
	"embedding":           3600 * time.Second,
	"quality":             1800 * time.Second,
	"search_query":        300 * time.Second,
	"resource":            600 * time.Second,
	"graph:*:neighbors":   1800 * time.Second,
	"user:*:profile":      600 * time.Second,
	"classification":      3600 * time.Second,
}

// Cache is a keyed TTL cache with pattern-based invalidation, best-effort
// on invalidation. Get and Set both take the exclusive lock (Get moves the
// entry to the LRU front), so reads are not lock-free. Eviction is
// LRU-bounded, adapted from the teacher's in-memory cache
// (internal/infrastructure/cache/memory_cache.go).
type Cache struct {
	mu       sync.RWMutex
	items    map[string]*cacheItem
	lru      *list.List
	maxItems int
	clock    shared.Clock
	logger   *zap.Logger

	hits         uint64
	misses       uint64
	invalidations uint64
}

type cacheItem struct {
	key     string
	value   any
	expires time.Time
	elem    *list.Element
}

func NewCache(maxItems int, clock shared.Clock, logger *zap.Logger) *Cache {
	if maxItems <= 0 {
		maxItems = 100_000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		items:    make(map[string]*cacheItem),
		lru:      list.New(),
		maxItems: maxItems,
		clock:    clock,
		logger:   logger,
	}
}

// Get returns the cached value for key, reporting a miss if absent or
// expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok || c.clock.Now().After(item.expires) {
		c.misses++
		if ok {
			c.removeLocked(item)
		}
		return nil, false
	}
	c.hits++
	c.lru.MoveToFront(item.elem)
	return item.value, true
}

// Set stores value under key with the given TTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.items[key]; ok {
		existing.value = value
		existing.expires = c.clock.Now().Add(ttl)
		c.lru.MoveToFront(existing.elem)
		return
	}

	elem := c.lru.PushFront(key)
	c.items[key] = &cacheItem{key: key, value: value, expires: c.clock.Now().Add(ttl), elem: elem}

	for len(c.items) > c.maxItems {
		back := c.lru.Back()
		if back == nil {
			break
		}
		c.removeLocked(c.items[back.Value.(string)])
	}
}

// Delete removes a single key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if item, ok := c.items[key]; ok {
		c.removeLocked(item)
	}
}

// InvalidatePattern deletes every key matching a `kind:*` / `kind:id:*`
// style glob pattern, per spec §4.13's invalidation rules (e.g.
// `resource:{id}:*`, `search_query:*`).
func (c *Cache) InvalidatePattern(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := strings.TrimSuffix(pattern, "*")
	wildcard := strings.HasSuffix(pattern, "*")
	removed := 0
	for key, item := range c.items {
		match := key == pattern
		if wildcard {
			match = strings.HasPrefix(key, prefix)
		}
		if match {
			c.removeLocked(item)
			removed++
		}
	}
	c.invalidations += uint64(removed)
	return removed
}

func (c *Cache) removeLocked(item *cacheItem) {
	delete(c.items, item.key)
	c.lru.Remove(item.elem)
}

// Stats returns hit/miss/invalidation counters for the monitoring endpoint.
func (c *Cache) Stats() (hits, misses, invalidations uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses, c.invalidations
}

// TTLFor returns DefaultTTLs[kind] when kind is exactly one of its keys,
// falling back to the resource default. Keys are matched literally; no
// prefix or wildcard matching is done.
func TTLFor(kind string) time.Duration {
	if ttl, ok := DefaultTTLs[kind]; ok {
		return ttl
	}
	return DefaultTTLs["resource"]
}
