// Package cache implements an in-memory TTL response cache.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value    any
	storedAt time.Time
}

// Cache stores values under caller-constructed string keys and expires them
// lazily on read after the TTL. There is no background sweep; stale entries
// are removed the next time they are looked up.
type Cache struct {
	ttl time.Duration

	mu    sync.Mutex
	items map[string]entry
	now   func() time.Time // injectable clock for testing
}

// New creates a cache whose entries expire ttl after insertion.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:   ttl,
		items: make(map[string]entry),
		now:   time.Now,
	}
}

// Get returns the value stored under key if it is still within the TTL.
// An expired entry is deleted and reported as a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.items, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key, overwriting any previous entry and resetting
// its timestamp.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{value: value, storedAt: c.now()}
}

// SetClock overrides the cache's clock. Intended for tests.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
