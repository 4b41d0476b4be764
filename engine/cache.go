package engine

import (
	"sync"
	"time"

	"github.com/hupe1980/routemesh/core"
)

type cacheEntry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

func (e cacheEntry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

// Cache is an in-memory TTL cache of action results keyed by CallKey.
// Values are stored as returned by the handler; callers must treat them as
// read-only.
type Cache struct {
	mu      sync.RWMutex
	entries map[core.CallKey]cacheEntry
	now     func() time.Time
}

// NewCache creates an empty cache. now defaults to time.Now.
func NewCache(now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{entries: make(map[core.CallKey]cacheEntry), now: now}
}

// Get returns a live entry. An expired entry is removed and reported as a miss.
func (c *Cache) Get(key core.CallKey) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if e.expired(c.now()) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.storedAt.Equal(e.storedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl is ignored.
func (c *Cache) Set(key core.CallKey, value any, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, storedAt: c.now(), ttl: ttl}
	c.mu.Unlock()
}

// Delete removes key.
func (c *Cache) Delete(key core.CallKey) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// EvictExpired removes every expired entry and returns how many were removed.
func (c *Cache) EvictExpired() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			n++
		}
	}

	return n
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[core.CallKey]cacheEntry)
	c.mu.Unlock()
}
