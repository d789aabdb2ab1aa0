// Package cache provides a TTL-keyed result store shared by both retrieval
// paths.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the entry lifetime when none is configured.
const DefaultTTL = 300 * time.Second

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe map of string keys to values with per-entry
// expiry. Expiry is lazy: a Get past the deadline deletes the entry and
// reports a miss; there is no background sweep. Concurrent Sets to the same
// key are last-write-wins.
type Cache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache with the given TTL. Non-positive TTL falls back to
// DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key if present and unexpired. An expired entry
// is deleted as a side effect before the miss is reported.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// refreshed the entry.
		if cur, ok := c.entries[key]; ok && c.now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with a fresh TTL.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Len returns the number of entries currently stored, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
