package directory

import (
	"sync"
	"time"
)

// Cache is a TTL-bounded key/value cache. Entries are checked against the
// caller-supplied clock on read and never served once stale; nothing is
// evicted proactively. Concurrent Sets on the same key are last-write-wins.
type Cache[K comparable, V any] struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[K]cacheEntry[V]
}

type cacheEntry[V any] struct {
	value    V
	storedAt time.Time
}

// NewCache creates a cache whose entries expire ttl after they are stored.
func NewCache[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		ttl:     ttl,
		entries: make(map[K]cacheEntry[V]),
	}
}

// Get returns the value for key if it was stored less than ttl before now.
func (c *Cache[K, V]) Get(key K, now time.Time) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || now.Sub(e.storedAt) >= c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value for key with now as its timestamp.
func (c *Cache[K, V]) Set(key K, value V, now time.Time) {
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: value, storedAt: now}
	c.mu.Unlock()
}

// Len returns the number of stored entries, fresh or stale.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
