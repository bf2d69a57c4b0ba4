package collector

import (
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	value   V
	expires time.Time
}

// ttlCache maps keys to values that expire after a per-entry TTL.
// Concurrent misses may compute the same key more than once.
type ttlCache[V any] struct {
	mu      sync.Mutex
	entries map[string]cacheEntry[V]
	now     func() time.Time
}

func newTTLCache[V any]() *ttlCache[V] {
	return &ttlCache[V]{
		entries: make(map[string]cacheEntry[V]),
		now:     time.Now,
	}
}

// GetOrCompute returns the cached value for key, or stores and returns
// compute() when the entry is missing, expired or force is set. hit
// reports whether the cached value was used.
func (c *ttlCache[V]) GetOrCompute(key string, ttl time.Duration, force bool, compute func() V) (v V, hit bool) {
	if !force {
		c.mu.Lock()
		e, ok := c.entries[key]
		c.mu.Unlock()
		if ok && c.now().Before(e.expires) {
			return e.value, true
		}
	}

	v = compute()
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: v, expires: c.now().Add(ttl)}
	c.mu.Unlock()
	return v, false
}

// Invalidate drops the entry for key.
func (c *ttlCache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
