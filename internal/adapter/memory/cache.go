package memory

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	value      V
	insertedAt time.Time
	expiresAt  time.Time
}

// LoadingCache is a bounded read-through cache: a miss (or an expired entry)
// invokes the loader and stores the result for ttl. When the cache is full
// the oldest entry is evicted. Concurrent misses for the same key may each
// invoke the loader; that redundant load is accepted given the short TTLs.
type LoadingCache[K comparable, V any] struct {
	mu         sync.RWMutex
	entries    map[K]cacheEntry[V]
	maxEntries int
	ttl        time.Duration
	loader     func(ctx context.Context, key K) (V, error)
}

func NewLoadingCache[K comparable, V any](maxEntries int, ttl time.Duration, loader func(ctx context.Context, key K) (V, error)) *LoadingCache[K, V] {
	return &LoadingCache[K, V]{
		entries:    make(map[K]cacheEntry[V]),
		maxEntries: maxEntries,
		ttl:        ttl,
		loader:     loader,
	}
}

// Get returns the cached value for key, loading it on a miss.
func (c *LoadingCache[K, V]) Get(ctx context.Context, key K) (V, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	now := time.Now()
	if ok && now.Before(entry.expiresAt) {
		return entry.value, nil
	}

	value, err := c.loader(ctx, key)
	if err != nil {
		var zero V
		return zero, fmt.Errorf("loading cache entry: %w", err)
	}

	c.mu.Lock()
	if len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[key]; !exists {
			c.evictOldestLocked()
		}
	}
	c.entries[key] = cacheEntry[V]{value: value, insertedAt: now, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()

	return value, nil
}

// Invalidate drops the entry for key so the next Get reloads it.
func (c *LoadingCache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len reports the current entry count, expired entries included.
func (c *LoadingCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *LoadingCache[K, V]) evictOldestLocked() {
	var oldestKey K
	var oldestAt time.Time
	first := true
	for k, e := range c.entries {
		if first || e.insertedAt.Before(oldestAt) {
			oldestKey, oldestAt = k, e.insertedAt
			first = false
		}
	}
	if !first {
		delete(c.entries, oldestKey)
	}
}
