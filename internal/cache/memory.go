package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process TTL cache for values of type V
type Memory[V any] struct {
	cache *gocache.Cache
}

// NewMemory creates a memory cache
func NewMemory[V any](defaultTTL time.Duration, cleanupInterval time.Duration) *Memory[V] {
	return &Memory[V]{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value from the cache
func (c *Memory[V]) Get(key string) (V, bool) {
	if val, found := c.cache.Get(key); found {
		if v, ok := val.(V); ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Set stores a value with the default TTL
func (c *Memory[V]) Set(key string, value V) {
	c.cache.SetDefault(key, value)
}

// Delete removes a value from the cache
func (c *Memory[V]) Delete(key string) {
	c.cache.Delete(key)
}

// Clear removes all values from the cache
func (c *Memory[V]) Clear() {
	c.cache.Flush()
}

// Len returns the number of cached entries, including expired ones not yet evicted
func (c *Memory[V]) Len() int {
	return c.cache.ItemCount()
}
