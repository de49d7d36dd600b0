package cache

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache holds encoded vectors in memory under a byte budget
type MemoryCache struct {
	cache    *gocache.Cache
	maxBytes int64
	bytes    atomic.Int64

	mu sync.Mutex // serialises writes so the byte count stays exact
}

// NewMemoryCache creates a memory cache. maxBytes <= 0 disables the budget;
// defaultTTL <= 0 keeps entries until evicted.
func NewMemoryCache(defaultTTL time.Duration, maxBytes int64) *MemoryCache {
	ttl, cleanup := defaultTTL, max(defaultTTL, time.Minute)
	if defaultTTL <= 0 {
		ttl, cleanup = gocache.NoExpiration, 0
	}

	c := &MemoryCache{
		cache:    gocache.New(ttl, cleanup),
		maxBytes: maxBytes,
	}
	c.cache.OnEvicted(func(_ string, v any) {
		if b, ok := v.([]byte); ok {
			c.bytes.Add(-int64(len(b)))
		}
	})
	return c
}

// Get retrieves a value from the cache. The slice must not be modified.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		if b, ok := val.([]byte); ok {
			return b, true
		}
	}
	return nil, false
}

// Set stores a copy of value with the given TTL; zero uses the default.
// A write that does not fit the budget after expired entries are dropped
// is skipped.
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	size := int64(len(value))

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Delete(key)
	if c.maxBytes > 0 {
		if size > c.maxBytes {
			return nil
		}
		if c.bytes.Load()+size > c.maxBytes {
			c.cache.DeleteExpired()
		}
		if c.bytes.Load()+size > c.maxBytes {
			return nil
		}
	}

	c.cache.Set(key, slices.Clone(value), ttl)
	c.bytes.Add(size)
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Delete(key)
	return nil
}

// Clear removes all values from the cache
func (c *MemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Flush()
	c.bytes.Store(0)
	return nil
}

// Len returns the number of stored entries, expired ones included until cleanup
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}

// Bytes returns the payload bytes currently held
func (c *MemoryCache) Bytes() int64 {
	return c.bytes.Load()
}
