package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/themecheck/internal/model"
)

// LayeredCache keeps recent vectors in memory in front of the disk cache
type LayeredCache struct {
	memory    Cache
	disk      Cache
	memoryTTL time.Duration
}

// NewLayeredCache builds the memory and disk layers from cfg
func NewLayeredCache(cfg model.CacheConfig) *LayeredCache {
	return &LayeredCache{
		memory:    NewMemoryCache(cfg.MemoryTTL, cfg.MemoryMaxBytes),
		disk:      NewDiskCache(cfg.Dir, cfg.DiskTTL),
		memoryTTL: cfg.MemoryTTL,
	}
}

// Get checks memory first, then disk; a disk hit is promoted to memory
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	if val, found := c.disk.Get(key); found {
		_ = c.memory.Set(key, val, c.memoryTTL)
		return val, true
	}

	return nil, false
}

// Set stores value in both layers. ttl applies to disk; memory keeps its own TTL.
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, c.memoryTTL); err != nil {
		return fmt.Errorf("memory layer: %w", err)
	}
	if err := c.disk.Set(key, value, ttl); err != nil {
		return fmt.Errorf("disk layer: %w", err)
	}
	return nil
}

// Delete removes a value from both layers
func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.memory.Delete(key), wrapDisk(c.disk.Delete(key)))
}

// Clear removes all values from both layers
func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), wrapDisk(c.disk.Clear()))
}

func wrapDisk(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("disk layer: %w", err)
}
