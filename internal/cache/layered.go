package cache

import (
	"errors"
	"time"
)

// LayeredCache checks memory before disk and promotes disk hits
type LayeredCache struct {
	memory    Cache
	disk      Cache
	memoryTTL time.Duration
}

// NewLayeredCache creates a new layered cache
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory:    NewMemoryCache(memoryTTL, 10*time.Minute),
		disk:      NewDiskCache(diskDir, diskTTL),
		memoryTTL: memoryTTL,
	}
}

// Get retrieves a value from the cache (checks memory first, then disk)
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	if val, found := c.disk.Get(key); found {
		_ = c.memory.Set(key, val, 0) // memory default TTL
		return val, true
	}

	return nil, false
}

// Set stores a value in both layers. The memory layer never outlives its own TTL.
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	memTTL := ttl
	if c.memoryTTL > 0 && (memTTL == 0 || memTTL > c.memoryTTL) {
		memTTL = c.memoryTTL
	}
	if err := c.memory.Set(key, value, memTTL); err != nil {
		return err
	}

	if err := c.disk.Set(key, value, ttl); err != nil {
		return err
	}

	return nil
}

// Delete removes a value from both caches
func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.memory.Delete(key), c.disk.Delete(key))
}

// Clear removes all values from both caches
func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.disk.Clear())
}
