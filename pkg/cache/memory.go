package cache

import (
	"context"
	"sync"

	"github.com/matzehuels/pepedot/pkg/observability"
)

// MemoryCache keeps values in a map. It is safe for concurrent use.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string][]byte)}
}

// Get retrieves a copy of the value for key.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	if !ok {
		observability.Cache().OnCacheMiss(ctx, "memory")
		return nil, false, nil
	}
	observability.Cache().OnCacheHit(ctx, "memory")
	return append([]byte(nil), v...), true, nil
}

// Set stores a copy of data.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = append([]byte(nil), data...)
	observability.Cache().OnCacheSet(ctx, "memory", len(data))
	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Size returns the total bytes stored.
func (c *MemoryCache) Size(ctx context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var n int64
	for _, v := range c.data {
		n += int64(len(v))
	}
	return n, nil
}

// Keys returns the stored keys in no particular order.
func (c *MemoryCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}

// Close does nothing.
func (c *MemoryCache) Close() error { return nil }

var (
	_ Cache = (*MemoryCache)(nil)
	_ Sizer = (*MemoryCache)(nil)
)
