package cache

import (
	"context"
	"sync"

	"github.com/matzehuels/pepedot/pkg/observability"
)

// DefaultQuota mirrors the few megabytes a browser grants local storage.
const DefaultQuota int64 = 5 << 20

// QuotaCache enforces a byte budget over the values written through it.
// Usage is seeded from the backend when it implements Sizer; otherwise only
// keys seen through this wrapper are counted.
type QuotaCache struct {
	inner Cache
	limit int64

	mu     sync.Mutex
	seeded bool
	used   int64
	sizes  map[string]int64
}

// NewQuotaCache wraps inner with a budget of limit bytes. A non-positive
// limit disables the check.
func NewQuotaCache(inner Cache, limit int64) *QuotaCache {
	return &QuotaCache{inner: inner, limit: limit, sizes: make(map[string]int64)}
}

// Limit returns the configured budget.
func (c *QuotaCache) Limit() int64 { return c.limit }

// Used returns the bytes currently accounted for.
func (c *QuotaCache) Used(ctx context.Context) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seed(ctx)
	return c.used
}

// Get reads through and records the value size.
func (c *QuotaCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.inner.Get(ctx, key)
	if err == nil && ok {
		c.mu.Lock()
		c.track(ctx, key, int64(len(data)))
		c.mu.Unlock()
	}
	return data, ok, err
}

// Set writes data unless doing so would exceed the budget.
func (c *QuotaCache) Set(ctx context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seed(ctx)

	old, known := c.sizes[key]
	if !known {
		if prev, ok, err := c.inner.Get(ctx, key); err == nil && ok {
			old = int64(len(prev))
		}
	}
	// An unseeded total only includes keys this wrapper has seen.
	next := c.used + int64(len(data))
	if known || c.seeded {
		next -= old
	}
	if c.limit > 0 && next > c.limit {
		observability.Cache().OnQuotaExceeded(ctx, "quota", len(data))
		return quotaError(key, len(data), nil)
	}
	if err := c.inner.Set(ctx, key, data); err != nil {
		return err
	}
	c.used = next
	c.sizes[key] = int64(len(data))
	return nil
}

// Delete removes key and releases its bytes.
func (c *QuotaCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seed(ctx)

	old, known := c.sizes[key]
	if !known && c.seeded {
		if prev, ok, err := c.inner.Get(ctx, key); err == nil && ok {
			old = int64(len(prev))
		}
	}
	if err := c.inner.Delete(ctx, key); err != nil {
		return err
	}
	c.used = max(0, c.used-old)
	delete(c.sizes, key)
	return nil
}

// Close closes the wrapped cache.
func (c *QuotaCache) Close() error { return c.inner.Close() }

// seed loads the backend total once. Caller holds mu.
func (c *QuotaCache) seed(ctx context.Context) {
	if c.seeded {
		return
	}
	s, ok := c.inner.(Sizer)
	if !ok {
		return
	}
	n, err := s.Size(ctx)
	if err != nil {
		return
	}
	c.used = n
	c.seeded = true
}

// track records the size of a key observed by Get. Caller holds mu.
func (c *QuotaCache) track(ctx context.Context, key string, size int64) {
	c.seed(ctx)
	if _, known := c.sizes[key]; known {
		return
	}
	c.sizes[key] = size
	if !c.seeded {
		c.used += size
	}
}

var _ Cache = (*QuotaCache)(nil)
