package cache

import (
	"context"
	"sync/atomic"
)

// NullCache drops every write. A session backed by it works entirely in
// memory: autosave succeeds but nothing survives the process.
type NullCache struct {
	dropped atomic.Int64
}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() *NullCache {
	return &NullCache{}
}

// Get always misses.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards data and counts its bytes.
func (c *NullCache) Set(ctx context.Context, key string, data []byte) error {
	c.dropped.Add(int64(len(data)))
	return nil
}

func (c *NullCache) Delete(ctx context.Context, key string) error { return nil }

func (c *NullCache) Close() error { return nil }

// Dropped returns the total bytes discarded by Set.
func (c *NullCache) Dropped() int64 { return c.dropped.Load() }

var _ Cache = (*NullCache)(nil)
