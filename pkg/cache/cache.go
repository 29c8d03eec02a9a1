// Package cache is the persistence gateway: a string key to byte value
// store holding lightweight project snapshots between sessions.
//
// Values are opaque to the gateway; the session writes JSON. Every backend
// treats a single Set as atomic, so a failed write leaves the previous value
// in place. Running out of space is reported as a QUOTA_EXCEEDED error,
// which callers treat as a warning rather than a failure.
//
// Backends:
//
//   - [FileCache]: one file per key, written via temp file and rename
//   - [SQLiteCache]: a single table in a local SQLite database
//   - [RedisCache], [MongoCache]: shared stores for synced devices
//   - [MemoryCache], [NullCache]: tests and throwaway sessions
//
// [QuotaCache] wraps any backend with a byte budget.
package cache

import "context"

// Cache is a key/value store for snapshots.
type Cache interface {
	// Get returns the value for key. A missing key is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key, replacing any previous value.
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Sizer is implemented by backends that can report their total stored
// bytes. QuotaCache uses it to seed its accounting.
type Sizer interface {
	Size(ctx context.Context) (int64, error)
}
