package cache

import (
	"context"
	"fmt"
	"path/filepath"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	Dir     string
	Quota   int64

	SQLitePath string
	Redis      RedisOptions
	Mongo      MongoOptions
}

// Open constructs the configured backend wrapped in a QuotaCache.
func Open(ctx context.Context, opts Options) (*QuotaCache, error) {
	var (
		c   Cache
		err error
	)
	switch opts.Backend {
	case "", BackendFile:
		c, err = NewFileCache(filepath.Join(opts.Dir, "snapshots"))
	case BackendSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = filepath.Join(opts.Dir, "pepedot.db")
		}
		c, err = NewSQLiteCache(ctx, path)
	case BackendRedis:
		c, err = NewRedisCache(ctx, opts.Redis)
	case BackendMongo:
		c, err = NewMongoCache(ctx, opts.Mongo)
	case BackendMemory:
		c = NewMemoryCache()
	case BackendNone:
		c = NewNullCache()
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return NewQuotaCache(c, opts.Quota), nil
}
