// Package observability provides hooks for metrics, tracing, and logging.
//
// Consumers register hooks at startup to receive events about point edits,
// archive builds and gateway writes. Every hook set has a no-op default, so
// libraries can call them unconditionally.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSessionHooks(&mySessionHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Archive().OnExportStart(ctx, project, points)
//	// ... build zip ...
//	observability.Archive().OnExportComplete(ctx, project, size, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Session Hooks
// =============================================================================

// SessionHooks receives events from the session controller.
type SessionHooks interface {
	// OnMutation records a committed change. op is a short verb such as
	// "place", "update", "remove" or "remove-document".
	OnMutation(ctx context.Context, project, op string)

	// OnRejected records an operation refused with a validation or capacity
	// error. code is the error code.
	OnRejected(ctx context.Context, project, op, code string)

	// OnAutosave records a metadata snapshot write.
	OnAutosave(ctx context.Context, project string, size int, err error)
}

// =============================================================================
// Archive Hooks
// =============================================================================

// ArchiveHooks receives events from archive export and import.
type ArchiveHooks interface {
	OnExportStart(ctx context.Context, project string, points int)
	OnExportComplete(ctx context.Context, project string, size int, duration time.Duration, err error)
	OnImportComplete(ctx context.Context, project string, points int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from gateway operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, backend string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, backend string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, backend string, size int)

	// OnQuotaExceeded records a write refused for lack of space.
	OnQuotaExceeded(ctx context.Context, backend string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSessionHooks is a no-op implementation of SessionHooks.
type NoopSessionHooks struct{}

func (NoopSessionHooks) OnMutation(context.Context, string, string)         {}
func (NoopSessionHooks) OnRejected(context.Context, string, string, string) {}
func (NoopSessionHooks) OnAutosave(context.Context, string, int, error)     {}

// NoopArchiveHooks is a no-op implementation of ArchiveHooks.
type NoopArchiveHooks struct{}

func (NoopArchiveHooks) OnExportStart(context.Context, string, int) {}
func (NoopArchiveHooks) OnExportComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopArchiveHooks) OnImportComplete(context.Context, string, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)           {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)          {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int)      {}
func (NoopCacheHooks) OnQuotaExceeded(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	sessionHooks SessionHooks = NoopSessionHooks{}
	archiveHooks ArchiveHooks = NoopArchiveHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	hooksMu      sync.RWMutex
)

// SetSessionHooks registers custom session hooks.
// This should be called once at application startup.
func SetSessionHooks(h SessionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sessionHooks = h
	}
}

// SetArchiveHooks registers custom archive hooks.
func SetArchiveHooks(h ArchiveHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		archiveHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Session returns the registered session hooks.
func Session() SessionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sessionHooks
}

// Archive returns the registered archive hooks.
func Archive() ArchiveHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return archiveHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	sessionHooks = NoopSessionHooks{}
	archiveHooks = NoopArchiveHooks{}
	cacheHooks = NoopCacheHooks{}
}
