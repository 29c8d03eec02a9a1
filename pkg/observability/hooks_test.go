package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	s := NoopSessionHooks{}
	s.OnMutation(ctx, "RN1", "place")
	s.OnRejected(ctx, "RN1", "place", "PROXIMITY")
	s.OnAutosave(ctx, "RN1", 512, nil)

	a := NoopArchiveHooks{}
	a.OnExportStart(ctx, "RN1", 3)
	a.OnExportComplete(ctx, "RN1", 4096, time.Second, nil)
	a.OnImportComplete(ctx, "RN1", 3, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "file")
	c.OnCacheMiss(ctx, "sqlite")
	c.OnCacheSet(ctx, "redis", 1024)
	c.OnQuotaExceeded(ctx, "file", 1<<20)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Session().(NoopSessionHooks); !ok {
		t.Error("Session() should return NoopSessionHooks by default")
	}
	if _, ok := Archive().(NoopArchiveHooks); !ok {
		t.Error("Archive() should return NoopArchiveHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customSession := &testSessionHooks{}
	SetSessionHooks(customSession)
	if Session() != customSession {
		t.Error("SetSessionHooks should set custom hooks")
	}

	customArchive := &testArchiveHooks{}
	SetArchiveHooks(customArchive)
	if Archive() != customArchive {
		t.Error("SetArchiveHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Session().(NoopSessionHooks); !ok {
		t.Error("Reset() should restore NoopSessionHooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Reset() should restore NoopCacheHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testCacheHooks{}
	SetCacheHooks(custom)
	SetCacheHooks(nil)
	if Cache() != custom {
		t.Error("SetCacheHooks(nil) should be ignored")
	}
	Reset()
}

type testSessionHooks struct{ NoopSessionHooks }

type testArchiveHooks struct{ NoopArchiveHooks }

type testCacheHooks struct{ NoopCacheHooks }
