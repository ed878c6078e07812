package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Link hooks
	l := NoopLinkHooks{}
	l.OnStepStart(ctx, "resolve")
	l.OnStepComplete(ctx, "resolve", time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "capabilities")
	c.OnCacheMiss(ctx, "capabilities")
	c.OnCacheSet(ctx, "capabilities", 1024)

	// Tool hooks
	h := NoopToolHooks{}
	h.OnToolStart(ctx, "jlink", []string{"--version"})
	h.OnToolComplete(ctx, "jlink", 0, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Link().(NoopLinkHooks); !ok {
		t.Error("Link() should return NoopLinkHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := Tool().(NoopToolHooks); !ok {
		t.Error("Tool() should return NoopToolHooks by default")
	}

	// Set custom hooks
	customLink := &testLinkHooks{}
	SetLinkHooks(customLink)
	if Link() != customLink {
		t.Error("SetLinkHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customTool := &testToolHooks{}
	SetToolHooks(customTool)
	if Tool() != customTool {
		t.Error("SetToolHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Link().(NoopLinkHooks); !ok {
		t.Error("Reset() should restore NoopLinkHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testLinkHooks{}
	SetLinkHooks(custom)

	// Setting nil should be ignored
	SetLinkHooks(nil)

	if Link() != custom {
		t.Error("SetLinkHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testLinkHooks struct{ NoopLinkHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testToolHooks struct{ NoopToolHooks }
