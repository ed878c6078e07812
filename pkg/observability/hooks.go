// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about link execution, cache operations, and external tool
// invocations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetLinkHooks(&myLinkHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Link().OnStepStart(ctx, "resolve")
//	// ... do work ...
//	observability.Link().OnStepComplete(ctx, "resolve", duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Link Hooks
// =============================================================================

// LinkHooks receives events from the image link pipeline.
type LinkHooks interface {
	// OnStepStart records the start of a named link step (inventory,
	// resolve, synthesize, assemble, sources, statics, cache).
	OnStepStart(ctx context.Context, step string)

	// OnStepComplete records completion of a named link step.
	OnStepComplete(ctx context.Context, step string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Tool Hooks
// =============================================================================

// ToolHooks receives events from external tool invocations.
type ToolHooks interface {
	// OnToolStart records the start of an external process.
	OnToolStart(ctx context.Context, tool string, args []string)

	// OnToolComplete records process completion with its exit code.
	OnToolComplete(ctx context.Context, tool string, exitCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopLinkHooks is a no-op implementation of LinkHooks.
type NoopLinkHooks struct{}

func (NoopLinkHooks) OnStepStart(context.Context, string)                          {}
func (NoopLinkHooks) OnStepComplete(context.Context, string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopToolHooks is a no-op implementation of ToolHooks.
type NoopToolHooks struct{}

func (NoopToolHooks) OnToolStart(context.Context, string, []string)             {}
func (NoopToolHooks) OnToolComplete(context.Context, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	linkHooks  LinkHooks  = NoopLinkHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	toolHooks  ToolHooks  = NoopToolHooks{}
	hooksMu    sync.RWMutex
)

// SetLinkHooks registers custom link hooks.
// This should be called once at application startup before any link operations.
func SetLinkHooks(h LinkHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		linkHooks = h
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

// SetToolHooks registers custom tool hooks.
// This should be called once at application startup before any tool invocations.
func SetToolHooks(h ToolHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		toolHooks = h
	}
}

// Link returns the registered link hooks.
func Link() LinkHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return linkHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Tool returns the registered tool hooks.
func Tool() ToolHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return toolHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	linkHooks = NoopLinkHooks{}
	cacheHooks = NoopCacheHooks{}
	toolHooks = NoopToolHooks{}
}
