// Package cache provides a small byte-oriented cache used for capability
// probe results.
//
// Probing a source runtime for optional linker features requires spawning
// several short-lived processes (and, for one probe, linking a throwaway
// image). The results only change when the runtime itself changes, so they
// are cached on disk keyed by the runtime's home directory.
//
// Implementations:
//   - FileCache: file-based storage under a cache directory
//   - NullCache: no-op, for tests and --no-cache runs
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get retrieves a value. The second result reports whether the key was
	// present (and unexpired).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}
