// Package cache provides byte-level caching for rendered diagram pairs.
//
// The filter itself memoizes renders through the on-disk asset store
// (pkg/assets), where file existence is the cache-hit signal. This package
// serves the preview server, which caches rendered light/dark pairs keyed
// by asset key so repeated requests for the same source skip the external
// toolchain entirely. Backends: file (default), redis, mongo, null.
package cache

import (
	"context"
	"time"
)

// TTL values for cached render pairs. Rendered SVGs are content-addressed,
// so entries never go stale; the TTL only bounds disk/keyspace growth.
const (
	// TTLRender is how long a rendered pair stays cached.
	TTLRender = 30 * 24 * time.Hour
)

// Cache is a byte-level cache with optional expiration.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}
