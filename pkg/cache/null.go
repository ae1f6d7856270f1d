package cache

import (
	"context"
	"time"
)

// NullCache discards every write and misses on every read. It backs the
// serve command's "none" cache setting, where each request is answered by
// a fresh render pass.
type NullCache struct{}

// NewNullCache returns the discard-everything backend.
func NewNullCache() Cache {
	return &NullCache{}
}

// Get reports a miss for any key.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set drops the value.
func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete has nothing to remove.
func (c *NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Close holds no resources.
func (c *NullCache) Close() error {
	return nil
}

var _ Cache = (*NullCache)(nil)
