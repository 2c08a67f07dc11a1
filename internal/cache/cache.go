package cache

import (
	"context"
	"time"
)

// Cache defines the interface for caching operations. Implementations
// may fail at any time; callers are expected to treat failures as
// misses and continue against the source of truth.
type Cache interface {
	// Get retrieves a value from cache; a nil result with nil error
	// means the key does not exist
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error

	// FlushAll clears every entry in the cache namespace
	FlushAll(ctx context.Context) error

	// Close closes the cache connection
	Close() error

	// Health checks cache health
	Health(ctx context.Context) error
}

// CacheError represents a cache operation error
type CacheError struct {
	Operation string
	Key       string
	Err       error
}

func (e *CacheError) Error() string {
	if e.Key == "" {
		return "cache " + e.Operation + " failed: " + e.Err.Error()
	}
	return "cache " + e.Operation + " failed for key '" + e.Key + "': " + e.Err.Error()
}

func (e *CacheError) Unwrap() error {
	return e.Err
}
