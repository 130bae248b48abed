// Package cache stores processing results keyed by content fingerprint
// so re-uploads of identical documents skip the LLM entirely.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented store with per-entry TTL. Implementations
// must treat misses as (nil, false, nil) rather than errors.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
