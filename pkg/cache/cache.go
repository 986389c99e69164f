// Package cache stores registry responses between runs.
//
// A commonify run issues the same packument requests many times: once to
// resolve a range, again for the source manifest, and once per dependency edge
// that points at an already visited package. The [Cache] interface lets the
// registry client keep those responses around, on local disk for the CLI
// ([FileCache]), in Redis when several machines share a registry mirror
// ([RedisCache]), or not at all ([NullCache]).
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}
