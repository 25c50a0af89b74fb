// Package cache defines the key/value store contract used by the redirect
// hot path, with a networked (Redis) and a process-local implementation.
//
// Absence is a non-exceptional result: Get reports it through the ok return,
// never through the error. A non-nil error means the backing store itself
// failed, and callers on the read path are expected to degrade (treat it as
// a miss) rather than fail the request.
package cache

import (
	"context"
	"time"
)

// Store is a key/value store with per-entry expiration.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent or
	// its entry has expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key. A ttl <= 0 means the entry never expires
	// on its own; it is only removed by Delete or an overwriting Set.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// LinkKey returns the cache key for a link's redirect payload.
func LinkKey(slug string) string {
	return "link:" + slug
}
