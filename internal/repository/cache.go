// Package repository defines data access interfaces for the YaMDb API.
package repository

import (
	"context"
	"time"
)

// =============================================================================
// Cache Interface (Redis)
// =============================================================================

// Cache defines the interface for expiring key/value storage. The Redis
// implementation backs the confirmation-code store in multi-node
// deployments; the in-memory implementation serves single-node runs and
// tests. Derived title ratings are deliberately never cached: every read
// must reflect all committed reviews.
type Cache interface {
	// Get retrieves a value by key.
	// Returns ErrCacheMiss if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with an optional TTL.
	// If ttl is 0, the value doesn't expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists.
	Exists(ctx context.Context, key string) (bool, error)

	// TTL returns the remaining TTL for a key.
	// Returns a negative duration when the key is absent or persistent.
	TTL(ctx context.Context, key string) (time.Duration, error)
}
