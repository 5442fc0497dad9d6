// Package catalog keeps the local copy of the product catalog: an ordered
// in-process snapshot plus a pluggable byte store that lets the snapshot
// survive restarts or be shared through Redis.
package catalog

import (
	"context"
	"time"
)

// Store persists serialized snapshots. All implementations must be
// thread-safe.
type Store interface {
	// Get returns the value for key, or ErrStoreMiss when the key is
	// absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL. A zero TTL uses the
	// store's default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// Error is the error type for store operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrStoreMiss indicates the key was not found or has expired.
	ErrStoreMiss Error = "store miss"

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed Error = "store closed"
)
