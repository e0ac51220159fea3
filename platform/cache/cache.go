// Package cache provides the shared response-cache store used by the
// geocoding resolver. This is part of the platform layer and contains no
// business logic.
//
// The store is an injected dependency rather than process-wide state so
// tests can substitute an in-memory implementation with a controllable
// clock. The redis backend is safe for concurrent access across worker
// processes; the memory backend guards its map with a mutex.
package cache

import (
	"context"
	"time"
)

// Store maps canonical request keys to previously fetched payloads.
// Entries expire after their TTL; expired entries are dropped lazily on
// lookup, never swept proactively. No delete operation is required by
// callers.
type Store interface {
	// Get returns the payload for key, reporting whether a live entry exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores payload under key for the given TTL.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}
