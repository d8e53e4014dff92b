// Package cache stores generated populations between runs.
//
// A population is fully determined by the node scope of the model and the
// generator command, so the CSV bytes of a generated population can be reused
// by every later experiment that asks for the same pair. Backends:
//   - [FileCache]: one JSON file per entry under the XDG cache directory (CLI)
//   - [RedisCache]: shared cache for `plexsim serve` deployments
//   - [MongoCache]: document store backend with TTL index expiry
//   - [NullCache]: stores nothing (--no-cache)
//
// Keys come from a [Keyer]. [ScopedKeyer] prefixes keys so several
// deployments can share one remote backend.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long a cached population stays valid.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the stored bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// PopulationKey returns the key of the population generated by command
	// for the node scope with canonical form scope.
	PopulationKey(scope, command string) string
}

// keyVersion is bumped whenever the cached CSV layout changes.
const keyVersion = 1

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// PopulationKey implements [Keyer].
func (DefaultKeyer) PopulationKey(scope, command string) string {
	return hashKey("population", keyVersion, scope, command)
}

// GetWithRetry calls c.Get, retrying errors the backend marked retryable.
func GetWithRetry(ctx context.Context, c Cache, key string) (data []byte, ok bool, err error) {
	err = RetryWithBackoff(ctx, func() error {
		var getErr error
		data, ok, getErr = c.Get(ctx, key)
		return getErr
	})
	return data, ok, err
}
