// Package cache provides pluggable result caching for parsed diagrams.
//
// Three backends are available: a file cache for CLI usage, a Redis cache
// for the server, and a null cache that disables caching entirely. All
// backends store opaque byte slices; callers serialize their own values.
//
// Keys are derived from the diagram source text, so identical input always
// maps to the same entry regardless of where it came from.
package cache

import (
	"context"
	"time"
)

// DefaultTTL is the standard lifetime for cached parse results.
const DefaultTTL = 24 * time.Hour

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys for parse results.
type Keyer interface {
	// ParseKey returns the key for a parse of src under the given
	// reference policy. The source text is hashed, never embedded.
	ParseKey(src string, lenient bool) string
}

// DefaultKeyer hashes the diagram source into a namespaced key.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ParseKey generates a key for a parse result.
func (k *DefaultKeyer) ParseKey(src string, lenient bool) string {
	return hashKey("parse", Hash([]byte(src)), lenient)
}
