// Package cache stores replies keyed by a hash of the message text so that
// repeated questions can be answered without a completion call.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache is a reply cache. Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached reply for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key. A zero ttl keeps the entry until deleted.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Normalize trims surrounding whitespace and lower-cases message. Messages
// with the same normalized form share a cache entry.
func Normalize(message string) string {
	return strings.ToLower(strings.TrimSpace(message))
}

// Key returns the cache key for a message: the hex SHA-256 of its
// normalized form.
func Key(message string) string {
	sum := sha256.Sum256([]byte(Normalize(message)))
	return hex.EncodeToString(sum[:])
}
