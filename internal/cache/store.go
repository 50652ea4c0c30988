package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by a Store when no entry exists for a key
var ErrNotFound = errors.New("cache: entry not found")

// Default capacity and validity policy. The store engines underneath are
// externally supplied; these limits are layered on top of them.
const (
	// MemoryCapacity is the hot in-memory tier size
	MemoryCapacity = 50
	// DiskCapacity is the number of entries tracked by the disk index
	DiskCapacity = 200

	// ResultTTL bounds the age of vision and recipe results
	ResultTTL = 24 * time.Hour
	// ProcessedImageTTL bounds the age of cached photo encodings
	ProcessedImageTTL = 7 * 24 * time.Hour
)

// Entry is one cached value. Values are refreshed only by overwrite,
// never partially mutated.
type Entry struct {
	Key      string          `json:"key"`
	Value    json.RawMessage `json:"value"`
	CachedAt time.Time       `json:"cached_at"`
}

// Expired reports whether the entry is past the given TTL
func (e *Entry) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.CachedAt) > ttl
}

// Store is one cache tier. Implementations must apply mutations
// atomically with respect to concurrent readers.
type Store interface {
	// Get returns the entry for key, or ErrNotFound
	Get(ctx context.Context, key string) (*Entry, error)

	// Put inserts or overwrites the entry for its key
	Put(ctx context.Context, entry *Entry) error

	// Delete removes the entry for key; missing keys are not an error
	Delete(ctx context.Context, key string) error

	// Clear removes every entry; never errors on an empty store
	Clear(ctx context.Context) error

	// SizeBytes reports the approximate stored payload size
	SizeBytes(ctx context.Context) (int64, error)

	// Close releases the underlying engine
	Close() error
}
