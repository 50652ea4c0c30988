package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/snapdish/snapdish-backend/internal/types"
)

// FetchFunc produces the value for a key on a cache miss
type FetchFunc func(ctx context.Context) (json.RawMessage, error)

// call tracks one in-flight fetch. complete delivers exactly once, so a
// shutdown can fail waiters even while the fetch is still running.
type call struct {
	once  sync.Once
	done  chan struct{}
	value json.RawMessage
	err   error
}

func (c *call) complete(value json.RawMessage, err error) {
	c.once.Do(func() {
		c.value = value
		c.err = err
		close(c.done)
	})
}

// ResultCache layers TTL validity and per-key request de-duplication over
// a hot in-memory tier and a persistent store. At most one fetch per key
// is in flight at any time; concurrent callers for that key share its
// outcome. Store failures are soft: logged and treated as misses.
type ResultCache struct {
	name   string
	memory *memoryStore
	disk   Store
	ttl    time.Duration

	mu       sync.Mutex
	inflight map[string]*call
	closed   bool
}

// NewResultCache creates a cache over the given persistent store. name
// only labels log lines.
func NewResultCache(name string, disk Store, ttl time.Duration) *ResultCache {
	return &ResultCache{
		name:     name,
		memory:   newMemoryStore(MemoryCapacity),
		disk:     disk,
		ttl:      ttl,
		inflight: make(map[string]*call),
	}
}

// Get returns the cached value for key if a valid entry exists in either
// tier. Expired entries read as misses. Disk hits are promoted to the
// memory tier.
func (rc *ResultCache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	now := time.Now()

	if entry, err := rc.memory.Get(ctx, key); err == nil {
		if !entry.Expired(rc.ttl, now) {
			return entry.Value, true
		}
		_ = rc.memory.Delete(ctx, key)
	}

	entry, err := rc.disk.Get(ctx, key)
	if err == ErrNotFound {
		return nil, false
	}
	if err != nil {
		log.Printf("[Cache:%s] disk read failed for %s, treating as miss: %v", rc.name, key, err)
		return nil, false
	}
	if entry.Expired(rc.ttl, now) {
		return nil, false
	}

	if err := rc.memory.Put(ctx, entry); err != nil {
		log.Printf("[Cache:%s] memory promote failed for %s: %v", rc.name, key, err)
	}
	return entry.Value, true
}

// Put stores value under key in both tiers, overwriting any prior entry
func (rc *ResultCache) Put(ctx context.Context, key string, value json.RawMessage) error {
	rc.mu.Lock()
	if rc.closed {
		rc.mu.Unlock()
		return types.ErrDisposed
	}
	rc.mu.Unlock()

	entry := &Entry{Key: key, Value: value, CachedAt: time.Now()}
	if err := rc.memory.Put(ctx, entry); err != nil {
		return &types.CacheError{Op: "put", Err: err}
	}
	if err := rc.disk.Put(ctx, entry); err != nil {
		// the memory tier already holds the value; disk loss only costs
		// durability, so this stays a soft failure
		log.Printf("[Cache:%s] disk write failed for %s: %v", rc.name, key, err)
	}
	return nil
}

// GetOrFetch returns the cached value for key, or runs fetch to produce
// it. Concurrent calls for the same key share a single fetch and all
// observe its outcome. The second return reports whether the value came
// from cache.
func (rc *ResultCache) GetOrFetch(ctx context.Context, key string, fetch FetchFunc) (json.RawMessage, bool, error) {
	rc.mu.Lock()
	if rc.closed {
		rc.mu.Unlock()
		return nil, false, types.ErrDisposed
	}
	rc.mu.Unlock()

	if value, ok := rc.Get(ctx, key); ok {
		return value, true, nil
	}

	rc.mu.Lock()
	if rc.closed {
		rc.mu.Unlock()
		return nil, false, types.ErrDisposed
	}
	if pending, ok := rc.inflight[key]; ok {
		rc.mu.Unlock()
		select {
		case <-pending.done:
			return pending.value, false, pending.err
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
	current := &call{done: make(chan struct{})}
	rc.inflight[key] = current
	rc.mu.Unlock()

	value, err := fetch(ctx)
	if err == nil {
		if putErr := rc.Put(ctx, key, value); putErr != nil {
			log.Printf("[Cache:%s] store after fetch failed for %s: %v", rc.name, key, putErr)
		}
	}

	rc.mu.Lock()
	if rc.inflight[key] == current {
		delete(rc.inflight, key)
	}
	rc.mu.Unlock()
	current.complete(value, err)

	return value, false, err
}

// Clear empties both tiers and resets in-flight tracking. Clearing an
// already-empty cache is not an error.
func (rc *ResultCache) Clear(ctx context.Context) error {
	rc.mu.Lock()
	rc.inflight = make(map[string]*call)
	rc.mu.Unlock()

	if err := rc.memory.Clear(ctx); err != nil {
		return &types.CacheError{Op: "clear", Err: err}
	}
	if err := rc.disk.Clear(ctx); err != nil {
		return &types.CacheError{Op: "clear", Err: err}
	}
	return nil
}

// SizeBytes reports the combined approximate size of both tiers
func (rc *ResultCache) SizeBytes(ctx context.Context) (int64, error) {
	memSize, _ := rc.memory.SizeBytes(ctx)
	diskSize, err := rc.disk.SizeBytes(ctx)
	if err != nil {
		return memSize, &types.CacheError{Op: "size", Err: err}
	}
	return memSize + diskSize, nil
}

// Close marks the cache disposed, fails every pending de-duplication
// waiter and closes the persistent store. Fetches already running finish
// but their waiters have already been released.
func (rc *ResultCache) Close() error {
	rc.mu.Lock()
	if rc.closed {
		rc.mu.Unlock()
		return nil
	}
	rc.closed = true
	pending := rc.inflight
	rc.inflight = make(map[string]*call)
	rc.mu.Unlock()

	for _, c := range pending {
		c.complete(nil, types.ErrDisposed)
	}
	return rc.disk.Close()
}
