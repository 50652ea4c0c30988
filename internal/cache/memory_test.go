package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreEvictsOldestWhenFull(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(3)

	base := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Put(ctx, &Entry{
			Key:      fmt.Sprintf("k%d", i),
			Value:    json.RawMessage(`"v"`),
			CachedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	// k0 carries the oldest CachedAt and must go first
	require.NoError(t, store.Put(ctx, &Entry{
		Key:      "k3",
		Value:    json.RawMessage(`"v"`),
		CachedAt: base.Add(3 * time.Second),
	}))

	assert.Equal(t, 3, store.len())
	_, err := store.Get(ctx, "k0")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, "k3")
	assert.NoError(t, err)
}

func TestMemoryStoreOverwriteDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(2)

	require.NoError(t, store.Put(ctx, &Entry{Key: "a", CachedAt: time.Now()}))
	require.NoError(t, store.Put(ctx, &Entry{Key: "b", CachedAt: time.Now()}))
	require.NoError(t, store.Put(ctx, &Entry{Key: "a", CachedAt: time.Now()}))

	assert.Equal(t, 2, store.len())
	_, err := store.Get(ctx, "b")
	assert.NoError(t, err)
}

func TestMemoryStoreDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(10)

	require.NoError(t, store.Put(ctx, &Entry{Key: "a", Value: json.RawMessage(`"v"`), CachedAt: time.Now()}))
	require.NoError(t, store.Delete(ctx, "a"))
	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting a missing key is not an error
	assert.NoError(t, store.Delete(ctx, "missing"))

	require.NoError(t, store.Put(ctx, &Entry{Key: "b", Value: json.RawMessage(`"v"`), CachedAt: time.Now()}))
	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 0, store.len())
}

func TestEntryExpired(t *testing.T) {
	now := time.Now()
	entry := &Entry{Key: "k", CachedAt: now.Add(-24*time.Hour + time.Second)}
	assert.False(t, entry.Expired(24*time.Hour, now), "one second inside the TTL is still valid")

	entry = &Entry{Key: "k", CachedAt: now.Add(-24*time.Hour - time.Second)}
	assert.True(t, entry.Expired(24*time.Hour, now), "one second past the TTL has expired")
}
