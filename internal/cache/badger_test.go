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

func newTestBadger(t *testing.T, capacity int) *BadgerStore {
	store, err := NewBadgerStore(t.TempDir(), capacity)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBadgerStorePutGet(t *testing.T) {
	ctx := context.Background()
	store := newTestBadger(t, 10)

	cachedAt := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.Put(ctx, &Entry{
		Key:      "k",
		Value:    json.RawMessage(`{"n":42}`),
		CachedAt: cachedAt,
	}))

	entry, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "k", entry.Key)
	assert.JSONEq(t, `{"n":42}`, string(entry.Value))
	assert.True(t, entry.CachedAt.Equal(cachedAt))
}

func TestBadgerStoreMissingKey(t *testing.T) {
	ctx := context.Background()
	store := newTestBadger(t, 10)

	_, err := store.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBadgerStoreCapacityDropsTail(t *testing.T) {
	ctx := context.Background()
	store := newTestBadger(t, 3)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Put(ctx, &Entry{
			Key:      fmt.Sprintf("k%d", i),
			Value:    json.RawMessage(`"v"`),
			CachedAt: time.Now(),
		}))
	}

	count, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// most recent three survive, the first two fell off the tail
	for i := 2; i < 5; i++ {
		_, err := store.Get(ctx, fmt.Sprintf("k%d", i))
		assert.NoError(t, err, "k%d should survive", i)
	}
	for i := 0; i < 2; i++ {
		_, err := store.Get(ctx, fmt.Sprintf("k%d", i))
		assert.ErrorIs(t, err, ErrNotFound, "k%d should be evicted", i)
	}
}

func TestBadgerStoreRewritingKeyKeepsSingleIndexRow(t *testing.T) {
	ctx := context.Background()
	store := newTestBadger(t, 3)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Put(ctx, &Entry{
			Key:      "same",
			Value:    json.RawMessage(fmt.Sprintf("%d", i)),
			CachedAt: time.Now(),
		}))
	}

	count, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	entry, err := store.Get(ctx, "same")
	require.NoError(t, err)
	assert.Equal(t, "4", string(entry.Value))
}

func TestBadgerStoreDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	store := newTestBadger(t, 10)

	require.NoError(t, store.Put(ctx, &Entry{Key: "a", Value: json.RawMessage(`"v"`), CachedAt: time.Now()}))
	require.NoError(t, store.Delete(ctx, "a"))
	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, &Entry{Key: "b", Value: json.RawMessage(`"v"`), CachedAt: time.Now()}))
	require.NoError(t, store.Clear(ctx))
	count, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestBadgerStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewBadgerStore(dir, 10)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, &Entry{Key: "k", Value: json.RawMessage(`"v"`), CachedAt: time.Now()}))
	require.NoError(t, store.Close())

	reopened, err := NewBadgerStore(dir, 10)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	entry, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `"v"`, string(entry.Value))
}
