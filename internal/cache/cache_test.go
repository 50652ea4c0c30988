package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapdish/snapdish-backend/internal/types"
)

func newTestCache(t *testing.T, ttl time.Duration) *ResultCache {
	disk, err := NewBadgerStore(t.TempDir(), DiskCapacity)
	require.NoError(t, err)
	rc := NewResultCache("test", disk, ttl)
	t.Cleanup(func() { _ = rc.Close() })
	return rc
}

func TestGetMissThenPut(t *testing.T) {
	ctx := context.Background()
	rc := newTestCache(t, ResultTTL)

	_, ok := rc.Get(ctx, "missing")
	assert.False(t, ok)

	require.NoError(t, rc.Put(ctx, "k", json.RawMessage(`{"a":1}`)))

	value, ok := rc.Get(ctx, "k")
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(value))
}

func TestExpiredEntryReadsAsMiss(t *testing.T) {
	ctx := context.Background()
	rc := newTestCache(t, 50*time.Millisecond)

	require.NoError(t, rc.Put(ctx, "k", json.RawMessage(`"v"`)))

	_, ok := rc.Get(ctx, "k")
	assert.True(t, ok)

	time.Sleep(80 * time.Millisecond)

	_, ok = rc.Get(ctx, "k")
	assert.False(t, ok, "entry past its TTL must read as a miss")
}

func TestDiskHitPromotesToMemory(t *testing.T) {
	ctx := context.Background()
	disk, err := NewBadgerStore(t.TempDir(), DiskCapacity)
	require.NoError(t, err)
	rc := NewResultCache("test", disk, ResultTTL)
	defer func() { _ = rc.Close() }()

	// write behind the memory tier's back
	entry := &Entry{Key: "k", Value: json.RawMessage(`"v"`), CachedAt: time.Now()}
	require.NoError(t, disk.Put(ctx, entry))

	_, ok := rc.Get(ctx, "k")
	require.True(t, ok)

	// now present in memory
	_, err = rc.memory.Get(ctx, "k")
	assert.NoError(t, err)
}

func TestGetOrFetchSharesOneFetch(t *testing.T) {
	ctx := context.Background()
	rc := newTestCache(t, ResultTTL)

	var calls int32
	fetch := func(ctx context.Context) (json.RawMessage, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(100 * time.Millisecond)
		return json.RawMessage(`"result"`), nil
	}

	var wg sync.WaitGroup
	results := make([]json.RawMessage, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			value, _, err := rc.GetOrFetch(ctx, "same-key", fetch)
			require.NoError(t, err)
			results[i] = value
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "concurrent callers must share one fetch")
	assert.Equal(t, string(results[0]), string(results[1]))
}

func TestGetOrFetchCachesSuccess(t *testing.T) {
	ctx := context.Background()
	rc := newTestCache(t, ResultTTL)

	var calls int32
	fetch := func(ctx context.Context) (json.RawMessage, error) {
		atomic.AddInt32(&calls, 1)
		return json.RawMessage(`"v"`), nil
	}

	_, fromCache, err := rc.GetOrFetch(ctx, "k", fetch)
	require.NoError(t, err)
	assert.False(t, fromCache)

	_, fromCache, err = rc.GetOrFetch(ctx, "k", fetch)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetOrFetchDoesNotCacheFailure(t *testing.T) {
	ctx := context.Background()
	rc := newTestCache(t, ResultTTL)

	boom := errors.New("boom")
	var calls int32
	fetch := func(ctx context.Context) (json.RawMessage, error) {
		atomic.AddInt32(&calls, 1)
		return nil, boom
	}

	_, _, err := rc.GetOrFetch(ctx, "k", fetch)
	assert.ErrorIs(t, err, boom)

	_, _, err = rc.GetOrFetch(ctx, "k", fetch)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "failures must not be cached")
}

func TestCloseFailsPendingWaiters(t *testing.T) {
	ctx := context.Background()
	rc := newTestCache(t, ResultTTL)

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _, _ = rc.GetOrFetch(ctx, "k", func(ctx context.Context) (json.RawMessage, error) {
			close(started)
			<-release
			return json.RawMessage(`"late"`), nil
		})
	}()
	<-started

	waiterErr := make(chan error, 1)
	go func() {
		_, _, err := rc.GetOrFetch(ctx, "k", func(ctx context.Context) (json.RawMessage, error) {
			return nil, errors.New("should not run")
		})
		waiterErr <- err
	}()

	// give the waiter a moment to join the pending call
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, rc.Close())
	close(release)

	select {
	case err := <-waiterErr:
		assert.ErrorIs(t, err, types.ErrDisposed)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not released by Close")
	}

	_, _, err := rc.GetOrFetch(ctx, "other", func(ctx context.Context) (json.RawMessage, error) {
		return json.RawMessage(`"v"`), nil
	})
	assert.ErrorIs(t, err, types.ErrDisposed)
}

func TestClearEmptiesBothTiers(t *testing.T) {
	ctx := context.Background()
	rc := newTestCache(t, ResultTTL)

	require.NoError(t, rc.Put(ctx, "k", json.RawMessage(`"v"`)))
	require.NoError(t, rc.Clear(ctx))

	_, ok := rc.Get(ctx, "k")
	assert.False(t, ok)

	// clearing again is fine
	assert.NoError(t, rc.Clear(ctx))
}
