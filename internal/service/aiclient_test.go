package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapdish/snapdish-backend/internal/cache"
	"github.com/snapdish/snapdish-backend/internal/types"
)

// chatResponse wraps inner content in the endpoint's wire format
func chatResponse(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	})
	require.NoError(t, err)
	return body
}

// newAIServer serves canned content and counts requests
func newAIServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func contentServer(t *testing.T, content string) (*httptest.Server, *int32) {
	t.Helper()
	return newAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(chatResponse(t, content))
	})
}

// fastRetry keeps tests quick
func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		Delay:       time.Millisecond,
		Retryable:   types.IsRetryable,
	}
}

func testAIClient(url string, attempts int) *AIClient {
	return NewAIClient(url, "test-key", "test-model", fastRetry(attempts), StaticConnectivity(StatusOnline))
}

func newServiceCache(t *testing.T) *cache.ResultCache {
	t.Helper()
	disk, err := cache.NewBadgerStore(t.TempDir(), cache.DiskCapacity)
	require.NoError(t, err)
	rc := cache.NewResultCache("test", disk, cache.ResultTTL)
	t.Cleanup(func() { _ = rc.Close() })
	return rc
}

func TestChatReturnsInnerContent(t *testing.T) {
	srv, calls := contentServer(t, `{"hello":"world"}`)

	content, err := testAIClient(srv.URL, 1).Chat(context.Background(),
		[]Message{{Role: "user", Content: "hi"}}, 100, 0.5)
	require.NoError(t, err)
	assert.Equal(t, `{"hello":"world"}`, content)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestChatSendsAuthAndModel(t *testing.T) {
	srv, _ := newAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, 100, req.MaxTokens)
		_, _ = w.Write(chatResponse(t, "ok"))
	})

	_, err := testAIClient(srv.URL, 1).Chat(context.Background(),
		[]Message{{Role: "user", Content: "hi"}}, 100, 0.5)
	require.NoError(t, err)
}

func TestChatOfflineFailsFast(t *testing.T) {
	srv, calls := contentServer(t, "unused")

	client := NewAIClient(srv.URL, "k", "m", fastRetry(3), StaticConnectivity(StatusOffline))
	_, err := client.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, 100, 0.5)

	var netErr *types.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, types.NetworkNoConnection, netErr.Kind)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls), "offline must not touch the network")
}

func TestChatRetriesServerErrors(t *testing.T) {
	var served int32
	srv, calls := newAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&served, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(chatResponse(t, "recovered"))
	})

	content, err := testAIClient(srv.URL, 3).Chat(context.Background(),
		[]Message{{Role: "user", Content: "hi"}}, 100, 0.5)
	require.NoError(t, err)
	assert.Equal(t, "recovered", content)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestChatDoesNotRetryAuthFailures(t *testing.T) {
	srv, calls := newAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := testAIClient(srv.URL, 3).Chat(context.Background(),
		[]Message{{Role: "user", Content: "hi"}}, 100, 0.5)

	var netErr *types.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, types.NetworkAuthFailure, netErr.Kind)
	assert.False(t, netErr.Retryable())
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "auth failures are permanent")
}

func TestChatClassifiesRateLimit(t *testing.T) {
	srv, calls := newAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := testAIClient(srv.URL, 2).Chat(context.Background(),
		[]Message{{Role: "user", Content: "hi"}}, 100, 0.5)

	var netErr *types.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, types.NetworkRateLimited, netErr.Kind)
	assert.True(t, netErr.Retryable())
	assert.Equal(t, int32(2), atomic.LoadInt32(calls), "rate limits are retried")
}

func TestChatEmptyChoices(t *testing.T) {
	srv, _ := newAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := testAIClient(srv.URL, 1).Chat(context.Background(),
		[]Message{{Role: "user", Content: "hi"}}, 100, 0.5)

	var procErr *types.ProcessingError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, types.ProcessingServiceFailure, procErr.Kind)
}

func TestRetryPolicyStopsOnPermanentError(t *testing.T) {
	policy := fastRetry(5)

	var attempts int32
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		atomic.AddInt32(&attempts, 1)
		return types.NewValidationError("field", "bad input")
	})

	var validationErr *types.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestRetryPolicyExhaustsAttempts(t *testing.T) {
	policy := fastRetry(3)

	var attempts int32
	err := policy.Do(context.Background(), func(ctx context.Context) error {
		atomic.AddInt32(&attempts, 1)
		return &types.NetworkError{Kind: types.NetworkServerError, Message: "still down"}
	})

	var netErr *types.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestRetryPolicyRespectsContext(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 10, Delay: time.Hour, Retryable: types.IsRetryable}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := policy.Do(ctx, func(ctx context.Context) error {
		return &types.NetworkError{Kind: types.NetworkTimeout}
	})
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "cancellation must cut the retry delay short")
}
