package travelclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/railzwaylabs/travel-gateway/pkg/authclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher hands out token-1, token-2... and can be held open via gate.
type fakeFetcher struct {
	calls     atomic.Int32
	gate      chan struct{}
	expiresIn time.Duration
	fail      atomic.Bool
}

func (f *fakeFetcher) ClientCredentialsToken(ctx context.Context) (*authclient.Token, error) {
	n := f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail.Load() {
		return nil, &authclient.TokenError{Status: http.StatusUnauthorized, Body: `{"error":"invalid_client"}`, Err: errors.New("unexpected status 401")}
	}
	exp := f.expiresIn
	if exp == 0 {
		exp = 30 * time.Minute
	}
	return &authclient.Token{AccessToken: fmt.Sprintf("token-%d", n), TokenType: "Bearer", ExpiresIn: exp}, nil
}

// waitForCalls blocks until the fetcher has been entered n times.
func waitForCalls(t *testing.T, f *fakeFetcher, n int32) {
	t.Helper()
	require.Eventually(t, func() bool { return f.calls.Load() >= n }, time.Second, time.Millisecond)
}

func TestTokenCache_CoalescesConcurrentRefresh(t *testing.T) {
	fetcher := &fakeFetcher{gate: make(chan struct{})}
	cache := NewTokenCache(fetcher, nil)

	const callers = 25
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = cache.GetAccessToken(context.Background(), "req")
		}(i)
	}

	waitForCalls(t, fetcher, 1)
	time.Sleep(20 * time.Millisecond)
	close(fetcher.gate)
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "token-1", tokens[i])
	}
}

func TestTokenCache_ReusesValidToken(t *testing.T) {
	fetcher := &fakeFetcher{}
	cache := NewTokenCache(fetcher, nil)

	for i := 0; i < 5; i++ {
		tok, err := cache.GetAccessToken(context.Background(), "req")
		require.NoError(t, err)
		assert.Equal(t, "token-1", tok)
	}
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestTokenCache_RefreshesInsideSkew(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	fetcher := &fakeFetcher{expiresIn: 120 * time.Second}
	cache := NewTokenCache(fetcher, nil, WithClock(clock))

	tok, err := cache.GetAccessToken(context.Background(), "req")
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)
	assert.Equal(t, now.Add(120*time.Second), cache.ExpiresAt())

	advance(59 * time.Second)
	tok, err = cache.GetAccessToken(context.Background(), "req")
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok)

	// exactly expiresAt - skew counts as expired
	advance(time.Second)
	tok, err = cache.GetAccessToken(context.Background(), "req")
	require.NoError(t, err)
	assert.Equal(t, "token-2", tok)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestTokenCache_FailureReachesAllWaitersAndAllowsRetry(t *testing.T) {
	fetcher := &fakeFetcher{gate: make(chan struct{})}
	fetcher.fail.Store(true)
	cache := NewTokenCache(fetcher, nil)

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = cache.GetAccessToken(context.Background(), "req")
		}(i)
	}
	waitForCalls(t, fetcher, 1)
	time.Sleep(20 * time.Millisecond)
	close(fetcher.gate)
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
	for _, err := range errs {
		var authErr *UpstreamAuthError
		require.True(t, errors.As(err, &authErr))
		assert.Equal(t, http.StatusUnauthorized, authErr.Status)
		assert.Contains(t, authErr.Body, "invalid_client")
	}
	assert.True(t, cache.ExpiresAt().IsZero())

	// the failed attempt does not stay in flight
	fetcher.fail.Store(false)
	tok, err := cache.GetAccessToken(context.Background(), "req")
	require.NoError(t, err)
	assert.Equal(t, "token-2", tok)
}

func TestTokenCache_CanceledCallerDoesNotFailOthers(t *testing.T) {
	fetcher := &fakeFetcher{gate: make(chan struct{})}
	cache := NewTokenCache(fetcher, nil)

	ctx, cancel := context.WithCancel(context.Background())
	canceledErr := make(chan error, 1)
	go func() {
		_, err := cache.GetAccessToken(ctx, "req-1")
		canceledErr <- err
	}()
	waitForCalls(t, fetcher, 1)

	other := make(chan string, 1)
	go func() {
		tok, err := cache.GetAccessToken(context.Background(), "req-2")
		assert.NoError(t, err)
		other <- tok
	}()

	cancel()
	select {
	case err := <-canceledErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("canceled caller kept waiting")
	}

	close(fetcher.gate)
	select {
	case tok := <-other:
		assert.Equal(t, "token-1", tok)
	case <-time.After(time.Second):
		t.Fatal("remaining waiter never got a token")
	}
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestTokenCache_RefreshTimeout(t *testing.T) {
	fetcher := &fakeFetcher{gate: make(chan struct{})}
	cache := NewTokenCache(fetcher, nil, WithRefreshTimeout(20*time.Millisecond))

	_, err := cache.GetAccessToken(context.Background(), "req")

	var authErr *UpstreamAuthError
	require.True(t, errors.As(err, &authErr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, authErr.Status)
}

func TestTokenCache_ClearForcesRefresh(t *testing.T) {
	fetcher := &fakeFetcher{}
	cache := NewTokenCache(fetcher, nil)

	_, err := cache.GetAccessToken(context.Background(), "req")
	require.NoError(t, err)

	cache.Clear()
	assert.True(t, cache.ExpiresAt().IsZero())

	tok, err := cache.GetAccessToken(context.Background(), "req")
	require.NoError(t, err)
	assert.Equal(t, "token-2", tok)
}

func TestTokenCache_InvalidateOnlyCurrentToken(t *testing.T) {
	fetcher := &fakeFetcher{}
	cache := NewTokenCache(fetcher, nil)

	tok, err := cache.GetAccessToken(context.Background(), "req")
	require.NoError(t, err)

	assert.False(t, cache.Invalidate("some-older-token"))
	assert.False(t, cache.ExpiresAt().IsZero())

	assert.True(t, cache.Invalidate(tok))
	assert.True(t, cache.ExpiresAt().IsZero())
	assert.False(t, cache.Invalidate(tok))
}
