package travelclient

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/railzwaylabs/travel-gateway/pkg/authclient"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTokenSkew keeps a token from being used when it would expire mid-flight.
	DefaultTokenSkew = 60 * time.Second

	defaultRefreshTimeout = 30 * time.Second
	refreshKey            = "client_credentials"
)

// TokenFetcher performs a single client-credentials exchange.
type TokenFetcher interface {
	ClientCredentialsToken(ctx context.Context) (*authclient.Token, error)
}

type cachedToken struct {
	accessToken string
	expiresAt   time.Time
}

// TokenCache owns the process bearer token. Reads are lock free; refreshes
// are coalesced so at most one exchange is in flight.
type TokenCache struct {
	fetcher        TokenFetcher
	logger         *zap.Logger
	now            func() time.Time
	skew           time.Duration
	refreshTimeout time.Duration

	token atomic.Pointer[cachedToken]
	group singleflight.Group
}

type TokenOption func(*TokenCache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TokenOption {
	return func(t *TokenCache) { t.now = now }
}

func WithSkew(skew time.Duration) TokenOption {
	return func(t *TokenCache) { t.skew = skew }
}

func WithRefreshTimeout(d time.Duration) TokenOption {
	return func(t *TokenCache) {
		if d > 0 {
			t.refreshTimeout = d
		}
	}
}

func NewTokenCache(fetcher TokenFetcher, logger *zap.Logger, opts ...TokenOption) *TokenCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &TokenCache{
		fetcher:        fetcher,
		logger:         logger,
		now:            time.Now,
		skew:           DefaultTokenSkew,
		refreshTimeout: defaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// GetAccessToken returns the cached token or joins/starts a refresh.
// A caller whose ctx ends stops waiting; the shared refresh keeps running
// for the remaining waiters.
func (t *TokenCache) GetAccessToken(ctx context.Context, requestID string) (string, error) {
	if tok, ok := t.cached(); ok {
		return tok, nil
	}

	ch := t.group.DoChan(refreshKey, func() (any, error) {
		return t.refresh(context.WithoutCancel(ctx), requestID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Clear discards the cached token; the next caller refreshes.
func (t *TokenCache) Clear() {
	t.token.Store(nil)
}

// Invalidate drops the cached token only if it is still the given one, so a
// stale 401 cannot discard a token issued after it.
func (t *TokenCache) Invalidate(accessToken string) bool {
	cur := t.token.Load()
	if cur == nil || cur.accessToken != accessToken {
		return false
	}
	return t.token.CompareAndSwap(cur, nil)
}

// ExpiresAt reports the expiry of the cached token, zero when none.
func (t *TokenCache) ExpiresAt() time.Time {
	if cur := t.token.Load(); cur != nil {
		return cur.expiresAt
	}
	return time.Time{}
}

func (t *TokenCache) cached() (string, bool) {
	cur := t.token.Load()
	if cur == nil {
		return "", false
	}
	if !t.now().Before(cur.expiresAt.Add(-t.skew)) {
		return "", false
	}
	return cur.accessToken, true
}

func (t *TokenCache) refresh(ctx context.Context, requestID string) (string, error) {
	// a refresh that finished between the caller's check and DoChan
	if tok, ok := t.cached(); ok {
		return tok, nil
	}

	ctx, cancel := context.WithTimeout(ctx, t.refreshTimeout)
	defer cancel()

	start := t.now()
	tok, err := t.fetcher.ClientCredentialsToken(ctx)
	if err != nil {
		tokenRefreshes.WithLabelValues("error").Inc()
		authErr := &UpstreamAuthError{Err: err}
		var te *authclient.TokenError
		if errors.As(err, &te) {
			authErr.Status = te.Status
			authErr.Body = te.Body
		}
		t.logger.Warn("token_refresh_failed",
			zap.String("request_id", requestID),
			zap.Int("status", authErr.Status),
			zap.Error(err),
		)
		return "", authErr
	}

	t.token.Store(&cachedToken{
		accessToken: tok.AccessToken,
		expiresAt:   start.Add(tok.ExpiresIn),
	})
	tokenRefreshes.WithLabelValues("ok").Inc()
	t.logger.Info("token_refreshed",
		zap.String("request_id", requestID),
		zap.Duration("expires_in", tok.ExpiresIn),
	)
	return tok.AccessToken, nil
}
