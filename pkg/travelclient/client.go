package travelclient

import (
	"net/http"

	"github.com/railzwaylabs/travel-gateway/pkg/authclient"
	"go.uber.org/zap"
)

// Client is the authenticated gateway to the travel provider. One instance
// is shared by every inbound request.
type Client struct {
	cfg     Config
	creds   Credentials
	http    *http.Client
	tokens  *TokenCache
	retry   RetryPolicy
	limiter *RateLimiter
	breaker CircuitBreaker
	logger  *zap.Logger
}

// NewFromEnv resolves credentials and transport settings from the process
// environment.
func NewFromEnv(logger *zap.Logger) (*Client, error) {
	creds, err := ResolveCredentials(nil)
	if err != nil {
		return nil, err
	}
	cfg := LoadFromEnv()
	tokens := NewTokenCache(NewAuthClient(creds, cfg), logger)
	return New(cfg, creds, tokens, logger), nil
}

// NewAuthClient builds the token endpoint client for creds.
func NewAuthClient(creds Credentials, cfg Config) *authclient.Client {
	return authclient.New(authclient.Config{
		BaseURL:      creds.BaseURL,
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Timeout:      cfg.Timeout,
	})
}

func New(cfg Config, creds Credentials, tokens *TokenCache, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		creds:  creds,
		http:   &http.Client{Timeout: cfg.Timeout},
		tokens: tokens,
		retry: RetryPolicy{
			MaxRetries: cfg.RetryCount,
			BaseDelay:  cfg.RetryDelay,
		},
		limiter: NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		breaker: NewCircuitBreaker(cfg, logger),
		logger:  logger,
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

func (c *Client) Tokens() *TokenCache { return c.tokens }

func (c *Client) Credentials() Credentials { return c.creds }

func (c *Client) Config() Config { return c.cfg }
