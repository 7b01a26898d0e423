package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	if strings.TrimSpace(cfg.TokenPath) == "" {
		cfg.TokenPath = DefaultTokenPath
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Token is a freshly issued bearer token.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
}

// TokenError describes a failed exchange. Status is zero when the provider
// could not be reached.
type TokenError struct {
	Status int
	Body   string
	Err    error
}

func (e *TokenError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("token request error (%d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("token request failed: %v", e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	State            string `json:"state"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ClientCredentialsToken performs one client-credentials grant. It never
// caches; callers coalesce and cache on top of it.
func (c *Client) ClientCredentialsToken(ctx context.Context) (*Token, error) {
	if c == nil {
		return nil, &TokenError{Err: fmt.Errorf("auth client not configured")}
	}
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	if base == "" {
		return nil, &TokenError{Err: fmt.Errorf("auth service url missing")}
	}
	clientID := strings.TrimSpace(c.cfg.ClientID)
	clientSecret := strings.TrimSpace(c.cfg.ClientSecret)
	if clientID == "" || clientSecret == "" {
		return nil, &TokenError{Err: fmt.Errorf("auth service client credentials missing")}
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)

	tokenURL := base + "/" + strings.TrimLeft(c.cfg.TokenPath, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &TokenError{Err: fmt.Errorf("build token request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TokenError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TokenError{Status: resp.StatusCode, Err: fmt.Errorf("read token response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TokenError{Status: resp.StatusCode, Body: string(raw), Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var out tokenResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &TokenError{Status: resp.StatusCode, Body: string(raw), Err: fmt.Errorf("decode token response: %w", err)}
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		if out.Error != "" {
			return nil, &TokenError{Status: resp.StatusCode, Body: string(raw), Err: fmt.Errorf("token error: %s", out.ErrorDescription)}
		}
		return nil, &TokenError{Status: resp.StatusCode, Body: string(raw), Err: fmt.Errorf("token response missing access_token")}
	}
	if out.ExpiresIn <= 0 {
		// body carries a live token here, keep it out of the error
		return nil, &TokenError{Status: resp.StatusCode, Err: fmt.Errorf("invalid token response: expires_in is %d (must be > 0)", out.ExpiresIn)}
	}

	return &Token{
		AccessToken: out.AccessToken,
		TokenType:   out.TokenType,
		ExpiresIn:   time.Duration(out.ExpiresIn) * time.Second,
	}, nil
}
