package testhelper

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// TokenPath is where MockProvider serves client-credentials exchanges.
const TokenPath = "/v1/security/oauth2/token"

// RecordedRequest is a capability call as the provider saw it.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// MockProvider fakes the travel provider: a token endpoint plus whatever
// capability routes a test registers.
type MockProvider struct {
	Server *httptest.Server

	TokenRequests      atomic.Int64
	CapabilityRequests atomic.Int64

	// FailToken makes the token endpoint answer 401 invalid_client.
	FailToken atomic.Bool

	mu         sync.Mutex
	tokenDelay time.Duration
	expiresIn  int
	routes     map[string]http.HandlerFunc
	requests   []RecordedRequest
}

// NewMockProvider starts a provider that issues tokens "token-1", "token-2"...
// Unregistered capability routes answer 404 in the provider's error format.
func NewMockProvider(t *testing.T) *MockProvider {
	t.Helper()
	mock := &MockProvider{
		expiresIn: 1799,
		routes:    make(map[string]http.HandlerFunc),
	}
	mock.Server = httptest.NewServer(http.HandlerFunc(mock.serve))
	t.Cleanup(mock.Server.Close)
	return mock
}

// URL returns the base URL of the mock server.
func (m *MockProvider) URL() string {
	return m.Server.URL
}

// SetTokenDelay holds every token response for d, useful to pile up waiters.
func (m *MockProvider) SetTokenDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenDelay = d
}

// SetExpiresIn sets the lifetime reported for issued tokens, in seconds.
func (m *MockProvider) SetExpiresIn(seconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expiresIn = seconds
}

// Handle registers h for method and path.
func (m *MockProvider) Handle(method, path string, h http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[method+" "+path] = h
}

// HandleJSON registers a fixed JSON response.
func (m *MockProvider) HandleJSON(method, path string, status int, body string) {
	m.Handle(method, path, JSONResponse(status, body))
}

// Requests returns the capability calls received so far.
func (m *MockProvider) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent capability call.
func (m *MockProvider) LastRequest() (RecordedRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return RecordedRequest{}, false
	}
	return m.requests[len(m.requests)-1], true
}

// JSONResponse writes body with status.
func JSONResponse(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

// ProviderError renders the provider's {"errors":[...]} document.
func ProviderError(status int, code int, title, detail string) http.HandlerFunc {
	body, _ := json.Marshal(map[string]any{
		"errors": []map[string]any{{
			"status": status,
			"code":   code,
			"title":  title,
			"detail": detail,
		}},
	})
	return JSONResponse(status, string(body))
}

func (m *MockProvider) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == TokenPath {
		m.serveToken(w, r)
		return
	}

	m.CapabilityRequests.Add(1)
	body, _ := io.ReadAll(r.Body)

	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})
	h, ok := m.routes[r.Method+" "+r.URL.Path]
	m.mu.Unlock()

	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		ProviderError(http.StatusUnauthorized, 38190, "Invalid access token", "The access token provided in the Authorization header is invalid")(w, r)
		return
	}
	if !ok {
		ProviderError(http.StatusNotFound, 38196, "Resource not found", "The targeted resource doesn't exist")(w, r)
		return
	}
	h(w, r)
}

func (m *MockProvider) serveToken(w http.ResponseWriter, r *http.Request) {
	n := m.TokenRequests.Add(1)
	m.mu.Lock()
	delay, expiresIn := m.tokenDelay, m.expiresIn
	m.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if r.Method != http.MethodPost || r.ParseForm() != nil || r.PostForm.Get("grant_type") != "client_credentials" {
		JSONResponse(http.StatusBadRequest, `{"error":"invalid_request"}`)(w, r)
		return
	}
	if m.FailToken.Load() {
		JSONResponse(http.StatusUnauthorized, `{"error":"invalid_client","error_description":"Client credentials are invalid"}`)(w, r)
		return
	}
	JSONResponse(http.StatusOK, fmt.Sprintf(
		`{"type":"amadeusOAuth2Token","access_token":"token-%d","token_type":"Bearer","expires_in":%d,"state":"approved"}`,
		n, expiresIn,
	))(w, r)
}
