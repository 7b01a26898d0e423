package travelclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrBreakerOpen is returned without touching the network while the circuit
// breaker rejects calls.
var ErrBreakerOpen = errors.New("travel api circuit open")

// ConfigurationError reports credentials that cannot be resolved.
type ConfigurationError struct {
	Environment Environment
	Missing     []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("travel api credentials missing for %s environment: %s", e.Environment, strings.Join(e.Missing, ", "))
}

// UpstreamAuthError reports a failed client-credentials exchange. Status is
// zero when no response was obtained.
type UpstreamAuthError struct {
	Status int
	Body   string
	Err    error
}

func (e *UpstreamAuthError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("token request error (%d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("token request failed: %v", e.Err)
}

func (e *UpstreamAuthError) Unwrap() error { return e.Err }

// ErrorKind tags UpstreamError so callers can switch on it exhaustively.
type ErrorKind string

const (
	// KindTransport means no response was obtained.
	KindTransport ErrorKind = "transport"
	// KindHTTP means the provider answered with a non-2xx status.
	KindHTTP ErrorKind = "http"
	// KindDecode means a 2xx body could not be decoded.
	KindDecode ErrorKind = "decode"
)

// UpstreamError keeps everything the provider sent back so the error mapper
// can decide what to expose.
type UpstreamError struct {
	Kind      ErrorKind
	Method    string
	Path      string
	RequestID string

	Status int
	Body   string
	JSON   any
	Header http.Header

	Err error
}

func (e *UpstreamError) Error() string {
	switch e.Kind {
	case KindTransport:
		return fmt.Sprintf("travel api %s %s: transport error: %v", e.Method, e.Path, e.Err)
	case KindDecode:
		return fmt.Sprintf("travel api %s %s: decode response: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("travel api %s %s: status %d", e.Method, e.Path, e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Timeout reports whether a transport failure was a deadline or network timeout.
func (e *UpstreamError) Timeout() bool {
	if e.Kind != KindTransport || e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// ProviderIssue is one entry of the provider's `errors` array.
type ProviderIssue struct {
	Status int    `json:"status,omitempty"`
	Code   int    `json:"code,omitempty"`
	Title  string `json:"title,omitempty"`
	Detail string `json:"detail,omitempty"`
	Source any    `json:"source,omitempty"`
}

// ProviderIssues extracts the provider's error list from the parsed body,
// best effort.
func (e *UpstreamError) ProviderIssues() []ProviderIssue {
	doc, ok := e.JSON.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := doc["errors"].([]any)
	if !ok {
		return nil
	}
	out := make([]ProviderIssue, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		issue := ProviderIssue{Source: m["source"]}
		if v, ok := m["status"].(float64); ok {
			issue.Status = int(v)
		}
		if v, ok := m["code"].(float64); ok {
			issue.Code = int(v)
		}
		issue.Title, _ = m["title"].(string)
		issue.Detail, _ = m["detail"].(string)
		out = append(out, issue)
	}
	return out
}
