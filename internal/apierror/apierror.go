// Package apierror turns every failure that leaves the access layer into one
// response shape with a stable code.
package apierror

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/railzwaylabs/travel-gateway/pkg/travelclient"
)

const (
	CodeInvalidRequest          = "INVALID_REQUEST"
	CodeUpstreamBadRequest      = "UPSTREAM_BAD_REQUEST"
	CodeUpstreamAuthFailed      = "UPSTREAM_AUTH_FAILED"
	CodeNotFound                = "NOT_FOUND"
	CodeConflict                = "CONFLICT"
	CodeUpstreamUnprocessable   = "UPSTREAM_UNPROCESSABLE"
	CodeRateLimited             = "RATE_LIMITED"
	CodeUpstreamUnavailable     = "UPSTREAM_UNAVAILABLE"
	CodeUpstreamClientError     = "UPSTREAM_CLIENT_ERROR"
	CodeUpstreamError           = "UPSTREAM_ERROR"
	CodeUpstreamTimeout         = "UPSTREAM_TIMEOUT"
	CodeUpstreamBadResponse     = "UPSTREAM_BAD_RESPONSE"
	CodeUpstreamAuthUnavailable = "UPSTREAM_AUTH_UNAVAILABLE"
	CodeConfiguration           = "CONFIGURATION_ERROR"
	CodeRequestCanceled         = "REQUEST_CANCELED"
	CodeInternal                = "INTERNAL_ERROR"
)

// StatusClientClosedRequest is the non-standard status for a caller that went away.
const StatusClientClosedRequest = 499

// Issue is one validation failure.
type Issue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

// Details is only populated in diagnostic mode.
type Details struct {
	UpstreamStatus int                          `json:"upstreamStatus,omitempty"`
	UpstreamBody   string                       `json:"upstreamBody,omitempty"`
	ProviderErrors []travelclient.ProviderIssue `json:"providerErrors,omitempty"`
	Cause          string                       `json:"cause,omitempty"`
}

// NormalizedError is the only error body callers ever see.
type NormalizedError struct {
	OK         bool     `json:"ok"`
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Status     int      `json:"status"`
	RequestID  string   `json:"requestId"`
	RetryAfter int      `json:"retryAfter,omitempty"`
	Issues     []Issue  `json:"issues,omitempty"`
	Details    *Details `json:"details,omitempty"`
}

func (e *NormalizedError) Error() string {
	return e.Code + ": " + e.Message
}

// Invalid builds the 400 returned for input that failed validation.
func Invalid(requestID, message string, issues []Issue) *NormalizedError {
	if message == "" {
		message = "Request validation failed"
	}
	return &NormalizedError{
		Code:      CodeInvalidRequest,
		Message:   message,
		Status:    http.StatusBadRequest,
		RequestID: requestID,
		Issues:    issues,
	}
}

// RateLimited builds the 429 returned by the local limiter.
func RateLimited(requestID string, retryAfter int) *NormalizedError {
	return &NormalizedError{
		Code:       CodeRateLimited,
		Message:    "Too many requests, please slow down",
		Status:     http.StatusTooManyRequests,
		RequestID:  requestID,
		RetryAfter: retryAfter,
	}
}

type statusMapping struct {
	code    string
	message string
	status  int
}

var httpMapping = map[int]statusMapping{
	http.StatusBadRequest:          {CodeUpstreamBadRequest, "The travel provider rejected the request", http.StatusBadRequest},
	http.StatusUnauthorized:        {CodeUpstreamAuthFailed, "The travel provider rejected our credentials", http.StatusUnauthorized},
	http.StatusForbidden:           {CodeUpstreamAuthFailed, "Access to this travel resource is denied", http.StatusForbidden},
	http.StatusNotFound:            {CodeNotFound, "The requested resource was not found", http.StatusNotFound},
	http.StatusConflict:            {CodeConflict, "The request conflicts with the current resource state", http.StatusConflict},
	http.StatusUnprocessableEntity: {CodeUpstreamUnprocessable, "The travel provider could not process the request", http.StatusUnprocessableEntity},
	http.StatusTooManyRequests:     {CodeRateLimited, "The travel provider is rate limiting requests", http.StatusTooManyRequests},
	http.StatusInternalServerError: {CodeUpstreamUnavailable, "The travel provider is temporarily unavailable", http.StatusServiceUnavailable},
	http.StatusBadGateway:          {CodeUpstreamUnavailable, "The travel provider is temporarily unavailable", http.StatusServiceUnavailable},
	http.StatusServiceUnavailable:  {CodeUpstreamUnavailable, "The travel provider is temporarily unavailable", http.StatusServiceUnavailable},
	http.StatusGatewayTimeout:      {CodeUpstreamUnavailable, "The travel provider is temporarily unavailable", http.StatusServiceUnavailable},
}

// Mapper converts errors into NormalizedError. Diagnostics exposes the raw
// upstream body; keep it off outside of debugging.
type Mapper struct {
	Diagnostics bool
}

func NewMapper(diagnostics bool) *Mapper {
	return &Mapper{Diagnostics: diagnostics}
}

// Map never returns nil for a non-nil err.
func (m *Mapper) Map(err error, requestID string) *NormalizedError {
	if err == nil {
		return nil
	}

	var normalized *NormalizedError
	if errors.As(err, &normalized) {
		out := *normalized
		if out.RequestID == "" {
			out.RequestID = requestID
		}
		return &out
	}

	var (
		upErr   *travelclient.UpstreamError
		authErr *travelclient.UpstreamAuthError
		cfgErr  *travelclient.ConfigurationError
	)

	var out *NormalizedError
	switch {
	case errors.As(err, &cfgErr):
		out = &NormalizedError{Code: CodeConfiguration, Message: "The travel integration is not configured", Status: http.StatusInternalServerError}
	case errors.As(err, &authErr):
		out = &NormalizedError{Code: CodeUpstreamAuthUnavailable, Message: "Could not authenticate with the travel provider", Status: http.StatusBadGateway}
		if m.Diagnostics {
			out.Details = &Details{UpstreamStatus: authErr.Status, UpstreamBody: authErr.Body, Cause: authErr.Error()}
		}
	case errors.As(err, &upErr):
		out = m.mapUpstream(upErr)
	case errors.Is(err, context.Canceled):
		out = &NormalizedError{Code: CodeRequestCanceled, Message: "The request was canceled", Status: StatusClientClosedRequest}
	case errors.Is(err, context.DeadlineExceeded):
		out = &NormalizedError{Code: CodeUpstreamTimeout, Message: "The travel provider did not respond in time", Status: http.StatusGatewayTimeout}
	default:
		out = &NormalizedError{Code: CodeInternal, Message: "An internal error occurred", Status: http.StatusInternalServerError}
		if m.Diagnostics {
			out.Details = &Details{Cause: err.Error()}
		}
	}
	out.RequestID = requestID
	return out
}

func (m *Mapper) mapUpstream(e *travelclient.UpstreamError) *NormalizedError {
	switch e.Kind {
	case travelclient.KindTransport:
		out := &NormalizedError{Code: CodeUpstreamUnavailable, Message: "Unable to reach the travel provider", Status: http.StatusBadGateway}
		switch {
		case errors.Is(e.Err, travelclient.ErrBreakerOpen):
			out.Status = http.StatusServiceUnavailable
			out.Message = "The travel provider is temporarily unavailable"
		case errors.Is(e.Err, context.Canceled):
			out = &NormalizedError{Code: CodeRequestCanceled, Message: "The request was canceled", Status: StatusClientClosedRequest}
		case e.Timeout():
			out = &NormalizedError{Code: CodeUpstreamTimeout, Message: "The travel provider did not respond in time", Status: http.StatusGatewayTimeout}
		}
		if m.Diagnostics {
			out.Details = &Details{Cause: e.Error()}
		}
		return out
	case travelclient.KindDecode:
		out := &NormalizedError{Code: CodeUpstreamBadResponse, Message: "The travel provider returned an unreadable response", Status: http.StatusBadGateway}
		if m.Diagnostics {
			out.Details = &Details{UpstreamStatus: e.Status, UpstreamBody: e.Body, Cause: e.Error()}
		}
		return out
	}

	var out *NormalizedError
	if mapping, ok := httpMapping[e.Status]; ok {
		out = &NormalizedError{Code: mapping.code, Message: mapping.message, Status: mapping.status}
	} else if e.Status >= 400 && e.Status < 500 {
		out = &NormalizedError{Code: CodeUpstreamClientError, Message: "The travel provider rejected the request", Status: e.Status}
	} else {
		out = &NormalizedError{Code: CodeUpstreamError, Message: "The travel provider returned an unexpected error", Status: http.StatusBadGateway}
	}

	if out.Code == CodeRateLimited || out.Code == CodeUpstreamUnavailable {
		if v, err := strconv.Atoi(e.Header.Get("Retry-After")); err == nil && v > 0 {
			out.RetryAfter = v
		}
	}
	if m.Diagnostics {
		out.Details = &Details{
			UpstreamStatus: e.Status,
			UpstreamBody:   e.Body,
			ProviderErrors: e.ProviderIssues(),
		}
	}
	return out
}
