package travelclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/railzwaylabs/travel-gateway/pkg/telemetry/correlation"
	"go.uber.org/zap"
)

// UpstreamRequest describes one outbound call.
type UpstreamRequest struct {
	// Operation labels metrics; Path may contain ids and is not bounded.
	Operation string
	Method    string
	Path      string
	Query     map[string]any
	Body      any
	RequestID string
}

// Call performs req with the cached bearer token and decodes a 2xx body into
// out. An empty 2xx body decodes as {}.
func (c *Client) Call(ctx context.Context, req UpstreamRequest, out any) error {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.RequestID == "" {
		ctx, req.RequestID = correlation.EnsureCorrelationID(ctx)
	}
	safe := req.Method == http.MethodGet

	return c.retry.Do(ctx, safe, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return &UpstreamError{Kind: KindTransport, Method: req.Method, Path: req.Path, RequestID: req.RequestID, Err: err}
		}
		err := c.breaker.Execute(func() error {
			return c.doRequest(ctx, req, out)
		})
		if errors.Is(err, ErrBreakerOpen) {
			return &UpstreamError{Kind: KindTransport, Method: req.Method, Path: req.Path, RequestID: req.RequestID, Err: err}
		}
		return err
	})
}

func (c *Client) doRequest(ctx context.Context, req UpstreamRequest, out any) error {
	token, err := c.tokens.GetAccessToken(ctx, req.RequestID)
	if err != nil {
		return err
	}

	target := c.creds.BaseURL + "/" + strings.TrimLeft(req.Path, "/")
	query, keys := EncodeQuery(req.Query)
	if query != "" {
		target += "?" + query
	}

	var reqBody io.Reader
	hasBody := req.Body != nil
	if hasBody {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", req.Path, err)
		}
		reqBody = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reqBody)
	if err != nil {
		return fmt.Errorf("build %s request: %w", req.Path, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/json")
	if hasBody {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.RequestID != "" {
		httpReq.Header.Set("X-Request-Id", req.RequestID)
	}
	if tp := correlation.Traceparent(ctx); tp != "" {
		httpReq.Header.Set("Traceparent", tp)
	}
	traceID := correlation.TraceID(ctx)

	c.logger.Info("upstream_call_start",
		zap.String("request_id", req.RequestID),
		zap.String("trace_id", traceID),
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Bool("has_body", hasBody),
		zap.Strings("query_keys", keys),
	)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		duration := time.Since(start)
		upstreamDuration.WithLabelValues(req.Operation, req.Method, "error").Observe(duration.Seconds())
		c.logger.Warn("upstream_call_end",
			zap.String("request_id", req.RequestID),
			zap.String("trace_id", traceID),
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return &UpstreamError{Kind: KindTransport, Method: req.Method, Path: req.Path, RequestID: req.RequestID, Err: err}
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	duration := time.Since(start)
	upstreamDuration.WithLabelValues(req.Operation, req.Method, strconv.Itoa(resp.StatusCode)).Observe(duration.Seconds())
	c.logger.Info("upstream_call_end",
		zap.String("request_id", req.RequestID),
		zap.String("trace_id", traceID),
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
	)
	if readErr != nil {
		return &UpstreamError{Kind: KindTransport, Method: req.Method, Path: req.Path, RequestID: req.RequestID, Status: resp.StatusCode, Err: readErr}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			// provider revoked the token ahead of its expiry
			c.tokens.Invalidate(token)
		}
		upErr := &UpstreamError{
			Kind:      KindHTTP,
			Method:    req.Method,
			Path:      req.Path,
			RequestID: req.RequestID,
			Status:    resp.StatusCode,
			Body:      string(raw),
			Header:    resp.Header.Clone(),
		}
		var parsed any
		if json.Unmarshal(raw, &parsed) == nil {
			upErr.JSON = parsed
		}
		return upErr
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &UpstreamError{
			Kind:      KindDecode,
			Method:    req.Method,
			Path:      req.Path,
			RequestID: req.RequestID,
			Status:    resp.StatusCode,
			Body:      string(raw),
			Err:       err,
		}
	}
	return nil
}

// EncodeQuery renders the defined parameters of q and returns the sorted
// keys that made it in. Nil pointers, empty strings and empty slices are
// treated as undefined.
func EncodeQuery(q map[string]any) (string, []string) {
	values := url.Values{}
	for k, v := range q {
		s, ok := queryValue(v)
		if !ok {
			continue
		}
		values.Set(k, s)
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return values.Encode(), keys
}

func queryValue(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		s := rv.String()
		return s, s != ""
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	case reflect.Slice, reflect.Array:
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if s, ok := queryValue(rv.Index(i).Interface()); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ","), len(parts) > 0
	}
	return fmt.Sprint(rv.Interface()), true
}
