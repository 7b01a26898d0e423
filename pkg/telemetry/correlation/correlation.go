package correlation

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"
)

// MaxIDLength bounds inbound correlation ids; longer values are replaced.
const MaxIDLength = 64

// InboundHeaders are checked in order for a caller supplied id.
var InboundHeaders = []string{"X-Request-Id", "X-Correlation-Id"}

// correlationKey is an unexported type for context keys within this package.
type correlationKey struct{}

// ExtractCorrelationID fetches a correlation ID from the context if present.
func ExtractCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx.Value(correlationKey{}).(string); ok {
		return val
	}
	return ""
}

// ContextWithCorrelationID sets the correlation ID onto the context.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// EnsureCorrelationID guarantees a correlation ID on the context, generating one when missing.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	cid := ExtractCorrelationID(ctx)
	if cid == "" {
		cid = ulid.Make().String()
	}
	return ContextWithCorrelationID(ctx, cid), cid
}

// FromHeaders returns the first acceptable inbound id, or "".
func FromHeaders(h http.Header) string {
	for _, name := range InboundHeaders {
		v := strings.TrimSpace(h.Get(name))
		if v != "" && len(v) <= MaxIDLength {
			return v
		}
	}
	return ""
}

// ContextWithTraceparent seeds a remote span from a W3C traceparent header,
// keeping the caller's trace flags.
func ContextWithTraceparent(ctx context.Context, header string) context.Context {
	parts := strings.Split(strings.TrimSpace(header), "-")
	if len(parts) != 4 || len(parts[3]) != 2 {
		return ctx
	}
	flags, err := hex.DecodeString(parts[3])
	if err != nil {
		return ctx
	}
	return contextWithSpan(ctx, parts[1], parts[2], trace.TraceFlags(flags[0]))
}

// ContextWithRemoteSpan seeds the context with a remote span if valid identifiers are provided.
func ContextWithRemoteSpan(ctx context.Context, traceIDHex, spanIDHex string) context.Context {
	return contextWithSpan(ctx, traceIDHex, spanIDHex, trace.FlagsSampled)
}

func contextWithSpan(ctx context.Context, traceIDHex, spanIDHex string, flags trace.TraceFlags) context.Context {
	if traceIDHex == "" || spanIDHex == "" {
		return ctx
	}

	traceID, err := trace.TraceIDFromHex(traceIDHex)
	if err != nil {
		return ctx
	}
	spanID, err := trace.SpanIDFromHex(spanIDHex)
	if err != nil {
		return ctx
	}

	parent := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: flags, Remote: true})
	return trace.ContextWithSpanContext(ctx, parent)
}

// TraceID returns the hex trace id carried by ctx, or "".
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// Traceparent renders the span context carried by ctx as a traceparent
// header value, or "" when there is none.
func Traceparent(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return fmt.Sprintf("00-%s-%s-%s", sc.TraceID(), sc.SpanID(), sc.TraceFlags())
}
