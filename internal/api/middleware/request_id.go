package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/travel-gateway/pkg/telemetry/correlation"
)

const requestIDKey = "request_id"

// RequestID honors a caller supplied x-request-id / x-correlation-id of at
// most 64 characters and otherwise assigns one from generate. The id is
// echoed back and stored on both the gin and the request context.
func RequestID(generate func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := correlation.FromHeaders(c.Request.Header)
		if id == "" {
			id = generate()
		}

		ctx := correlation.ContextWithCorrelationID(c.Request.Context(), id)
		if tp := c.GetHeader("Traceparent"); tp != "" {
			ctx = correlation.ContextWithTraceparent(ctx, tp)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Set(requestIDKey, id)
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
