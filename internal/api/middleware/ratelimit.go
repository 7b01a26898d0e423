package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/travel-gateway/internal/apierror"
	"github.com/railzwaylabs/travel-gateway/internal/config"
	"github.com/railzwaylabs/travel-gateway/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimit applies rule to every request in scope, keyed by the forwarded
// client address.
func RateLimit(limiter *ratelimit.Limiter, scope string, rule config.RateLimitRule, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := ratelimit.ClientIdentity(c.Request.Header)
		res := limiter.Check(identity, rule.Limit, rule.Window, scope)

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if res.OK {
			c.Next()
			return
		}

		retryAfter := int(time.Until(res.ResetAt).Round(time.Second) / time.Second)
		if retryAfter < 1 {
			retryAfter = 1
		}
		h.Set("Retry-After", strconv.Itoa(retryAfter))
		rateLimited.WithLabelValues(scope).Inc()

		requestID := GetRequestID(c)
		logger.Debug("rate_limited",
			zap.String("request_id", requestID),
			zap.String("scope", scope),
			zap.String("client", identity),
		)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.RateLimited(requestID, retryAfter))
	}
}
