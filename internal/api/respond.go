package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/travel-gateway/internal/api/middleware"
	"github.com/railzwaylabs/travel-gateway/internal/api/validation"
	"github.com/railzwaylabs/travel-gateway/internal/apierror"
	"github.com/railzwaylabs/travel-gateway/pkg/travelclient"
	"go.uber.org/zap"
)

// ok writes {ok:true, requestId, ...fields}.
func (r *Router) ok(c *gin.Context, fields gin.H) {
	body := gin.H{
		"ok":        true,
		"requestId": middleware.GetRequestID(c),
	}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// invalid rejects input without touching the provider.
func (r *Router) invalid(c *gin.Context, verr *validation.Error) {
	requestID := middleware.GetRequestID(c)
	r.logger.Debug("request_invalid",
		zap.String("request_id", requestID),
		zap.String("path", c.FullPath()),
		zap.Int("issues", len(verr.Issues)),
	)
	c.AbortWithStatusJSON(http.StatusBadRequest, apierror.Invalid(requestID, verr.Message, verr.Issues))
}

// fail normalizes a service error and writes it.
func (r *Router) fail(c *gin.Context, err error) {
	requestID := middleware.GetRequestID(c)
	out := r.mapper.Map(err, requestID)

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("code", out.Code),
		zap.Int("status", out.Status),
		zap.Error(err),
	}
	var cfgErr *travelclient.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		r.logger.Error("travel_api_misconfigured", fields...)
	case out.Status >= http.StatusInternalServerError:
		r.logger.Warn("travel_api_failed", fields...)
	default:
		r.logger.Info("travel_api_rejected", fields...)
	}

	if out.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(out.RetryAfter))
	}
	c.AbortWithStatusJSON(out.Status, out)
}
