package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/travel-gateway/internal/api/middleware"
	"go.uber.org/zap"
)

// TokenStatus reports whether an access token is cached. The token itself is
// never returned.
func (r *Router) TokenStatus(c *gin.Context) {
	creds := r.client.Credentials()
	data := gin.H{
		"environment": string(creds.Environment),
		"baseUrl":     creds.BaseURL,
		"cached":      false,
	}
	if exp := r.client.Tokens().ExpiresAt(); !exp.IsZero() {
		data["cached"] = true
		data["expiresAt"] = exp.UTC().Format(time.RFC3339)
		data["expiresIn"] = int(time.Until(exp).Seconds())
	}
	r.ok(c, gin.H{"data": data})
}

// ClearToken drops the cached token; the next upstream call fetches a new one.
func (r *Router) ClearToken(c *gin.Context) {
	r.client.Tokens().Clear()
	r.logger.Info("token_cleared", zap.String("request_id", middleware.GetRequestID(c)))
	r.ok(c, gin.H{"data": gin.H{"cleared": true}})
}
