package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/railzwaylabs/travel-gateway/internal/api/middleware"
	"github.com/railzwaylabs/travel-gateway/internal/apierror"
	"github.com/railzwaylabs/travel-gateway/internal/config"
	"github.com/railzwaylabs/travel-gateway/internal/ratelimit"
	"github.com/railzwaylabs/travel-gateway/pkg/snowflake"
	"github.com/railzwaylabs/travel-gateway/pkg/travelclient"
	"go.uber.org/zap"
)

type Router struct {
	engine  *gin.Engine
	server  *http.Server
	cfg     *config.Config
	client  *travelclient.Client
	mapper  *apierror.Mapper
	limiter *ratelimit.Limiter
	logger  *zap.Logger
}

func NewRouter(
	cfg *config.Config,
	client *travelclient.Client,
	mapper *apierror.Mapper,
	limiter *ratelimit.Limiter,
	ids *snowflake.Node,
	logger *zap.Logger,
) *Router {
	// Disable GIN default logger
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Add custom middleware
	r.Use(middleware.RequestID(ids.ShortID))
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		requestID := middleware.GetRequestID(c)
		logger.Error("panic recovered", zap.String("request_id", requestID), zap.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, &apierror.NormalizedError{
			Code:      apierror.CodeInternal,
			Message:   "An internal error occurred",
			Status:    http.StatusInternalServerError,
			RequestID: requestID,
		})
	}))
	r.Use(middleware.Metrics())
	r.Use(middleware.Logger(logger))

	api := &Router{
		engine:  r,
		cfg:     cfg,
		client:  client,
		mapper:  mapper,
		limiter: limiter,
		logger:  logger,
	}

	api.RegisterRoutes()
	return api
}

func (r *Router) RegisterRoutes() {
	// Simple health check
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus metrics endpoint
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api")

	search := api.Group("", r.rateLimit(config.ScopeSearch))
	{
		search.GET("/locations", r.SearchLocations)
		search.GET("/activities", r.SearchActivities)
		search.GET("/activities/:id", r.GetActivity)
		search.GET("/flights/search", r.SearchFlights)
		search.GET("/hotels/search", r.ListHotels)
		search.GET("/hotels/offers", r.SearchHotelOffers)
	}

	booking := api.Group("", r.rateLimit(config.ScopeBooking))
	{
		booking.POST("/flights/price", r.PriceFlights)
		booking.POST("/bookings", r.CreateBooking)
		booking.GET("/bookings/:id", r.GetBooking)
		booking.POST("/bookings/:id/cancel", r.CancelBooking)
	}

	emissions := api.Group("", r.rateLimit(config.ScopeEmissions))
	{
		emissions.POST("/emissions", r.EstimateEmissions)
	}

	// Admin Routes (Protected by ADMIN_API_TOKEN)
	admin := r.engine.Group("/admin")
	admin.Use(r.adminAuth())
	{
		admin.GET("/token", r.TokenStatus)
		admin.POST("/token/clear", r.ClearToken)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, &apierror.NormalizedError{
			Code:      apierror.CodeNotFound,
			Message:   "Route not found",
			Status:    http.StatusNotFound,
			RequestID: middleware.GetRequestID(c),
		})
	})
}

// Handler exposes the engine, mainly for httptest.
func (r *Router) Handler() http.Handler {
	return r.engine
}

func (r *Router) Run() error {
	r.server = &http.Server{
		Addr:         ":" + r.cfg.Port,
		Handler:      r.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return r.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (r *Router) Shutdown(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	return r.server.Shutdown(ctx)
}

func (r *Router) rateLimit(scope string) gin.HandlerFunc {
	return middleware.RateLimit(r.limiter, scope, r.cfg.Rule(scope), r.logger)
}

func (r *Router) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := middleware.GetRequestID(c)
		expected := strings.TrimSpace(r.cfg.AdminAPIToken)
		if expected == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, &apierror.NormalizedError{
				Code: "ADMIN_TOKEN_NOT_CONFIGURED", Message: "Admin API is disabled", Status: http.StatusForbidden, RequestID: requestID,
			})
			return
		}

		provided := strings.TrimSpace(c.GetHeader("X-Admin-Token"))
		if provided == "" {
			authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
			if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
				provided = strings.TrimSpace(authHeader[7:])
			}
		}

		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, &apierror.NormalizedError{
				Code: "UNAUTHORIZED", Message: "Missing or invalid admin token", Status: http.StatusUnauthorized, RequestID: requestID,
			})
			return
		}
		c.Next()
	}
}
