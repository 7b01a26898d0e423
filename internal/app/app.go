package app

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/railzwaylabs/travel-gateway/internal/api"
	"github.com/railzwaylabs/travel-gateway/internal/apierror"
	"github.com/railzwaylabs/travel-gateway/internal/config"
	"github.com/railzwaylabs/travel-gateway/internal/ratelimit"
	zaplog "github.com/railzwaylabs/travel-gateway/pkg/log"
	"github.com/railzwaylabs/travel-gateway/pkg/snowflake"
	"github.com/railzwaylabs/travel-gateway/pkg/travelclient"
)

// RunServer starts the HTTP gateway and blocks until it is stopped.
func RunServer() {
	app := fx.New(
		fx.Provide(
			// Config
			config.Load,

			// Upstream
			newTravelClient,
			newMapper,
			newLimiter,

			// API
			api.NewRouter,
		),
		snowflake.Module, // Snowflake ID Module
		zaplog.Module,    // Logger Module
		fx.Invoke(registerHooks),
	)

	app.Run()
}

// Taking the config orders config.Load, and with it the .env file, before
// credentials are resolved.
func newTravelClient(_ *config.Config, logger *zap.Logger) (*travelclient.Client, error) {
	return travelclient.NewFromEnv(logger)
}

func newMapper(client *travelclient.Client) *apierror.Mapper {
	return apierror.NewMapper(client.Config().Diagnostics)
}

func newLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(ratelimit.WithSweepThreshold(cfg.RateLimitSweepThreshold))
}

func registerHooks(lc fx.Lifecycle, cfg *config.Config, router *api.Router, client *travelclient.Client, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			creds := client.Credentials()
			logger.Info("Starting HTTP server",
				zap.String("port", cfg.Port),
				zap.String("travel_env", string(creds.Environment)),
				zap.String("travel_base_url", creds.BaseURL),
			)

			go func() {
				if err := router.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("Server failed to start", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server gracefully...")

			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
			defer cancel()

			err := router.Shutdown(shutdownCtx)
			client.Tokens().Clear()
			if err != nil {
				logger.Error("Server forced to shutdown", zap.Error(err))
				return err
			}

			logger.Info("HTTP server stopped gracefully")
			return nil
		},
	})
}
