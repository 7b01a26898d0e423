package travelclient

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// CircuitBreaker short-circuits capability calls while the provider is down.
type CircuitBreaker interface {
	Execute(fn func() error) error
}

type passThrough struct{}

func (passThrough) Execute(fn func() error) error { return fn() }

type providerBreaker struct {
	cb *gobreaker.CircuitBreaker
}

func (p *providerBreaker) Execute(fn func() error) error {
	_, err := p.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrBreakerOpen
	}
	return err
}

// NewCircuitBreaker returns a pass-through breaker when disabled in cfg.
func NewCircuitBreaker(cfg Config, logger *zap.Logger) CircuitBreaker {
	if !cfg.CircuitBreakerEnabled {
		return passThrough{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	minRequests := uint32(max(cfg.CBMinRequests, 0))
	threshold := uint32(max(cfg.CBFailureThreshold, 1))

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "travel-api",
		MaxRequests: uint32(max(cfg.CBHalfOpenMaxSuccess, 1)),
		Interval:    cfg.CBSamplingDuration,
		Timeout:     cfg.CBRecoveryTime,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= minRequests && counts.TotalFailures >= threshold
		},
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerState.Set(float64(to))
			logger.Warn("upstream_breaker_state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	breakerState.Set(float64(gobreaker.StateClosed))
	return &providerBreaker{cb: cb}
}

// breakerSuccess counts only provider outages against the breaker; client
// errors and token failures say nothing about capability endpoint health.
func breakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		return true
	}
	switch upErr.Kind {
	case KindTransport:
		return errors.Is(upErr.Err, context.Canceled)
	case KindHTTP:
		return upErr.Status < 500
	}
	return true
}
