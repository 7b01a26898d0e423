package travelclient

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy retries idempotent calls that never reached the provider.
// MaxRetries of zero disables it.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

func (r RetryPolicy) Do(ctx context.Context, safe bool, fn func() error) error {
	var err error
	for i := 0; i <= r.MaxRetries; i++ {
		err = fn()
		if err == nil || !safe || !retryable(err) || i == r.MaxRetries {
			return err
		}
		t := time.NewTimer(r.BaseDelay * time.Duration(i+1))
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, ErrBreakerOpen) || errors.Is(err, context.Canceled) {
		return false
	}
	var upErr *UpstreamError
	return errors.As(err, &upErr) && upErr.Kind == KindTransport
}
