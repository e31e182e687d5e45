package registry

import (
	"context"
	"errors"
)

// RetryConfig controls handler retries.
type RetryConfig struct {
	MaxAttempts int
	ShouldRetry func(error) bool
}

// WithRetry wraps handler with error-only retries. Cancellation is never retried.
func WithRetry(handler Handler, cfg RetryConfig) Handler {
	if handler == nil || cfg.MaxAttempts <= 1 {
		return handler
	}
	return HandlerFunc(func(ctx context.Context, call Call) (any, error) {
		var lastErr error
		for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
			if ctxErr := ctx.Err(); ctxErr != nil {
				if lastErr == nil {
					lastErr = ctxErr
				}
				break
			}
			call.Stats.addAttempt()
			out, err := handler.Handle(ctx, call)
			if err == nil {
				return out, nil
			}
			lastErr = err
			if !shouldRetry(ctx, cfg, err) {
				break
			}
		}
		return nil, lastErr
	})
}

func shouldRetry(ctx context.Context, cfg RetryConfig, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if cfg.ShouldRetry == nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return cfg.ShouldRetry(err)
}
