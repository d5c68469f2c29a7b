// Package retry provides a bounded retry combinator with exponential
// backoff, used by the extraction and loading adapters. The transform
// core never retries; any error there is fatal to the call.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Options controls retry behavior.
type Options struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialDelay is the delay before the second attempt.
	InitialDelay time.Duration
	// BackoffFactor multiplies the delay after each failed attempt.
	BackoffFactor float64
	// OnRetry, when set, is called before each retry with the attempt
	// number just failed and the error it produced.
	OnRetry func(attempt int, err error)
}

// Option mutates Options.
type Option func(*Options)

// WithMaxAttempts sets the total attempt count.
func WithMaxAttempts(n int) Option {
	return func(o *Options) { o.MaxAttempts = n }
}

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) Option {
	return func(o *Options) { o.InitialDelay = d }
}

// WithBackoffFactor sets the delay multiplier between retries.
func WithBackoffFactor(f float64) Option {
	return func(o *Options) { o.BackoffFactor = f }
}

// WithOnRetry registers an observer called before each retry.
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(o *Options) { o.OnRetry = fn }
}

// DefaultOptions returns the standard retry policy: 3 attempts, 1s
// initial delay, doubling after each failure.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:   3,
		InitialDelay:  time.Second,
		BackoffFactor: 2.0,
	}
}

// Do runs fn until it succeeds, the attempt budget is exhausted, or the
// context is cancelled. The last error is returned wrapped with the
// attempt count.
func Do(ctx context.Context, name string, fn func(ctx context.Context) error, opts ...Option) error {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.MaxAttempts < 1 {
		options.MaxAttempts = 1
	}

	logger := slog.Default()
	delay := options.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= options.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s cancelled before attempt %d: %w", name, attempt, err)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			if attempt > 1 {
				logger.InfoContext(ctx, "operation succeeded after retry",
					slog.String("operation", name),
					slog.Int("attempt", attempt))
			}
			return nil
		}

		if attempt >= options.MaxAttempts {
			break
		}

		if options.OnRetry != nil {
			options.OnRetry(attempt, lastErr)
		}

		logger.WarnContext(ctx, "operation failed, retrying",
			slog.String("operation", name),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", options.MaxAttempts),
			slog.Duration("delay", delay),
			slog.String("error", lastErr.Error()))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled during backoff: %w", name, ctx.Err())
		}

		delay = time.Duration(float64(delay) * options.BackoffFactor)
	}

	logger.ErrorContext(ctx, "operation failed after all attempts",
		slog.String("operation", name),
		slog.Int("attempts", options.MaxAttempts),
		slog.String("error", lastErr.Error()))
	return fmt.Errorf("%s failed after %d attempts: %w", name, options.MaxAttempts, lastErr)
}
