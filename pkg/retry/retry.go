package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "imgcrawler/pkg/errors"
	"imgcrawler/pkg/logger"
)

// Operation is one attempt at a fetch or download
type Operation func(ctx context.Context) error

// OperationWithResult is an Operation that also produces a value
type OperationWithResult[T any] func(ctx context.Context) (T, error)

// Config controls Do. MaxAttempts below 1 means a single attempt; a nil
// Backoff retries immediately and a nil RetryIf uses DefaultRetryIf.
type Config struct {
	MaxAttempts int
	Backoff     BackoffStrategy
	RetryIf     func(error) bool
	// OnRetry runs after a failed attempt, before the pause
	OnRetry func(attempt int, err error, delay time.Duration)
	Logger  logger.Logger
}

func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DownloadBackoff(),
		RetryIf:     DefaultRetryIf,
	}
}

// DefaultRetryIf retries the transient classes from pkg/errors and never
// retries cancellation.
func DefaultRetryIf(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled) && errs.IsRetryableError(err)
}

// Do runs op until it succeeds, fails with an error RetryIf rejects, or
// runs out of attempts. Exhausting more than one attempt wraps the last
// error; a single attempt returns it as is.
func Do(ctx context.Context, op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	attempts := max(cfg.MaxAttempts, 1)
	retryable := cfg.RetryIf
	if retryable == nil {
		retryable = DefaultRetryIf
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	var err error
	for n := 1; ; n++ {
		if err = op(ctx); err == nil {
			if n > 1 {
				log.DebugWithFields("Succeeded after retry", map[string]interface{}{"attempt": n})
			}
			return nil
		}
		if n == attempts {
			break
		}
		if !retryable(err) {
			log.WithError(err).Debug("Giving up on non-retryable error")
			return err
		}

		delay := nextDelay(cfg.Backoff, n, err)
		if cfg.OnRetry != nil {
			cfg.OnRetry(n, err, delay)
		}
		log.WithError(err).WarnWithFields("Retrying", map[string]interface{}{
			"attempt":      n,
			"max_attempts": attempts,
			"delay_ms":     delay.Milliseconds(),
		})

		if werr := Wait(ctx, delay); werr != nil {
			return fmt.Errorf("retry cancelled: %w", werr)
		}
	}

	if attempts == 1 {
		return err
	}
	return fmt.Errorf("max retry attempts (%d) exceeded: %w", attempts, err)
}

// DoWithResult is Do for operations that return a value
func DoWithResult[T any](ctx context.Context, op OperationWithResult[T], cfg *Config) (T, error) {
	var out T
	err := Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err == nil {
			out = v
		}
		return err
	}, cfg)
	return out, err
}

func nextDelay(b BackoffStrategy, attempt int, err error) time.Duration {
	switch b := b.(type) {
	case nil:
		return 0
	case *ErrorAwareBackoff:
		return b.ForError(err).NextDelay(attempt)
	default:
		return b.NextDelay(attempt)
	}
}
