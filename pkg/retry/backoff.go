package retry

import (
	"context"
	"math/rand"
	"time"

	errs "imgcrawler/pkg/errors"
)

// BackoffStrategy yields the pause before retry number attempt (1-based)
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff grows BaseDelay by Multiplier per attempt up to
// MaxDelay, then spreads the result by ±JitterFactor.
type ExponentialBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	d := float64(b.BaseDelay)
	for i := 1; i < attempt && d < float64(b.MaxDelay); i++ {
		d *= b.Multiplier
	}
	if b.MaxDelay > 0 && d > float64(b.MaxDelay) {
		d = float64(b.MaxDelay)
	}
	return spread(d, b.JitterFactor)
}

// spread moves d by a random amount within ±factor of itself
func spread(d, factor float64) time.Duration {
	if factor > 0 {
		d += d * factor * (2*rand.Float64() - 1)
	}
	if d < 0 {
		return 0
	}
	return time.Duration(d)
}

// ConstantBackoff waits Delay before every retry
type ConstantBackoff struct {
	Delay time.Duration
}

func (b *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return b.Delay
}

// ErrorAwareBackoff chooses a strategy from the class of the last failure.
// Do consults ForError; NextDelay alone falls back to Default.
type ErrorAwareBackoff struct {
	Transient BackoffStrategy // connection failures and timeouts
	Throttled BackoffStrategy // HTTP 429
	Server    BackoffStrategy // HTTP 5xx
	Default   BackoffStrategy
}

// DownloadBackoff returns the strategies used for image downloads. Hosts
// that throttle get the longest pauses.
func DownloadBackoff() *ErrorAwareBackoff {
	return &ErrorAwareBackoff{
		Transient: &ExponentialBackoff{BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second, Multiplier: 2, JitterFactor: 0.2},
		Throttled: &ExponentialBackoff{BaseDelay: 5 * time.Second, MaxDelay: time.Minute, Multiplier: 1.5, JitterFactor: 0.3},
		Server:    &ExponentialBackoff{BaseDelay: time.Second, MaxDelay: 10 * time.Second, Multiplier: 2, JitterFactor: 0.1},
		Default:   &ExponentialBackoff{BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second, Multiplier: 2, JitterFactor: 0.1},
	}
}

func (b *ErrorAwareBackoff) ForError(err error) BackoffStrategy {
	switch errs.TypeOf(err) {
	case errs.ErrorTypeNetwork, errs.ErrorTypeTimeout:
		return b.Transient
	case errs.ErrorTypeRateLimit:
		return b.Throttled
	case errs.ErrorTypeHTTPStatus:
		if errs.StatusCode(err) >= 500 {
			return b.Server
		}
	}
	return b.Default
}

func (b *ErrorAwareBackoff) NextDelay(attempt int) time.Duration {
	return b.Default.NextDelay(attempt)
}

// Wait sleeps for delay unless ctx ends first. A non-positive delay only
// reports whether ctx is already done.
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
