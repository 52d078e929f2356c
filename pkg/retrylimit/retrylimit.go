// Package retrylimit provides an adaptive rate limiter and a bounded retry
// loop for calls to flaky remote providers.
//
// Example usage:
//
//	lim := retrylimit.NewAdaptiveLimiter(2, 1, 5, 1, 0.5)
//	err := retrylimit.WithRetryConfig(ctx, func() error {
//	    return extract()
//	}, lim, retrylimit.DefaultRetryConfig())
package retrylimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// AdaptiveLimiter manages a rate limit that grows on success and shrinks on
// failure. Safe for concurrent use.
type AdaptiveLimiter struct {
	mu        sync.RWMutex
	limiter   *rate.Limiter
	minLimit  rate.Limit
	maxLimit  rate.Limit
	stepUp    rate.Limit
	stepDown  float64
	lastError time.Time
}

// NewAdaptiveLimiter creates an AdaptiveLimiter.
//
// Parameters:
//   - initial: starting requests per second
//   - min: minimum allowed rate
//   - max: maximum allowed rate
//   - stepUp: increment on success
//   - stepDown: multiplier applied on failure (e.g., 0.5 to halve)
func NewAdaptiveLimiter(initial, min, max rate.Limit, stepUp rate.Limit, stepDown float64) *AdaptiveLimiter {
	if initial < 1 {
		initial = 1
	}
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	return &AdaptiveLimiter{
		limiter:  rate.NewLimiter(initial, burstFor(initial)),
		minLimit: min,
		maxLimit: max,
		stepUp:   stepUp,
		stepDown: stepDown,
	}
}

// Wait blocks until a token is available or the context is canceled.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Success raises the rate unless a failure happened in the last 10 seconds.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if time.Since(a.lastError) > 10*time.Second {
		a.adjustLimit(a.limiter.Limit() + a.stepUp)
	}
}

// Failed lowers the rate.
func (a *AdaptiveLimiter) Failed() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = time.Now()
	a.adjustLimit(rate.Limit(float64(a.limiter.Limit()) * a.stepDown))
}

// CurrentLimit returns the current requests per second.
func (a *AdaptiveLimiter) CurrentLimit() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return float64(a.limiter.Limit())
}

func (a *AdaptiveLimiter) adjustLimit(newLimit rate.Limit) {
	if newLimit > a.maxLimit {
		newLimit = a.maxLimit
	} else if newLimit < a.minLimit {
		newLimit = a.minLimit
	}
	if newLimit != a.limiter.Limit() {
		a.limiter.SetLimit(newLimit)
		a.limiter.SetBurst(burstFor(newLimit))
	}
}

// FatalError wraps errors that should stop retries immediately.
type FatalError struct {
	Err error
}

func (f *FatalError) Error() string { return f.Err.Error() }
func (f *FatalError) Unwrap() error { return f.Err }

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxAttempts  int           // Maximum number of attempts (0 = 1)
	InitialDelay time.Duration // Delay before the second attempt
	MaxDelay     time.Duration // Upper bound for the delay
	Multiplier   float64       // Delay multiplier for exponential backoff
	Jitter       bool          // Add up to 25% random jitter
	OnRetry      func(attempt int, err error)
}

// DefaultRetryConfig returns a sensible default configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// WithRetryConfig runs fn until it succeeds, returns a FatalError, the
// context ends or MaxAttempts is reached. The last error is returned.
func WithRetryConfig(ctx context.Context, fn func() error, lim *AdaptiveLimiter, cfg RetryConfig) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}

	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.CombineErrors(lastErr, err)
		}

		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return errors.CombineErrors(lastErr, err)
			}
		}

		err := fn()
		if err == nil {
			if lim != nil {
				lim.Success()
			}
			if attempt > 1 {
				log.Debug().Str("component", "retry").Int("attempt", attempt).Msg("Success after retry")
			}
			return nil
		}
		lastErr = err

		var fatal *FatalError
		if errors.As(err, &fatal) {
			return err
		}
		if lim != nil {
			lim.Failed()
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		next := delay
		if cfg.Jitter {
			next = addJitter(delay)
		}
		log.Debug().Str("component", "retry").Int("attempt", attempt).Err(err).Dur("sleep", next).Msg("Request failed")

		select {
		case <-ctx.Done():
			return errors.CombineErrors(lastErr, ctx.Err())
		case <-time.After(next):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return errors.Wrapf(lastErr, "max attempts (%d) exceeded", cfg.MaxAttempts)
}

func addJitter(delay time.Duration) time.Duration {
	if delay < 4 {
		return delay
	}
	return delay + time.Duration(rand.Int63n(int64(delay/4)))
}

func burstFor(l rate.Limit) int {
	return max(1, int(l))
}
