package resilience

import (
	"context"
	"errors"
	"math"
	"time"
)

// RetryConfig controls the bounded-retry-with-backoff executor.
type RetryConfig struct {
	MaxRetries   int           // attempts = MaxRetries + 1
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Retryable, when set, decides whether an error is worth retrying. A
	// non-retryable error aborts immediately without consuming retries.
	Retryable func(error) bool
}

// DefaultRetryConfig returns the tuning used for notification channels.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// Retry attempts fn up to MaxRetries+1 times, sleeping
// min(InitialDelay × Multiplier^k, MaxDelay) before attempt k+1. On
// exhaustion the last error is returned unchanged so callers see the true
// failure kind. Stateless and safe for concurrent reuse.
func Retry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 10 * time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return err
		}

		if attempt < cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoffDelay(cfg, attempt)):
			}
		}
	}
	return lastErr
}

func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}

// NonRetryable builds a Retryable predicate that aborts on any of the given
// sentinel errors.
func NonRetryable(sentinels ...error) func(error) bool {
	return func(err error) bool {
		if err == nil {
			return false
		}
		for _, sentinel := range sentinels {
			if errors.Is(err, sentinel) {
				return false
			}
		}
		return true
	}
}
