// Package retry implements the backoff policy used for transient fetch failures.
package retry

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/docsync/internal/config"
)

// Policy holds retry/backoff settings. It is immutable after construction.
type Policy struct {
	Mode       config.RetryBackoffMode // fixed|linear|exponential
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int // retries after the first attempt
}

// DefaultPolicy is linear, 1s initial, 30s cap, no retries.
func DefaultPolicy() Policy {
	return Policy{Mode: config.RetryBackoffLinear, Initial: time.Second, Max: 30 * time.Second}
}

// NewPolicy builds a policy; zero or unknown values keep the defaults.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries > 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if m := config.NormalizeRetryBackoff(string(mode)); m != "" {
		p.Mode = m
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// FromSyncConfig derives the fetch retry policy from the sync section.
func FromSyncConfig(s config.SyncConfig) Policy {
	return NewPolicy(s.RetryBackoff, s.RetryInitialDelayDuration(), s.RetryMaxDelayDuration(), s.MaxRetries)
}

// Delay returns the wait before retry number retryCount (1-based).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	if p.Mode == config.RetryBackoffFixed {
		return p.Initial
	}
	if p.Initial <= 0 {
		return p.Max
	}
	// factor is 2^(n-1) or n; compared by division so the product cannot overflow.
	var factor time.Duration
	if p.Mode == config.RetryBackoffExponential {
		if retryCount > 62 {
			return p.Max
		}
		factor = 1 << (retryCount - 1)
	} else {
		factor = time.Duration(retryCount)
	}
	if p.Initial > p.Max/factor {
		return p.Max
	}
	return p.Initial * factor
}

func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial must be >0")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max must be >0")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	return nil
}

// Do runs op until it succeeds, returns a permanent error, retries are exhausted,
// or ctx is done. onRetry, when non-nil, is called before each wait.
func (p Policy) Do(ctx context.Context, op func(context.Context) error, permanent func(error) bool, onRetry func(attempt int, delay time.Duration, err error)) error {
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := p.Delay(attempt)
			if onRetry != nil {
				onRetry(attempt, delay, lastErr)
			}
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("retry aborted: %w (last error: %w)", ctx.Err(), lastErr)
			case <-timer.C:
			}
		}
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if permanent != nil && permanent(err) {
			return err
		}
	}
	if p.MaxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("failed after %d retries: %w", p.MaxRetries, lastErr)
}
