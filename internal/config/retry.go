package config

import (
	"strings"
	"time"
)

// RetryBackoffMode selects how the delay between fetch retries grows.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// NormalizeRetryBackoff maps user input to a mode; unknown input yields "".
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	switch RetryBackoffMode(strings.ToLower(strings.TrimSpace(raw))) {
	case RetryBackoffFixed:
		return RetryBackoffFixed
	case RetryBackoffLinear:
		return RetryBackoffLinear
	case RetryBackoffExponential:
		return RetryBackoffExponential
	default:
		return ""
	}
}

// FetchTimeoutDuration returns the parsed fetch timeout, zero meaning none.
func (s SyncConfig) FetchTimeoutDuration() time.Duration {
	return parseDuration(s.FetchTimeout)
}

func (s SyncConfig) RetryInitialDelayDuration() time.Duration {
	return parseDuration(s.RetryInitialDelay)
}

func (s SyncConfig) RetryMaxDelayDuration() time.Duration {
	return parseDuration(s.RetryMaxDelay)
}

// IntervalDuration returns the daemon interval, zero when unset.
func (d DaemonConfig) IntervalDuration() time.Duration {
	return parseDuration(d.Interval)
}

// parseDuration returns 0 for empty input; Validate rejects malformed values beforehand.
func parseDuration(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}
