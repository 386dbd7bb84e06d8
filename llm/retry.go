package llm

import (
	"math/rand"
	"time"
)

// RetryConfig controls per-endpoint retry behavior for model requests.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per endpoint.
	MaxAttempts int

	// BackoffBase is the initial backoff duration.
	BackoffBase time.Duration

	// BackoffMultiplier is applied to backoff on each retry.
	BackoffMultiplier float64

	// MaxBackoff caps the maximum backoff duration.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns the retry defaults used when a client is
// built without explicit retry options.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        30 * time.Second,
	}
}

// Backoff returns the wait before the next attempt after the given
// 1-based attempt failed. Exponential growth is capped at MaxBackoff,
// with +/-25% jitter so concurrent clients don't retry in lockstep.
func (c RetryConfig) Backoff(attempt int) time.Duration {
	backoff := float64(c.BackoffBase)
	for i := 1; i < attempt; i++ {
		backoff *= c.BackoffMultiplier
	}
	if limit := float64(c.MaxBackoff); backoff > limit {
		backoff = limit
	}

	jitter := backoff * 0.25 * (rand.Float64()*2 - 1)
	return time.Duration(backoff + jitter)
}
