package webhook

import (
	"math/rand"
	"time"
)

// Retry delays for exponential backoff. The last delay repeats for
// any additional attempts.
var retryDelays = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	30 * time.Minute,
	2 * time.Hour,
	12 * time.Hour,
}

const (
	// DefaultMaxAttempts is the default maximum delivery attempts.
	DefaultMaxAttempts = 5

	// JitterFactor is the ±percentage of jitter applied to delays.
	JitterFactor = 0.2
)

// NextRetryDelay calculates next retry delay with exponential backoff
// and jitter. attemptCount is 0-indexed.
func NextRetryDelay(attemptCount int) time.Duration {
	if attemptCount < 0 {
		attemptCount = 0
	}
	if attemptCount >= len(retryDelays) {
		attemptCount = len(retryDelays) - 1
	}

	base := retryDelays[attemptCount]

	// Jitter spreads retries so a recovering endpoint is not hit by
	// every stalled delivery at once.
	jitterRange := float64(base) * JitterFactor
	jitter := (rand.Float64()*2 - 1) * jitterRange

	return time.Duration(float64(base) + jitter)
}

// NextRetryAt calculates the time for next retry attempt.
func NextRetryAt(attemptCount int) time.Time {
	return time.Now().Add(NextRetryDelay(attemptCount))
}

// IsExhausted returns true if max attempts have been reached.
func IsExhausted(attemptCount, maxAttempts int) bool {
	return attemptCount >= maxAttempts
}

// GetRetryDelays returns the configured retry delays.
func GetRetryDelays() []time.Duration {
	return append([]time.Duration{}, retryDelays...)
}
