package worker

import (
	"math"
	"time"
)

// Bounds the backoff configuration is clamped to, so misconfiguration cannot
// produce pathological scheduling.
const (
	minBackoffBase = 1 * time.Second
	maxBackoffBase = 1 * time.Hour
	minBackoffMax  = 5 * time.Second
	maxBackoffMax  = 24 * time.Hour
)

// NextAttemptDelay computes the delay before a failed job becomes eligible
// again: min(base * 2^(attempt-1), max), where attempt is retryCount + 1.
// Whether the job is actually retried is a policy decision outside this core;
// the worker's only obligation is to persist a correct next-eligible time.
func NextAttemptDelay(retryCount int, base, max time.Duration) time.Duration {
	base = clampDuration(base, minBackoffBase, maxBackoffBase)
	max = clampDuration(max, minBackoffMax, maxBackoffMax)

	attempt := retryCount + 1
	if attempt < 1 {
		attempt = 1
	}

	// Compute in float space; a large attempt count overflows
	// time.Duration long before it overflows float64.
	delay := float64(base) * math.Pow(2, float64(attempt-1))
	if delay > float64(max) {
		return max
	}
	return time.Duration(delay)
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
