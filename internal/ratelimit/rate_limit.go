/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Rate describes the frequency of requests.
type Rate struct {
	Count    int
	Duration time.Duration
}

// Alg represents a rate-limiting algorithm.
type Alg string

// Supported rate-limiting algorithms.
const (
	AlgLeakyBucket   Alg = "leakyBucket"
	AlgSlidingWindow Alg = "slidingWindow"
)

// Limiter interface defines the rate limiting contract.
type Limiter interface {
	Allow(ctx context.Context, key string) (allow bool, retryAfter time.Duration, err error)
}

// NewLimiter creates a Limiter that uses the passed algorithm.
// If maxKeys is 0, a single global limit is applied regardless of the key.
func NewLimiter(alg Alg, maxRate Rate, maxBurst, maxKeys int) (Limiter, error) {
	if maxRate.Count <= 0 || maxRate.Duration <= 0 {
		return nil, fmt.Errorf("rate must be positive, got %d per %s", maxRate.Count, maxRate.Duration)
	}
	switch alg {
	case AlgLeakyBucket:
		return NewLeakyBucketLimiter(maxRate, maxBurst, maxKeys)
	case AlgSlidingWindow:
		return NewSlidingWindowLimiter(maxRate, maxKeys)
	default:
		return nil, fmt.Errorf("unknown rate limiting algorithm %q", alg)
	}
}
