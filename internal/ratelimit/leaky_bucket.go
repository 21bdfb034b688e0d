/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/throttled/throttled/v2"
	"github.com/throttled/throttled/v2/store/memstore"
)

// LeakyBucketLimiter limits requests with GCRA (generic cell rate algorithm), a leaky bucket variant
// that keeps only the theoretical arrival time of the next request per key.
// See https://brandur.org/rate-limiting#gcra.
type LeakyBucketLimiter struct {
	gcra *throttled.GCRARateLimiterCtx
}

// NewLeakyBucketLimiter creates a limiter that lets maxBurst requests above maxRate through at once.
// At most maxKeys keys are kept in memory, the least recently seen ones are dropped first. 0 means no limit.
func NewLeakyBucketLimiter(maxRate Rate, maxBurst, maxKeys int) (*LeakyBucketLimiter, error) {
	store, err := memstore.NewCtx(maxKeys)
	if err != nil {
		return nil, fmt.Errorf("create GCRA store for %d keys: %w", maxKeys, err)
	}
	quota := throttled.RateQuota{MaxRate: throttled.PerDuration(maxRate.Count, maxRate.Duration), MaxBurst: maxBurst}
	gcra, err := throttled.NewGCRARateLimiterCtx(store, quota)
	if err != nil {
		return nil, fmt.Errorf("create GCRA limiter for %d req/%s: %w", maxRate.Count, maxRate.Duration, err)
	}
	return &LeakyBucketLimiter{gcra: gcra}, nil
}

// Allow takes one request from the quota of the key.
// retryAfter is set only for a rejected request.
func (l *LeakyBucketLimiter) Allow(ctx context.Context, key string) (allow bool, retryAfter time.Duration, err error) {
	limited, res, err := l.gcra.RateLimitCtx(ctx, key, 1)
	if err != nil {
		return false, 0, fmt.Errorf("GCRA rate limit %q: %w", key, err)
	}
	if !limited {
		return true, 0, nil
	}
	return false, res.RetryAfter, nil
}
