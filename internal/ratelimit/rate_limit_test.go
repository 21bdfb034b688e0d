/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewLimiter(t *testing.T) {
	rate := Rate{Count: 10, Duration: time.Second}

	lim, err := NewLimiter(AlgLeakyBucket, rate, 5, 100)
	require.NoError(t, err)
	require.IsType(t, &LeakyBucketLimiter{}, lim)

	lim, err = NewLimiter(AlgSlidingWindow, rate, 0, 100)
	require.NoError(t, err)
	require.IsType(t, &SlidingWindowLimiter{}, lim)

	_, err = NewLimiter("tokenBucket", rate, 0, 100)
	require.EqualError(t, err, `unknown rate limiting algorithm "tokenBucket"`)

	_, err = NewLimiter(AlgLeakyBucket, Rate{Count: 0, Duration: time.Second}, 0, 100)
	require.EqualError(t, err, "rate must be positive, got 0 per 1s")
}
