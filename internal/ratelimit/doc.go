/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package ratelimit provides rate limiters that control how many requests are allowed per key over time.
//
// Two algorithms are supported: leaky bucket (GCRA) and sliding window.
// Limiters may be global or keyed (e.g. by client IP). The number of tracked keys is bounded,
// the least recently used keys are dropped first.
package ratelimit
