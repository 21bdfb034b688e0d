/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package latency provides a tracker of operation latencies over a sliding window of the most recent samples.
package latency
