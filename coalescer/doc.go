/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package coalescer provides deduplication of concurrent fetches of the same key (a.k.a. single flight)
// with request statistics and Prometheus metrics.
package coalescer
