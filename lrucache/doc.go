/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package lrucache provides a bounded in-memory cache with least-recently-used eviction.
// Entries older than the configured TTL are treated as absent and dropped on the next touch;
// there is no background sweeping.
package lrucache
