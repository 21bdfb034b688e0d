/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package lookup provides a read-through facade over a slow backend.
// It composes the LRU cache, the request coalescer and the latency tracker:
// a lookup is served from the cache if possible, otherwise concurrent misses for the same key
// are collapsed into a single backend call whose result is cached.
package lookup
