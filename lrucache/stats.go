/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import "strconv"

// Stats represents a snapshot of the cache statistics.
// Hits, Misses, Evictions and Expirations are cumulative and survive Purge.
type Stats struct {
	Size        int    `json:"size"`
	Capacity    int    `json:"capacity"`
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Evictions   uint64 `json:"evictions"`
	Expirations uint64 `json:"expirations"`
	// HitRate is hits / (hits + misses) formatted as a percentage with two decimals (e.g. "66.67%").
	// It's "0%" when there were no accesses yet.
	HitRate string `json:"hitRate"`
}

func formatHitRate(hits, misses uint64) string {
	total := hits + misses
	if total == 0 {
		return "0%"
	}
	return strconv.FormatFloat(float64(hits)/float64(total)*100, 'f', 2, 64) + "%"
}
