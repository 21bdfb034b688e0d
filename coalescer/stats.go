/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package coalescer

import "strconv"

// Stats represents a snapshot of the coalescer statistics.
type Stats struct {
	TotalRequests        uint64 `json:"totalRequests"`
	DeduplicatedRequests uint64 `json:"deduplicatedRequests"`
	CurrentPending       int    `json:"currentPendingRequests"`
	DeduplicationRate    string `json:"deduplicationRate"`
}

func formatRate(part, total uint64) string {
	if total == 0 {
		return "0%"
	}
	return strconv.FormatFloat(float64(part)/float64(total)*100, 'f', 2, 64) + "%"
}
