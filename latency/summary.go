/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package latency

import (
	"encoding/json"
	"time"
)

// Summary represents statistics over the retained latency samples.
// Count equal to 0 means there is no data, all durations are zero in this case.
type Summary struct {
	Count         int
	WindowSize    int
	TotalRecorded uint64
	Average       time.Duration
	Min           time.Duration
	Max           time.Duration
	P50           time.Duration
	P95           time.Duration
	P99           time.Duration
}

// HasData reports whether the summary is computed over at least one sample.
func (s Summary) HasData() bool {
	return s.Count > 0
}

type summaryJSON struct {
	Count         int      `json:"count"`
	WindowSize    int      `json:"windowSize"`
	TotalRecorded uint64   `json:"totalRecorded"`
	AverageMs     *float64 `json:"averageResponseTimeMs,omitempty"`
	MinMs         *float64 `json:"minResponseTimeMs,omitempty"`
	MaxMs         *float64 `json:"maxResponseTimeMs,omitempty"`
	P50Ms         *float64 `json:"p50ResponseTimeMs,omitempty"`
	P95Ms         *float64 `json:"p95ResponseTimeMs,omitempty"`
	P99Ms         *float64 `json:"p99ResponseTimeMs,omitempty"`
}

// MarshalJSON encodes durations as fractional milliseconds. Durations are omitted when there is no data.
func (s Summary) MarshalJSON() ([]byte, error) {
	out := summaryJSON{Count: s.Count, WindowSize: s.WindowSize, TotalRecorded: s.TotalRecorded}
	if s.HasData() {
		out.AverageMs = millis(s.Average)
		out.MinMs = millis(s.Min)
		out.MaxMs = millis(s.Max)
		out.P50Ms = millis(s.P50)
		out.P95Ms = millis(s.P95)
		out.P99Ms = millis(s.P99)
	}
	return json.Marshal(out)
}

func millis(d time.Duration) *float64 {
	ms := float64(d) / float64(time.Millisecond)
	return &ms
}
