/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package latency

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrInvalidConfiguration is returned by NewTracker when the tracker cannot be built with the passed parameters.
var ErrInvalidConfiguration = errors.New("invalid latency tracker configuration")

// Tracker keeps the last windowSize latency samples and summarizes them.
// When the window is full, the oldest sample is discarded first.
type Tracker struct {
	mu            sync.Mutex
	samples       []time.Duration // ring buffer
	next          int             // index for the next sample
	count         int             // number of retained samples
	totalRecorded uint64

	metricsCollector MetricsCollector
}

// NewTracker creates a new Tracker with the provided window size and metrics collector.
// Metrics collector may be nil, in this case, metrics will be disabled.
func NewTracker(windowSize int, metricsCollector MetricsCollector) (*Tracker, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("%w: window size must be greater than 0, got %d", ErrInvalidConfiguration, windowSize)
	}
	if metricsCollector == nil {
		metricsCollector = disabledMetrics{}
	}
	return &Tracker{samples: make([]time.Duration, windowSize), metricsCollector: metricsCollector}, nil
}

// Record adds a latency sample to the window.
func (t *Tracker) Record(elapsed time.Duration) {
	t.mu.Lock()
	t.samples[t.next] = elapsed
	t.next = (t.next + 1) % len(t.samples)
	if t.count < len(t.samples) {
		t.count++
	}
	t.totalRecorded++
	t.mu.Unlock()

	t.metricsCollector.ObserveLatency(elapsed)
}

// Summary returns statistics over the samples currently retained in the window.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	retained := make([]time.Duration, t.count)
	copy(retained, t.samples[:t.count]) // order doesn't matter, the first count slots are always filled
	totalRecorded := t.totalRecorded
	windowSize := len(t.samples)
	t.mu.Unlock()

	return summarize(retained, windowSize, totalRecorded)
}

// Reset drops all retained samples and the lifetime counter.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next = 0
	t.count = 0
	t.totalRecorded = 0
}

// WindowSize returns the maximum number of retained samples.
func (t *Tracker) WindowSize() int {
	return len(t.samples)
}

func summarize(samples []time.Duration, windowSize int, totalRecorded uint64) Summary {
	s := Summary{WindowSize: windowSize, TotalRecorded: totalRecorded, Count: len(samples)}
	if len(samples) == 0 {
		return s
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	var sum time.Duration
	for _, d := range samples {
		sum += d
	}
	s.Average = sum / time.Duration(len(samples))
	s.Min = samples[0]
	s.Max = samples[len(samples)-1]
	s.P50 = percentile(samples, 50)
	s.P95 = percentile(samples, 95)
	s.P99 = percentile(samples, 99)
	return s
}

// percentile uses the nearest-rank method, samples must be sorted.
func percentile(sorted []time.Duration, p int) time.Duration {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
