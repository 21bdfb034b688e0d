/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestRequireSamplesCountInCounter(t *testing.T) {
	hits := prometheus.NewCounter(prometheus.CounterOpts{Name: "cache_hits_total"})
	hits.Add(3)

	mt := &mockT{}
	RequireSamplesCountInCounter(mt, hits, 2)
	require.True(t, mt.failed)

	mt = &mockT{}
	RequireSamplesCountInCounter(mt, hits, 3)
	require.False(t, mt.failed)
}

func TestRequireSamplesCountInHistogram(t *testing.T) {
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "lookup_duration_seconds", Buckets: []float64{0.01, 0.1, 1},
	})
	latency.Observe(0.2)
	latency.Observe(0.005)

	mt := &mockT{}
	RequireSamplesCountInHistogram(mt, latency, 1)
	require.True(t, mt.failed)

	mt = &mockT{}
	RequireSamplesCountInHistogram(mt, latency, 2)
	require.False(t, mt.failed)
}
