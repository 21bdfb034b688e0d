/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

// RequireSamplesCountInHistogram asserts that the histogram has observed the passed number of samples.
func RequireSamplesCountInHistogram(t require.TestingT, hist prometheus.Histogram, wantSamplesCount int) {
	markHelper(t)
	m := gatherSingle(t, hist)
	require.Equal(t, wantSamplesCount, int(m.GetHistogram().GetSampleCount()))
}

// RequireSamplesCountInCounter asserts that the counter has the passed value.
func RequireSamplesCountInCounter(t require.TestingT, counter prometheus.Counter, wantCount int) {
	markHelper(t)
	m := gatherSingle(t, counter)
	require.Equal(t, wantCount, int(m.GetCounter().GetValue()))
}

// gatherSingle collects the only metric of the collector via a separate registry,
// so the collector may be registered in the default one at the same time.
func gatherSingle(t require.TestingT, c prometheus.Collector) *dto.Metric {
	markHelper(t)
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))
	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.Len(t, families[0].GetMetric(), 1)
	return families[0].GetMetric()[0]
}
