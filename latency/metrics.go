/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package latency

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultDurationBuckets is default buckets into which observations of lookup durations are counted.
var DefaultDurationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// MetricsCollector represents a collector of latency observations.
type MetricsCollector interface {
	// ObserveLatency observes the duration of a single operation.
	ObserveLatency(time.Duration)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// DurationBuckets is a list of buckets into which observations are counted.
	DurationBuckets []float64

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels

	// CurriedLabelNames is a list of label names that will be curried with the provided labels.
	// See PrometheusMetrics.MustCurryWith method for more details.
	CurriedLabelNames []string
}

// PrometheusMetrics represents a Prometheus metrics for the latency tracker.
type PrometheusMetrics struct {
	Durations *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	durBuckets := opts.DurationBuckets
	if durBuckets == nil {
		durBuckets = DefaultDurationBuckets
	}
	durations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "lookup_duration_seconds",
			Help:        "A histogram of the lookup durations.",
			Buckets:     durBuckets,
			ConstLabels: opts.ConstLabels,
		},
		opts.CurriedLabelNames,
	)
	return &PrometheusMetrics{Durations: durations}
}

// MustCurryWith curries the metrics collector with the provided labels.
func (pm *PrometheusMetrics) MustCurryWith(labels prometheus.Labels) *PrometheusMetrics {
	return &PrometheusMetrics{Durations: pm.Durations.MustCurryWith(labels).(*prometheus.HistogramVec)}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.Durations)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.Durations)
}

// ObserveLatency observes the duration of a single operation.
func (pm *PrometheusMetrics) ObserveLatency(d time.Duration) {
	pm.Durations.With(nil).Observe(d.Seconds())
}

type disabledMetrics struct{}

func (disabledMetrics) ObserveLatency(time.Duration) {}
