/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package lookup

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/acronis/go-lookupcache/coalescer"
	"github.com/acronis/go-lookupcache/latency"
	"github.com/acronis/go-lookupcache/lrucache"
	"github.com/acronis/go-lookupcache/service"
)

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// LatencyBuckets is a list of buckets for the lookup duration histogram.
	// latency.DefaultDurationBuckets is used if it's nil.
	LatencyBuckets []float64

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics bundles the Prometheus collectors of the cache, the coalescer and the latency tracker.
type PrometheusMetrics struct {
	Cache     *lrucache.PrometheusMetrics
	Coalescer *coalescer.PrometheusMetrics
	Latency   *latency.PrometheusMetrics
}

var _ service.MetricsRegisterer = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetrics(opts PrometheusMetricsOpts) *PrometheusMetrics {
	return &PrometheusMetrics{
		Cache: lrucache.NewPrometheusMetricsWithOpts(lrucache.PrometheusMetricsOpts{
			Namespace: opts.Namespace, ConstLabels: opts.ConstLabels,
		}),
		Coalescer: coalescer.NewPrometheusMetricsWithOpts(coalescer.PrometheusMetricsOpts{
			Namespace: opts.Namespace, ConstLabels: opts.ConstLabels,
		}),
		Latency: latency.NewPrometheusMetricsWithOpts(latency.PrometheusMetricsOpts{
			Namespace: opts.Namespace, DurationBuckets: opts.LatencyBuckets, ConstLabels: opts.ConstLabels,
		}),
	}
}

// Opts returns Service options that make the Service report to these collectors.
func (pm *PrometheusMetrics) Opts() Opts {
	return Opts{CacheMetrics: pm.Cache, CoalescerMetrics: pm.Coalescer, LatencyMetrics: pm.Latency}
}

// MustRegisterMetrics registers all collectors in the default Prometheus registerer.
func (pm *PrometheusMetrics) MustRegisterMetrics() {
	pm.Cache.MustRegister()
	pm.Coalescer.MustRegister()
	pm.Latency.MustRegister()
}

// UnregisterMetrics unregisters all collectors from the default Prometheus registerer.
func (pm *PrometheusMetrics) UnregisterMetrics() {
	pm.Cache.Unregister()
	pm.Coalescer.Unregister()
	pm.Latency.Unregister()
}
