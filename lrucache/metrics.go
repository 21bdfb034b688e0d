/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import "github.com/prometheus/client_golang/prometheus"

// MetricsCollector receives the cache usage events. PrometheusMetrics is the production implementation.
type MetricsCollector interface {
	// SetAmount reports the number of stored entries, expired ones included.
	SetAmount(int)

	IncHits()
	IncMisses()

	// AddEvictions counts live entries dropped to make room for new ones.
	AddEvictions(int)

	// AddExpirations counts entries dropped because their TTL was exceeded.
	AddExpirations(int)
}

// PrometheusMetricsOpts configures PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is prepended to the metric names.
	Namespace string

	ConstLabels prometheus.Labels

	// CurriedLabelNames are variable labels that must be bound by MustCurryWith before the metrics are used,
	// e.g. "cache" to tell apart several caches of one service.
	CurriedLabelNames []string
}

// PrometheusMetrics is a MetricsCollector exporting the cache usage to Prometheus.
type PrometheusMetrics struct {
	EntriesAmount    *prometheus.GaugeVec
	HitsTotal        *prometheus.CounterVec
	MissesTotal      *prometheus.CounterVec
	EvictionsTotal   *prometheus.CounterVec
	ExpirationsTotal *prometheus.CounterVec
}

// NewPrometheusMetrics creates PrometheusMetrics without namespace and labels.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates PrometheusMetrics. The metrics are not registered.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: opts.Namespace, Name: name, Help: help, ConstLabels: opts.ConstLabels,
		}, opts.CurriedLabelNames)
	}
	return &PrometheusMetrics{
		EntriesAmount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "cache_entries_amount",
			Help:        "Number of entries in the cache including expired ones not removed yet.",
			ConstLabels: opts.ConstLabels,
		}, opts.CurriedLabelNames),
		HitsTotal:        counter("cache_hits_total", "Number of lookups that found a live entry."),
		MissesTotal:      counter("cache_misses_total", "Number of lookups that found no entry or an expired one."),
		EvictionsTotal:   counter("cache_evictions_total", "Number of live entries evicted because the cache was full."),
		ExpirationsTotal: counter("cache_expirations_total", "Number of entries removed because their TTL was exceeded."),
	}
}

func (pm *PrometheusMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{pm.EntriesAmount, pm.HitsTotal, pm.MissesTotal, pm.EvictionsTotal, pm.ExpirationsTotal}
}

// MustCurryWith returns the metrics with the curried label values bound.
func (pm *PrometheusMetrics) MustCurryWith(labels prometheus.Labels) *PrometheusMetrics {
	return &PrometheusMetrics{
		EntriesAmount:    pm.EntriesAmount.MustCurryWith(labels),
		HitsTotal:        pm.HitsTotal.MustCurryWith(labels),
		MissesTotal:      pm.MissesTotal.MustCurryWith(labels),
		EvictionsTotal:   pm.EvictionsTotal.MustCurryWith(labels),
		ExpirationsTotal: pm.ExpirationsTotal.MustCurryWith(labels),
	}
}

// MustRegister registers the metrics in the default Prometheus registry and panics on error.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.collectors()...)
}

// Unregister removes the metrics from the default Prometheus registry.
func (pm *PrometheusMetrics) Unregister() {
	for _, c := range pm.collectors() {
		prometheus.Unregister(c)
	}
}

// SetAmount implements MetricsCollector.
func (pm *PrometheusMetrics) SetAmount(amount int) { pm.EntriesAmount.With(nil).Set(float64(amount)) }

// IncHits implements MetricsCollector.
func (pm *PrometheusMetrics) IncHits() { pm.HitsTotal.With(nil).Inc() }

// IncMisses implements MetricsCollector.
func (pm *PrometheusMetrics) IncMisses() { pm.MissesTotal.With(nil).Inc() }

// AddEvictions implements MetricsCollector.
func (pm *PrometheusMetrics) AddEvictions(n int) { pm.EvictionsTotal.With(nil).Add(float64(n)) }

// AddExpirations implements MetricsCollector.
func (pm *PrometheusMetrics) AddExpirations(n int) { pm.ExpirationsTotal.With(nil).Add(float64(n)) }

type disabledMetrics struct{}

func (disabledMetrics) SetAmount(int)      {}
func (disabledMetrics) IncHits()           {}
func (disabledMetrics) IncMisses()         {}
func (disabledMetrics) AddEvictions(int)   {}
func (disabledMetrics) AddExpirations(int) {}
