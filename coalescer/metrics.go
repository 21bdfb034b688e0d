/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package coalescer

import "github.com/prometheus/client_golang/prometheus"

// MetricsCollector represents a collector of metrics to analyze how effectively concurrent requests are coalesced.
type MetricsCollector interface {
	// IncRequests increments the total number of fetch requests.
	IncRequests()

	// IncDeduplicated increments the number of requests served by joining a call in flight.
	IncDeduplicated()

	// SetInFlight sets the number of keys with a call in flight.
	SetInFlight(int)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels

	// CurriedLabelNames is a list of label names that will be curried with the provided labels.
	// See PrometheusMetrics.MustCurryWith method for more details.
	CurriedLabelNames []string
}

// PrometheusMetrics represents a Prometheus metrics for the coalescer.
type PrometheusMetrics struct {
	RequestsTotal     *prometheus.CounterVec
	DeduplicatedTotal *prometheus.CounterVec
	InFlight          *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "coalescer_requests_total",
			Help:        "Number of fetch requests passed through the coalescer.",
			ConstLabels: opts.ConstLabels,
		},
		opts.CurriedLabelNames,
	)

	deduplicatedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "coalescer_deduplicated_requests_total",
			Help:        "Number of fetch requests served by a call already in flight.",
			ConstLabels: opts.ConstLabels,
		},
		opts.CurriedLabelNames,
	)

	inFlight := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "coalescer_in_flight_calls",
			Help:        "Number of keys with a fetch call in flight.",
			ConstLabels: opts.ConstLabels,
		},
		opts.CurriedLabelNames,
	)

	return &PrometheusMetrics{
		RequestsTotal:     requestsTotal,
		DeduplicatedTotal: deduplicatedTotal,
		InFlight:          inFlight,
	}
}

// MustCurryWith curries the metrics collector with the provided labels.
func (pm *PrometheusMetrics) MustCurryWith(labels prometheus.Labels) *PrometheusMetrics {
	return &PrometheusMetrics{
		RequestsTotal:     pm.RequestsTotal.MustCurryWith(labels),
		DeduplicatedTotal: pm.DeduplicatedTotal.MustCurryWith(labels),
		InFlight:          pm.InFlight.MustCurryWith(labels),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.RequestsTotal, pm.DeduplicatedTotal, pm.InFlight)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.RequestsTotal)
	prometheus.Unregister(pm.DeduplicatedTotal)
	prometheus.Unregister(pm.InFlight)
}

// IncRequests increments the total number of fetch requests.
func (pm *PrometheusMetrics) IncRequests() {
	pm.RequestsTotal.With(nil).Inc()
}

// IncDeduplicated increments the number of requests served by joining a call in flight.
func (pm *PrometheusMetrics) IncDeduplicated() {
	pm.DeduplicatedTotal.With(nil).Inc()
}

// SetInFlight sets the number of keys with a call in flight.
func (pm *PrometheusMetrics) SetInFlight(n int) {
	pm.InFlight.With(nil).Set(float64(n))
}

type disabledMetrics struct{}

func (disabledMetrics) IncRequests()     {}
func (disabledMetrics) IncDeduplicated() {}
func (disabledMetrics) SetInFlight(int)  {}
