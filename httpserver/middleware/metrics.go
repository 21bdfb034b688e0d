/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	httpRequestMetricsLabelMethod       = "method"
	httpRequestMetricsLabelRoutePattern = "route_pattern"
	httpRequestMetricsLabelStatusCode   = "status_code"
)

// DefaultHTTPRequestDurationBuckets are histogram buckets (in seconds) of the request durations.
var DefaultHTTPRequestDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// HTTPRequestPrometheusMetricsOpts configures HTTPRequestPrometheusMetrics.
type HTTPRequestPrometheusMetricsOpts struct {
	Namespace string

	// DurationBuckets are DefaultHTTPRequestDurationBuckets if nil.
	DurationBuckets []float64

	ConstLabels prometheus.Labels
}

// HTTPRequestPrometheusMetrics holds durations of the served requests and the number of requests in flight.
type HTTPRequestPrometheusMetrics struct {
	Durations *prometheus.HistogramVec
	InFlight  *prometheus.GaugeVec
}

// NewHTTPRequestPrometheusMetrics creates the metrics with default options.
func NewHTTPRequestPrometheusMetrics() *HTTPRequestPrometheusMetrics {
	return NewHTTPRequestPrometheusMetricsWithOpts(HTTPRequestPrometheusMetricsOpts{})
}

// NewHTTPRequestPrometheusMetricsWithOpts creates the metrics. They are not registered.
func NewHTTPRequestPrometheusMetricsWithOpts(opts HTTPRequestPrometheusMetricsOpts) *HTTPRequestPrometheusMetrics {
	buckets := opts.DurationBuckets
	if buckets == nil {
		buckets = DefaultHTTPRequestDurationBuckets
	}
	durations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "http_request_duration_seconds",
			Help:        "A histogram of the HTTP request durations.",
			Buckets:     buckets,
			ConstLabels: opts.ConstLabels,
		},
		[]string{httpRequestMetricsLabelMethod, httpRequestMetricsLabelRoutePattern, httpRequestMetricsLabelStatusCode},
	)
	inFlight := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "http_requests_in_flight",
			Help:        "Current number of HTTP requests being served.",
			ConstLabels: opts.ConstLabels,
		},
		[]string{httpRequestMetricsLabelMethod},
	)
	return &HTTPRequestPrometheusMetrics{Durations: durations, InFlight: inFlight}
}

// MustRegister registers the metrics in the default Prometheus registry and panics on error.
func (pm *HTTPRequestPrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.Durations, pm.InFlight)
}

// Unregister removes the metrics from the default Prometheus registry.
func (pm *HTTPRequestPrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.InFlight)
	prometheus.Unregister(pm.Durations)
}

func (pm *HTTPRequestPrometheusMetrics) observeRequest(method, routePattern string, status int, duration time.Duration) {
	pm.Durations.With(prometheus.Labels{
		httpRequestMetricsLabelMethod:       method,
		httpRequestMetricsLabelRoutePattern: routePattern,
		httpRequestMetricsLabelStatusCode:   strconv.Itoa(status),
	}).Observe(duration.Seconds())
}

// HTTPRequestMetricsOpts configures HTTPRequestMetricsWithOpts.
type HTTPRequestMetricsOpts struct {
	// ExcludedEndpoints are URL paths that are not measured.
	ExcludedEndpoints []string
}

type httpRequestMetricsHandler struct {
	next            http.Handler
	metrics         *HTTPRequestPrometheusMetrics
	getRoutePattern RoutePatternGetterFunc
	opts            HTTPRequestMetricsOpts
}

// HTTPRequestMetrics measures every request. Requests are labeled by the route pattern, so raw IDs never become label values.
func HTTPRequestMetrics(
	metrics *HTTPRequestPrometheusMetrics, getRoutePattern RoutePatternGetterFunc,
) func(next http.Handler) http.Handler {
	return HTTPRequestMetricsWithOpts(metrics, getRoutePattern, HTTPRequestMetricsOpts{})
}

// HTTPRequestMetricsWithOpts is HTTPRequestMetrics with options. getRoutePattern must not be nil.
func HTTPRequestMetricsWithOpts(
	metrics *HTTPRequestPrometheusMetrics, getRoutePattern RoutePatternGetterFunc, opts HTTPRequestMetricsOpts,
) func(next http.Handler) http.Handler {
	if getRoutePattern == nil {
		panic("function for getting route pattern cannot be nil")
	}
	return func(next http.Handler) http.Handler {
		return &httpRequestMetricsHandler{next: next, metrics: metrics, getRoutePattern: getRoutePattern, opts: opts}
	}
}

func (h *httpRequestMetricsHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	if isEndpointExcluded(r.URL.Path, h.opts.ExcludedEndpoints) {
		h.next.ServeHTTP(rw, r)
		return
	}

	startTime := GetRequestStartTimeFromContext(r.Context())
	if startTime.IsZero() {
		startTime = time.Now()
		r = r.WithContext(NewContextWithRequestStartTime(r.Context(), startTime))
	}

	inFlightGauge := h.metrics.InFlight.WithLabelValues(r.Method)
	inFlightGauge.Inc()
	defer inFlightGauge.Dec()

	wrw := WrapResponseWriterIfNeeded(rw, r.ProtoMajor)
	defer func() {
		// Route pattern is known only after the request is routed.
		routePattern := h.getRoutePattern(r)
		if p := recover(); p != nil {
			if p != http.ErrAbortHandler {
				h.metrics.observeRequest(r.Method, routePattern, http.StatusInternalServerError, time.Since(startTime))
			}
			panic(p)
		}
		h.metrics.observeRequest(r.Method, routePattern, responseStatus(wrw), time.Since(startTime))
	}()

	h.next.ServeHTTP(wrw, r)
}
