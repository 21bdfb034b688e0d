/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import "github.com/prometheus/client_golang/prometheus"

const (
	metricsLabelResponseErrorDomain = "domain"
	metricsLabelResponseErrorCode   = "code"
)

var metricsResponseErrors *prometheus.CounterVec

// MustInitAndRegisterMetrics creates the response errors counter and registers it in the default registry.
// It panics if the counter is already registered.
func MustInitAndRegisterMetrics(namespace string) {
	metricsResponseErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "restapi",
		Name:      "response_errors",
		Help:      "Number of error responses by domain and code.",
	}, []string{metricsLabelResponseErrorDomain, metricsLabelResponseErrorCode})
	prometheus.MustRegister(metricsResponseErrors)
}

// UnregisterMetrics removes the response errors counter from the default registry.
// Errors are not counted after that.
func UnregisterMetrics() {
	if metricsResponseErrors != nil {
		prometheus.Unregister(metricsResponseErrors)
		metricsResponseErrors = nil
	}
}

func responseErrorsCounter(domain, code string) prometheus.Counter {
	if metricsResponseErrors == nil {
		return noopCounter{}
	}
	return metricsResponseErrors.With(prometheus.Labels{
		metricsLabelResponseErrorDomain: domain,
		metricsLabelResponseErrorCode:   code,
	})
}

// noopCounter is used while the metrics are not registered.
type noopCounter struct {
	prometheus.Counter
}

func (noopCounter) Inc() {}
