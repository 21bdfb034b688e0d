/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

// Unit is a part of the service with its own lifecycle (HTTP server, profiling server, background worker, etc.).
type Unit interface {
	// Start runs the unit. It may return immediately or block for the whole unit lifetime.
	// An error that prevents the unit from working is sent to fatalErr, nothing is sent on success.
	// The channel must not be used after Start returns.
	Start(fatalErr chan<- error)

	// Stop stops the unit. It may be called even if Start has failed or has never been called.
	Stop(gracefully bool) error
}

// MetricsRegisterer is implemented by units that own Prometheus collectors.
type MetricsRegisterer interface {
	MustRegisterMetrics()
	UnregisterMetrics()
}
