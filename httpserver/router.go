/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acronis/go-lookupcache/httpserver/middleware"
	"github.com/acronis/go-lookupcache/log"
	"github.com/acronis/go-lookupcache/restapi"
)

const (
	metricsEndpoint     = "/metrics"
	healthCheckEndpoint = "/healthz"
)

// systemEndpoints are excluded from request metrics and rate limiting.
var systemEndpoints = []string{metricsEndpoint, healthCheckEndpoint}

// newRouter builds the root router: middlewares, system endpoints and versioned API under /api/<service>/v<N>.
// nolint: gocritic // hugeParam: opts is passed once on startup.
func newRouter(
	cfg *Config, logger log.FieldLogger, opts Opts, promMetrics *middleware.HTTPRequestPrometheusMetrics,
) (chi.Router, error) {
	router := chi.NewRouter()
	if err := useMiddlewares(router, cfg, logger, opts, promMetrics); err != nil {
		return nil, err
	}

	metricsHandler := opts.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	router.Method(http.MethodGet, metricsEndpoint, metricsHandler)
	router.Method(http.MethodGet, healthCheckEndpoint, NewHealthCheckHandler(opts.HealthCheck))

	router.Route("/api/"+opts.ServiceNameInURL, func(api chi.Router) {
		for ver, routes := range opts.APIRoutes {
			api.Route(fmt.Sprintf("/v%d", ver), routes)
		}
	})

	router.NotFound(func(rw http.ResponseWriter, r *http.Request) {
		restapi.RespondError(rw, http.StatusNotFound,
			restapi.NewError(opts.ErrorDomain, restapi.ErrCodeNotFound, restapi.ErrMessageNotFound),
			middleware.GetLoggerFromContext(r.Context()))
	})
	router.MethodNotAllowed(func(rw http.ResponseWriter, r *http.Request) {
		restapi.RespondError(rw, http.StatusMethodNotAllowed,
			restapi.NewError(opts.ErrorDomain, restapi.ErrCodeMethodNotAllowed, restapi.ErrMessageMethodNotAllowed),
			middleware.GetLoggerFromContext(r.Context()))
	})
	return router, nil
}

// useMiddlewares installs the middleware chain. The order matters:
// start time and request ID are needed by logging, the logger is needed by recovery,
// and the rate and body limits reject requests that are still logged and measured.
// nolint: gocritic // hugeParam: opts is passed once on startup.
func useMiddlewares(
	router chi.Router, cfg *Config, logger log.FieldLogger, opts Opts, promMetrics *middleware.HTTPRequestPrometheusMetrics,
) error {
	router.Use(
		middleware.RequestStartTime(time.Now),
		middleware.RequestID(),
		middleware.LoggingWithOpts(logger, middleware.LoggingOpts{
			RequestStart:         cfg.Log.RequestStart,
			ExcludedEndpoints:    cfg.Log.ExcludedEndpoints,
			SlowRequestThreshold: time.Duration(cfg.Log.SlowRequestThreshold),
		}),
		middleware.Recovery(opts.ErrorDomain),
	)

	getRoutePattern := opts.HTTPRequestMetrics.GetRoutePattern
	if getRoutePattern == nil {
		getRoutePattern = GetChiRoutePattern
	}
	router.Use(middleware.HTTPRequestMetricsWithOpts(promMetrics, getRoutePattern,
		middleware.HTTPRequestMetricsOpts{ExcludedEndpoints: systemEndpoints}))

	if cfg.RateLimit.Enabled {
		rateLimitOpts := middleware.RateLimitOpts{
			Alg:               middleware.RateLimitAlg(cfg.RateLimit.Alg),
			MaxBurst:          cfg.RateLimit.Burst,
			MaxKeys:           cfg.RateLimit.MaxKeys,
			ExcludedEndpoints: systemEndpoints,
		}
		if cfg.RateLimit.ByClientIP {
			rateLimitOpts.GetKey = middleware.RateLimitKeyByClientIP
			rateLimitOpts.ExcludedKeys = cfg.RateLimit.ExcludedClients
		}
		rate := middleware.Rate{Count: cfg.RateLimit.Rate, Duration: time.Duration(cfg.RateLimit.Per)}
		rateLimit, err := middleware.RateLimit(rate, opts.ErrorDomain, rateLimitOpts)
		if err != nil {
			return fmt.Errorf("create rate limit middleware: %w", err)
		}
		router.Use(rateLimit)
	}

	if cfg.Limits.MaxBodySizeBytes > 0 {
		router.Use(middleware.RequestBodyLimit(uint64(cfg.Limits.MaxBodySizeBytes), opts.ErrorDomain))
	}
	return nil
}

// GetChiRoutePattern returns the chi route pattern ("/api/lookupcache/v1/users/{id}") matched by the request.
// It is used as the path label of the request metrics, so it must not contain raw IDs.
func GetChiRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}

	// The metrics middleware runs before routing is finished, so match the path again.
	path := r.URL.RawPath
	if path == "" {
		path = r.URL.Path
	}
	matchCtx := chi.NewRouteContext()
	if !rctx.Routes.Match(matchCtx, r.Method, path) {
		return ""
	}
	return matchCtx.RoutePattern()
}
