/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"

	"github.com/acronis/go-lookupcache/httpserver/middleware"
	"github.com/acronis/go-lookupcache/log"
	"github.com/acronis/go-lookupcache/service"
)

// APIVersion is a version number of the API mounted at /api/<service>/v<APIVersion>.
type APIVersion = int

// APIRoute registers handlers of a single API version.
type APIRoute = func(router chi.Router)

// HTTPRequestMetricsOpts configures collecting of the incoming request metrics.
type HTTPRequestMetricsOpts struct {
	Namespace       string
	DurationBuckets []float64
	ConstLabels     prometheus.Labels

	// GetRoutePattern is GetChiRoutePattern by default.
	GetRoutePattern middleware.RoutePatternGetterFunc
}

// Opts represents options for creating HTTPServer.
type Opts struct {
	// ServiceNameInURL is a path segment of the API routes ("/api/<ServiceNameInURL>/v1").
	ServiceNameInURL string
	APIRoutes        map[APIVersion]APIRoute

	// ErrorDomain is set in the error responses produced by the server itself.
	ErrorDomain string

	// HealthCheck is served at /healthz. Nil check reports no components.
	HealthCheck HealthCheck

	// MetricsHandler is served at /metrics. promhttp.Handler is used by default.
	MetricsHandler http.Handler

	HTTPRequestMetrics HTTPRequestMetricsOpts

	// Listener is used instead of listening on Config.Address.
	Listener net.Listener
}

// HTTPServer wraps http.Server with the router, graceful shutdown and request metrics.
// It implements service.Unit and service.MetricsRegisterer interfaces.
type HTTPServer struct {
	URL             string
	HTTPServer      *http.Server
	TLS             TLSConfig
	HTTPRouter      chi.Router
	Logger          log.FieldLogger
	ShutdownTimeout time.Duration

	listener    net.Listener
	port        atomic.Int32
	served      atomic.Value
	promMetrics *middleware.HTTPRequestPrometheusMetrics
}

var _ service.Unit = (*HTTPServer)(nil)
var _ service.MetricsRegisterer = (*HTTPServer)(nil)

// New creates HTTPServer with request logging, metrics, rate limiting, panic recovery and health-checking.
// nolint: gocritic // hugeParam: opts is passed once on startup.
func New(cfg *Config, logger log.FieldLogger, opts Opts) (*HTTPServer, error) {
	promMetrics := middleware.NewHTTPRequestPrometheusMetricsWithOpts(middleware.HTTPRequestPrometheusMetricsOpts{
		Namespace:       opts.HTTPRequestMetrics.Namespace,
		DurationBuckets: opts.HTTPRequestMetrics.DurationBuckets,
		ConstLabels:     opts.HTTPRequestMetrics.ConstLabels,
	})
	router, err := newRouter(cfg, logger, opts, promMetrics)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadTimeout:       time.Duration(cfg.Timeouts.Read),
		ReadHeaderTimeout: time.Duration(cfg.Timeouts.ReadHeader),
		WriteTimeout:      time.Duration(cfg.Timeouts.Write),
		IdleTimeout:       time.Duration(cfg.Timeouts.Idle),
	}
	url := "http://" + srv.Addr
	if cfg.TLS.Enabled {
		url = "https://" + srv.Addr
	}
	return &HTTPServer{
		URL:             url,
		HTTPServer:      srv,
		TLS:             cfg.TLS,
		HTTPRouter:      router,
		Logger:          logger,
		ShutdownTimeout: time.Duration(cfg.Timeouts.Shutdown),
		listener:        opts.Listener,
		promMetrics:     promMetrics,
	}, nil
}

// Start serves HTTP requests until the server is stopped. It blocks, so it should be called in a separate goroutine.
// Any error except closing is logged and sent to fatalError.
func (s *HTTPServer) Start(fatalError chan<- error) {
	served := make(chan struct{})
	defer close(served)
	s.served.Store(served)

	logger := s.Logger.With(
		log.String("address", s.HTTPServer.Addr),
		log.Bool("tls", s.TLS.Enabled),
		log.Duration("read_timeout", s.HTTPServer.ReadTimeout),
		log.Duration("write_timeout", s.HTTPServer.WriteTimeout),
		log.Duration("shutdown_timeout", s.ShutdownTimeout),
	)
	logger.Info("starting API server...")

	if err := s.serve(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info("API server closed")
			return
		}
		logger.Error("API server error", log.Error(err))
		fatalError <- err
	}
}

func (s *HTTPServer) serve() error {
	if s.listener == nil {
		ln, err := net.Listen("tcp", s.HTTPServer.Addr)
		if err != nil {
			return err
		}
		s.listener = ln
	}
	if _, portStr, err := net.SplitHostPort(s.listener.Addr().String()); err == nil {
		if port, parseErr := strconv.Atoi(portStr); parseErr == nil {
			s.port.Store(int32(port)) // nolint: gosec // port number fits int32
		}
	}
	if s.TLS.Enabled {
		return s.HTTPServer.ServeTLS(s.listener, s.TLS.Certificate, s.TLS.Key)
	}
	return s.HTTPServer.Serve(s.listener)
}

// Stop stops the server. Graceful stop waits for the active requests for up to ShutdownTimeout.
func (s *HTTPServer) Stop(gracefully bool) error {
	if gracefully {
		ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
		defer cancel()
		s.Logger.Info("shutting down API server...", log.Duration("timeout", s.ShutdownTimeout))
		if err := s.HTTPServer.Shutdown(ctx); err != nil {
			s.Logger.Error("API server shutting down error", log.Error(err))
			return err
		}
		s.Logger.Info("API server shut down")
	} else {
		s.Logger.Info("closing API server...")
		if err := s.HTTPServer.Close(); err != nil {
			s.Logger.Error("API server closing error", log.Error(err))
			return err
		}
	}
	if served, ok := s.served.Load().(chan struct{}); ok {
		<-served
	}
	return nil
}

// GetPort returns the port the server listens on. It's 0 until the server is started.
func (s *HTTPServer) GetPort() int {
	return int(s.port.Load())
}

// MustRegisterMetrics registers request metrics in Prometheus and panics if any error occurs.
func (s *HTTPServer) MustRegisterMetrics() {
	s.promMetrics.MustRegister()
}

// UnregisterMetrics unregisters request metrics from Prometheus.
func (s *HTTPServer) UnregisterMetrics() {
	s.promMetrics.Unregister()
}
