/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package profserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/atomic"

	"github.com/acronis/go-lookupcache/httpserver/middleware"
	"github.com/acronis/go-lookupcache/log"
	"github.com/acronis/go-lookupcache/service"
)

const readHeaderTimeout = 5 * time.Second

// ProfServer serves pprof and expvar endpoints under /debug on a separate address.
// It implements service.Unit interface.
type ProfServer struct {
	URL        string
	HTTPServer *http.Server
	Logger     log.FieldLogger

	served atomic.Value
}

var _ service.Unit = (*ProfServer)(nil)

// New creates a profiling server. Requests to it are logged but not measured.
func New(cfg *Config, logger log.FieldLogger) *ProfServer {
	router := chi.NewRouter()
	router.Use(middleware.RequestID(), middleware.Logging(logger))
	router.Mount("/debug", chimiddleware.Profiler())

	return &ProfServer{
		URL:        "http://" + cfg.Address,
		HTTPServer: &http.Server{Addr: cfg.Address, Handler: router, ReadHeaderTimeout: readHeaderTimeout},
		Logger:     logger.With(log.String("address", cfg.Address)),
	}
}

// Start listens and serves until Stop is called. It blocks, so it should be called in a separate goroutine.
func (s *ProfServer) Start(fatalError chan<- error) {
	served := make(chan struct{})
	defer close(served)
	s.served.Store(served)

	s.Logger.Info("starting profiling HTTP server")
	err := s.HTTPServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		s.Logger.Info("profiling HTTP server closed")
		return
	}
	s.Logger.Error("profiling HTTP server error", log.Error(err))
	fatalError <- err
}

// Stop closes the server immediately. Profiles being collected are interrupted even if gracefully is true.
func (s *ProfServer) Stop(gracefully bool) error {
	s.Logger.Info("closing profiling HTTP server", log.Bool("gracefully", gracefully))
	if err := s.HTTPServer.Close(); err != nil {
		s.Logger.Error("profiling HTTP server closing error", log.Error(err))
		return err
	}
	if served, ok := s.served.Load().(chan struct{}); ok {
		<-served
	}
	return nil
}
