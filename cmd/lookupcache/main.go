/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Command lookupcache runs the users API accelerated by the in-process lookup cache.
package main

import (
	"context"
	"flag"
	"fmt"
	golog "log"
	"os"
	"time"

	"github.com/acronis/go-lookupcache/httpserver"
	"github.com/acronis/go-lookupcache/log"
	"github.com/acronis/go-lookupcache/lookup"
	"github.com/acronis/go-lookupcache/profserver"
	"github.com/acronis/go-lookupcache/restapi"
	"github.com/acronis/go-lookupcache/service"
	"github.com/acronis/go-lookupcache/userapi"
	"github.com/acronis/go-lookupcache/userstore"
)

const (
	serviceName        = "lookupcache"
	metricsNamespace   = "lookupcache"
	cfgPathEnvVar      = "LOOKUPCACHE_CONFIG"
	healthCheckTimeout = 5 * time.Second
)

func main() {
	cfgPath := flag.String("config", os.Getenv(cfgPathEnvVar), "path to the configuration file (YAML or JSON)")
	flag.Parse()

	if err := runApp(*cfgPath); err != nil {
		golog.Fatal(err)
	}
}

func runApp(cfgPath string) error {
	cfg, err := loadAppConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, loggerClose := log.NewLogger(cfg.Log)
	defer loggerClose()

	store, storeClose, err := userstore.New(context.Background(), cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("create user store: %w", err)
	}
	defer storeClose()

	lookupMetrics := lookup.NewPrometheusMetrics(lookup.PrometheusMetricsOpts{Namespace: metricsNamespace})
	lookupMetrics.MustRegisterMetrics()
	defer lookupMetrics.UnregisterMetrics()

	restapi.MustInitAndRegisterMetrics(metricsNamespace)
	defer restapi.UnregisterMetrics()

	users, err := lookup.New[userstore.User](store, cfg.Cache, logger, lookupMetrics.Opts())
	if err != nil {
		return fmt.Errorf("create lookup service: %w", err)
	}

	httpServer, err := makeHTTPServer(cfg.Server, logger, userapi.NewHandler(users, store), store)
	if err != nil {
		return fmt.Errorf("create http server: %w", err)
	}
	serviceUnits := []service.Unit{httpServer}

	if cfg.ProfServer.Enabled {
		serviceUnits = append(serviceUnits, profserver.New(cfg.ProfServer, logger))
	}
	if reporterUnit := lookup.NewStatsReporterUnit(
		users, time.Duration(cfg.Cache.StatsLogInterval), logger,
	); reporterUnit != nil {
		serviceUnits = append(serviceUnits, reporterUnit)
	}

	logger.Info("starting service", log.String("address", cfg.Server.Address),
		log.Int("cache_capacity", cfg.Cache.Capacity), log.Duration("cache_ttl", time.Duration(cfg.Cache.TTL)))

	return service.New(logger, service.NewCompositeUnit(serviceUnits...)).Start()
}

func makeHTTPServer(
	cfg *httpserver.Config, logger log.FieldLogger, handler *userapi.Handler, store userstore.Store,
) (*httpserver.HTTPServer, error) {
	return httpserver.New(cfg, logger, httpserver.Opts{
		ServiceNameInURL: serviceName,
		ErrorDomain:      userapi.ErrorDomain,
		APIRoutes: map[httpserver.APIVersion]httpserver.APIRoute{
			1: handler.Routes,
		},
		HealthCheck: func(ctx context.Context) (httpserver.HealthCheckResult, error) {
			return checkStoreHealth(ctx, store, logger), nil
		},
		HTTPRequestMetrics: httpserver.HTTPRequestMetricsOpts{Namespace: metricsNamespace},
	})
}

type pinger interface {
	Ping(ctx context.Context) error
}

func checkStoreHealth(ctx context.Context, store pinger, logger log.FieldLogger) httpserver.HealthCheckResult {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := httpserver.HealthCheckStatusOK
	if err := store.Ping(ctx); err != nil {
		logger.Warn("user store health check failed", log.Error(err))
		status = httpserver.HealthCheckStatusFail
	}
	return httpserver.HealthCheckResult{"store": status}
}
