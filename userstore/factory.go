/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package userstore

import (
	"context"
	"fmt"

	"github.com/acronis/go-lookupcache/log"
)

// New creates the store according to the configuration.
// The returned close function must be called when the store is not needed anymore.
func New(ctx context.Context, cfg *Config, logger log.FieldLogger) (store Store, closeFn func(), err error) {
	closeFn = func() {}
	switch cfg.Driver {
	case DriverMemory, "":
		if store, err = NewMemoryStore(cfg.Memory.Latency, cfg.Memory.Seed); err != nil {
			return nil, nil, fmt.Errorf("create memory store: %w", err)
		}
		logger.Info("using in-memory user store",
			log.Int("users", len(cfg.Memory.Seed)), log.Duration("latency", cfg.Memory.Latency))
	case DriverPostgres:
		pgStore, pgErr := NewPostgresStore(ctx, cfg.Postgres)
		if pgErr != nil {
			return nil, nil, pgErr
		}
		if cfg.Postgres.EnsureSchema {
			if err = pgStore.EnsureSchema(ctx); err != nil {
				pgStore.Close()
				return nil, nil, err
			}
		}
		store, closeFn = pgStore, pgStore.Close
		logger.Info("using postgres user store")
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	if cfg.Retry.MaxAttempts > 0 {
		store = NewRetryingBackend(store, ExponentialBackoffPolicy{
			InitialInterval: cfg.Retry.InitialInterval,
			MaxInterval:     cfg.Retry.MaxInterval,
			MaxAttempts:     cfg.Retry.MaxAttempts,
		}, logger)
	}
	return store, closeFn, nil
}
