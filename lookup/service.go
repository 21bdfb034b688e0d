/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package lookup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/acronis/go-lookupcache/coalescer"
	"github.com/acronis/go-lookupcache/latency"
	"github.com/acronis/go-lookupcache/log"
	"github.com/acronis/go-lookupcache/lrucache"
)

// Backend is a slow source of entities, e.g. a database.
type Backend[V any] interface {
	// Fetch returns the entity by the key.
	// If there is no such entity, the returned error must satisfy errors.Is(err, ErrNotFound).
	Fetch(ctx context.Context, key string) (V, error)
}

// BackendFunc is an adapter to allow the use of ordinary functions as Backend.
type BackendFunc[V any] func(ctx context.Context, key string) (V, error)

// Fetch calls f(ctx, key).
func (f BackendFunc[V]) Fetch(ctx context.Context, key string) (V, error) {
	return f(ctx, key)
}

// Source describes where the value returned by Lookup came from.
type Source string

// Lookup sources.
const (
	SourceCache   Source = "cache"
	SourceBacking Source = "backing"
)

// Result is a result of Lookup.
type Result[V any] struct {
	Value   V
	Source  Source
	Elapsed time.Duration

	// Shared is true when the backend call was shared with other concurrent lookups of the same key.
	Shared bool
}

// Cached reports whether the value was served from the cache.
func (r Result[V]) Cached() bool {
	return r.Source == SourceCache
}

// Opts represents optional parameters for the Service.
type Opts struct {
	CacheMetrics     lrucache.MetricsCollector
	CoalescerMetrics coalescer.MetricsCollector
	LatencyMetrics   latency.MetricsCollector

	// Now returns the current time. It's used for entries expiration and latency measurement.
	// time.Now is used if it's not set.
	Now func() time.Time
}

// Service is a read-through cache in front of the Backend.
// Concurrent misses for the same key result in a single Backend call.
type Service[V any] struct {
	backend   Backend[V]
	cache     *lrucache.LRUCache[string, V]
	coalescer *coalescer.Coalescer[string, V]
	tracker   *latency.Tracker
	logger    log.FieldLogger
	now       func() time.Time
}

// New creates a new Service.
// If cfg is nil, default configuration is used. If logger is nil, logging is disabled.
func New[V any](backend Backend[V], cfg *Config, logger log.FieldLogger, opts Opts) (*Service[V], error) {
	if backend == nil {
		return nil, fmt.Errorf("backend must be set")
	}
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	cache, err := lrucache.NewWithOpts[string, V](
		cfg.Capacity, time.Duration(cfg.TTL), opts.CacheMetrics, lrucache.Options{Now: opts.Now})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	tracker, err := latency.NewTracker(cfg.MetricsWindow, opts.LatencyMetrics)
	if err != nil {
		return nil, fmt.Errorf("create latency tracker: %w", err)
	}

	return &Service[V]{
		backend:   backend,
		cache:     cache,
		coalescer: coalescer.New[string, V](opts.CoalescerMetrics),
		tracker:   tracker,
		logger:    logger,
		now:       opts.Now,
	}, nil
}

// Lookup returns the value by the key from the cache or, on miss, from the Backend.
// A value fetched from the Backend is cached before it is returned.
// Errors are never cached, the next lookup calls the Backend again.
//
// The Backend is called with a context that is not canceled when ctx is canceled,
// since its result may be shared with other callers.
func (s *Service[V]) Lookup(ctx context.Context, key string) (Result[V], error) {
	startTime := s.now()

	if v, ok := s.cache.Get(key); ok {
		elapsed := s.recordSince(startTime)
		s.logger.Debug(fmt.Sprintf("cache hit: %s", key),
			log.String("key", key), log.DurationIn(elapsed, time.Millisecond))
		return Result[V]{Value: v, Source: SourceCache, Elapsed: elapsed}, nil
	}

	s.logger.Info(fmt.Sprintf("cache miss: %s, fetching from backend", key), log.String("key", key))

	backendCtx := context.WithoutCancel(ctx)
	v, shared, err := s.coalescer.Fetch(key, func(k string) (V, error) {
		val, fetchErr := s.backend.Fetch(backendCtx, k)
		if fetchErr != nil {
			if errors.Is(fetchErr, ErrNotFound) {
				return val, fetchErr
			}
			return val, &BackingError{Key: k, Err: fetchErr}
		}
		// Cache is filled before the call settles, so lookups arriving after that hit the cache.
		s.cache.Add(k, val)
		return val, nil
	})
	elapsed := s.recordSince(startTime)
	if err != nil {
		var backingErr *BackingError
		if !errors.Is(err, ErrNotFound) && !errors.As(err, &backingErr) {
			err = &BackingError{Key: key, Err: err} // panic or runtime.Goexit in the shared call
		}
		s.logger.Warn(fmt.Sprintf("backend fetch failed: %s", key), log.String("key", key),
			log.Bool("shared", shared), log.DurationIn(elapsed, time.Millisecond), log.Error(err))
		var zero V
		return Result[V]{Value: zero, Source: SourceBacking, Elapsed: elapsed, Shared: shared}, err
	}

	s.logger.Info(fmt.Sprintf("backend fetch complete: %s", key), log.String("key", key),
		log.Bool("shared", shared), log.DurationIn(elapsed, time.Millisecond))
	return Result[V]{Value: v, Source: SourceBacking, Elapsed: elapsed, Shared: shared}, nil
}

// Put inserts or overwrites the value in the cache.
func (s *Service[V]) Put(key string, value V) {
	s.cache.Add(key, value)
	s.logger.Debug(fmt.Sprintf("cache put: %s", key), log.String("key", key))
}

// Invalidate removes the key from the cache. It returns false if there was no such key.
func (s *Service[V]) Invalidate(key string) bool {
	return s.cache.Remove(key)
}

// InvalidateAll removes all entries from the cache. Cumulative statistics are kept.
func (s *Service[V]) InvalidateAll() {
	s.cache.Purge()
	s.logger.Info("cache cleared")
}

// StatsSnapshot returns statistics of the cache, the coalescer and lookup latencies.
// Each part is consistent on its own, the parts are not captured atomically together.
func (s *Service[V]) StatsSnapshot() StatsSnapshot {
	return StatsSnapshot{
		Cache:     s.cache.Stats(),
		Coalescer: s.coalescer.Stats(),
		Latency:   s.tracker.Summary(),
	}
}

func (s *Service[V]) recordSince(startTime time.Time) time.Duration {
	elapsed := s.now().Sub(startTime)
	s.tracker.Record(elapsed)
	return elapsed
}
