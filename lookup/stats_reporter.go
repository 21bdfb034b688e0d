/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package lookup

import (
	"context"
	"time"

	"github.com/acronis/go-lookupcache/log"
	"github.com/acronis/go-lookupcache/service"
)

// StatsReporter logs the stats snapshot each time it runs.
// It's supposed to be run periodically via service.PeriodicWorker.
type StatsReporter struct {
	provider StatsProvider
	logger   log.FieldLogger
}

var _ service.Worker = (*StatsReporter)(nil)

// NewStatsReporter creates a new StatsReporter.
func NewStatsReporter(provider StatsProvider, logger log.FieldLogger) *StatsReporter {
	return &StatsReporter{provider: provider, logger: logger}
}

// Run logs the current stats snapshot.
func (r *StatsReporter) Run(_ context.Context) error {
	stats := r.provider.StatsSnapshot()
	fields := []log.Field{
		log.Int("cache_size", stats.Cache.Size),
		log.Int("cache_capacity", stats.Cache.Capacity),
		log.Uint64("cache_hits", stats.Cache.Hits),
		log.Uint64("cache_misses", stats.Cache.Misses),
		log.Uint64("cache_evictions", stats.Cache.Evictions),
		log.Uint64("cache_expirations", stats.Cache.Expirations),
		log.String("cache_hit_rate", stats.Cache.HitRate),
		log.Uint64("coalescer_total_requests", stats.Coalescer.TotalRequests),
		log.Uint64("coalescer_deduplicated_requests", stats.Coalescer.DeduplicatedRequests),
		log.Int("coalescer_pending", stats.Coalescer.CurrentPending),
		log.String("coalescer_deduplication_rate", stats.Coalescer.DeduplicationRate),
		log.Int("latency_count", stats.Latency.Count),
	}
	if stats.Latency.HasData() {
		fields = append(fields,
			log.Duration("latency_avg", stats.Latency.Average),
			log.Duration("latency_min", stats.Latency.Min),
			log.Duration("latency_max", stats.Latency.Max),
			log.Duration("latency_p95", stats.Latency.P95),
		)
	}
	r.logger.Info("lookup stats", fields...)
	return nil
}

// NewStatsReporterUnit creates a service.Unit that logs the stats snapshot with the passed interval.
// It returns nil if the interval is not positive.
func NewStatsReporterUnit(provider StatsProvider, interval time.Duration, logger log.FieldLogger) service.Unit {
	if interval <= 0 {
		return nil
	}
	reporter := NewStatsReporter(provider, logger)
	return service.NewWorkerUnit(service.NewPeriodicWorkerWithOpts(
		reporter, interval, logger, service.PeriodicWorkerOpts{InitialDelay: interval, Name: "lookup-stats-reporter"}))
}
