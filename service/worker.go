/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/acronis/go-lookupcache/log"
)

// ErrPeriodicWorkerStop may be returned by the worker to finish the PeriodicWorker loop without an error.
var ErrPeriodicWorkerStop = errors.New("stop periodic worker")

// Worker does a piece of work. Run should return when ctx is done.
type Worker interface {
	Run(ctx context.Context) error
}

// WorkerFunc allows using ordinary functions as Worker.
type WorkerFunc func(ctx context.Context) error

// Run calls f(ctx).
func (f WorkerFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// PeriodicWorkerOpts contains optional parameters for PeriodicWorker.
type PeriodicWorkerOpts struct {
	// InitialDelay is a delay before the first run. The first run happens immediately by default.
	InitialDelay time.Duration
	// Name is added to the log entries of the worker.
	Name string
}

// PeriodicWorker runs the underlying worker with the fixed interval until the context is done.
// Errors of the underlying worker are logged and don't break the loop.
type PeriodicWorker struct {
	worker   Worker
	interval time.Duration
	logger   log.FieldLogger
	opts     PeriodicWorkerOpts
}

var _ Worker = (*PeriodicWorker)(nil)

// NewPeriodicWorker creates a new PeriodicWorker.
func NewPeriodicWorker(worker Worker, interval time.Duration, logger log.FieldLogger) *PeriodicWorker {
	return NewPeriodicWorkerWithOpts(worker, interval, logger, PeriodicWorkerOpts{})
}

// NewPeriodicWorkerWithOpts creates a new PeriodicWorker with the optional parameters.
func NewPeriodicWorkerWithOpts(
	worker Worker, interval time.Duration, logger log.FieldLogger, opts PeriodicWorkerOpts,
) *PeriodicWorker {
	if opts.Name != "" {
		logger = logger.With(log.String("worker", opts.Name))
	}
	return &PeriodicWorker{worker: worker, interval: interval, logger: logger, opts: opts}
}

// Run runs the loop. It returns nil when ctx is done or the worker returns ErrPeriodicWorkerStop.
func (pw *PeriodicWorker) Run(ctx context.Context) error {
	defer func() {
		if p := recover(); p != nil {
			const logStackSize = 8192
			stack := make([]byte, logStackSize)
			stack = stack[:runtime.Stack(stack, false)]
			pw.logger.Error(fmt.Sprintf("periodic worker panic: %+v", p), log.Bytes("stack", stack))
			panic(p)
		}
	}()

	pw.logger.Info("periodic worker started",
		log.Duration("initial_delay", pw.opts.InitialDelay), log.Duration("interval", pw.interval))

	timer := time.NewTimer(pw.opts.InitialDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			pw.logger.Info("periodic worker stopped")
			return nil
		case <-timer.C:
		}

		if err := pw.worker.Run(ctx); err != nil {
			if errors.Is(err, ErrPeriodicWorkerStop) {
				pw.logger.Info("periodic worker stopped by the underlying worker")
				return nil
			}
			pw.logger.Error("periodic worker iteration failed", log.Error(err))
		}
		timer.Reset(pw.interval)
	}
}
