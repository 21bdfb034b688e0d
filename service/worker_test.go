/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/acronis/go-lookupcache/log"
	"github.com/acronis/go-lookupcache/log/logtest"
)

func runInBackground(ctx context.Context, w Worker) <-chan error {
	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(ctx) }()
	return runErr
}

func TestPeriodicWorker_Run(t *testing.T) {
	t.Run("runs until context is done", func(t *testing.T) {
		var runs atomic.Int32
		pw := NewPeriodicWorker(WorkerFunc(func(context.Context) error {
			runs.Inc()
			return nil
		}), 10*time.Millisecond, log.NewDisabledLogger())

		ctx, cancel := context.WithCancel(context.Background())
		runErr := runInBackground(ctx, pw)
		require.Eventually(t, func() bool { return runs.Load() >= 3 }, 3*time.Second, time.Millisecond)
		cancel()
		require.NoError(t, <-runErr)
	})

	t.Run("first run is delayed", func(t *testing.T) {
		var runs atomic.Int32
		pw := NewPeriodicWorkerWithOpts(WorkerFunc(func(context.Context) error {
			runs.Inc()
			return nil
		}), 10*time.Millisecond, log.NewDisabledLogger(), PeriodicWorkerOpts{InitialDelay: time.Hour})

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		require.NoError(t, <-runInBackground(ctx, pw))
		require.Equal(t, int32(0), runs.Load())
	})

	t.Run("stops by ErrPeriodicWorkerStop", func(t *testing.T) {
		var runs atomic.Int32
		pw := NewPeriodicWorker(WorkerFunc(func(context.Context) error {
			if runs.Inc() == 2 {
				return ErrPeriodicWorkerStop
			}
			return nil
		}), time.Millisecond, log.NewDisabledLogger())

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		require.NoError(t, <-runInBackground(ctx, pw))
		require.Equal(t, int32(2), runs.Load())
		require.NoError(t, ctx.Err())
	})

	t.Run("errors are logged and don't break the loop", func(t *testing.T) {
		logRecorder := logtest.NewRecorder()
		var runs atomic.Int32
		pw := NewPeriodicWorkerWithOpts(WorkerFunc(func(context.Context) error {
			if runs.Inc() == 1 {
				return errors.New("store is unavailable")
			}
			return nil
		}), time.Millisecond, logRecorder, PeriodicWorkerOpts{Name: "reporter"})

		ctx, cancel := context.WithCancel(context.Background())
		runErr := runInBackground(ctx, pw)
		require.Eventually(t, func() bool { return runs.Load() >= 2 }, 3*time.Second, time.Millisecond)
		cancel()
		require.NoError(t, <-runErr)

		entry, found := logRecorder.FindEntry("periodic worker iteration failed")
		require.True(t, found)
		workerField, found := entry.FindField("worker")
		require.True(t, found)
		require.Equal(t, "reporter", string(workerField.Bytes))
	})
}
