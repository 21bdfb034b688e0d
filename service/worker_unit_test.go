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
)

func TestWorkerUnit_StartStop(t *testing.T) {
	t.Run("stop gracefully waits for the worker", func(t *testing.T) {
		var finished atomic.Bool
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			time.Sleep(50 * time.Millisecond)
			finished.Store(true)
			return nil
		}))
		fatalErr, startReturned := startInBackground(unit)
		require.Eventually(t, func() bool { return unit.started.Load() }, 3*time.Second, time.Millisecond)

		require.NoError(t, unit.Stop(true))
		require.True(t, finished.Load())
		<-startReturned
		require.Empty(t, fatalErr)
	})

	t.Run("stop not gracefully doesn't wait", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		unit := NewWorkerUnit(WorkerFunc(func(context.Context) error {
			<-release
			return nil
		}))
		startInBackground(unit)
		require.Eventually(t, func() bool { return unit.started.Load() }, 3*time.Second, time.Millisecond)

		require.NoError(t, unit.Stop(false))
	})

	t.Run("graceful stop timeout", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		unit := NewWorkerUnitWithOpts(WorkerFunc(func(context.Context) error {
			<-release
			return nil
		}), WorkerUnitOpts{GracefulStopTimeout: 50 * time.Millisecond})
		startInBackground(unit)
		require.Eventually(t, func() bool { return unit.started.Load() }, 3*time.Second, time.Millisecond)

		require.ErrorIs(t, unit.Stop(true), ErrWorkerUnitStopTimeoutExceeded)
	})

	t.Run("worker error is fatal", func(t *testing.T) {
		workerErr := errors.New("worker failed")
		unit := NewWorkerUnit(WorkerFunc(func(context.Context) error {
			return workerErr
		}))
		fatalErr, startReturned := startInBackground(unit)
		<-startReturned
		require.ErrorIs(t, <-fatalErr, workerErr)
	})

	t.Run("stop without start", func(t *testing.T) {
		unit := NewWorkerUnit(WorkerFunc(func(context.Context) error { return nil }))
		require.NoError(t, unit.Stop(true))
	})
}
