/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/acronis/go-lookupcache/log/logtest"
)

func TestService_Start(t *testing.T) {
	logRecorder := logtest.NewRecorder()
	var running atomic.Int32
	unit := newBlockingUnit("http", &running)
	svc := New(logRecorder, unit)

	startErr := make(chan error, 1)
	go func() { startErr <- svc.Start() }()
	require.Eventually(t, func() bool { return running.Load() == 1 }, 3*time.Second, 10*time.Millisecond)
	require.Equal(t, int32(1), unit.registerMetricsCall.Load())

	svc.Signals <- os.Interrupt
	require.NoError(t, <-startErr)
	require.Equal(t, int32(1), unit.gracefulStopCalls.Load())
	require.Equal(t, int32(1), unit.unregisterMetrics.Load())

	entry, found := logRecorder.FindEntry("got signal, stopping service")
	require.True(t, found)
	field, found := entry.FindField("signal")
	require.True(t, found)
	require.Equal(t, os.Interrupt.String(), string(field.Bytes))
}

func TestService_StartContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var running atomic.Int32
	unit := newBlockingUnit("http", &running)
	svc := New(logtest.NewLogger(), unit)

	startErr := make(chan error, 1)
	go func() { startErr <- svc.StartContext(ctx) }()
	require.Eventually(t, func() bool { return running.Load() == 1 }, 3*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-startErr)
	require.Equal(t, int32(1), unit.gracefulStopCalls.Load())
	require.Eventually(t, func() bool { return running.Load() == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestService_StartWithFatalError(t *testing.T) {
	var running atomic.Int32
	unit := newBlockingUnit("http", &running)
	unit.startErr = errors.New("listen tcp: address already in use")
	svc := New(logtest.NewLogger(), unit)

	err := svc.Start()
	require.ErrorIs(t, err, unit.startErr)
	require.Equal(t, int32(0), unit.stopCalls.Load())
	require.Equal(t, int32(1), unit.unregisterMetrics.Load())
}
