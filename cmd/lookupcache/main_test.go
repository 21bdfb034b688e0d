/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-lookupcache/config"
	"github.com/acronis/go-lookupcache/httpserver"
	"github.com/acronis/go-lookupcache/log/logtest"
	"github.com/acronis/go-lookupcache/userstore"
)

func writeConfigFile(t *testing.T, name, data string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(cfgPath, []byte(data), 0o600))
	return cfgPath
}

func TestLoadAppConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadAppConfig("")
		require.NoError(t, err)
		require.Equal(t, ":8080", cfg.Server.Address)
		require.Equal(t, 100, cfg.Cache.Capacity)
		require.Equal(t, config.TimeDuration(time.Minute), cfg.Cache.TTL)
		require.Equal(t, userstore.DriverMemory, cfg.Store.Driver)
		require.False(t, cfg.ProfServer.Enabled)
	})

	t.Run("yaml file", func(t *testing.T) {
		cfgPath := writeConfigFile(t, "config.yml", `
server:
  address: ":9999"
cache:
  capacity: 10
  ttl: 30s
store:
  driver: memory
  memory:
    latency: 10ms
log:
  level: debug
`)
		cfg, err := loadAppConfig(cfgPath)
		require.NoError(t, err)
		require.Equal(t, ":9999", cfg.Server.Address)
		require.Equal(t, 10, cfg.Cache.Capacity)
		require.Equal(t, config.TimeDuration(30*time.Second), cfg.Cache.TTL)
		require.EqualValues(t, "debug", cfg.Log.Level)
	})

	t.Run("json file", func(t *testing.T) {
		cfgPath := writeConfigFile(t, "config.json", `{"cache": {"capacity": 5}}`)
		cfg, err := loadAppConfig(cfgPath)
		require.NoError(t, err)
		require.Equal(t, 5, cfg.Cache.Capacity)
	})

	t.Run("env vars override file", func(t *testing.T) {
		t.Setenv("LOOKUPCACHE_SERVER_ADDRESS", ":7777")
		t.Setenv("LOOKUPCACHE_CACHE_CAPACITY", "42")
		cfgPath := writeConfigFile(t, "config.yaml", "server:\n  address: \":9999\"\ncache:\n  capacity: 10\n")
		cfg, err := loadAppConfig(cfgPath)
		require.NoError(t, err)
		require.Equal(t, ":7777", cfg.Server.Address)
		require.Equal(t, 42, cfg.Cache.Capacity)
	})

	t.Run("invalid value", func(t *testing.T) {
		cfgPath := writeConfigFile(t, "config.yml", "cache:\n  capacity: 0\n")
		_, err := loadAppConfig(cfgPath)
		require.ErrorContains(t, err, "cache.capacity")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		cfgPath := writeConfigFile(t, "config.toml", "")
		_, err := loadAppConfig(cfgPath)
		require.ErrorContains(t, err, `unsupported config file extension ".toml"`)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadAppConfig(filepath.Join(t.TempDir(), "missing.yml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

func TestCheckStoreHealth(t *testing.T) {
	logRecorder := logtest.NewRecorder()

	res := checkStoreHealth(context.Background(), pingerFunc(func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		require.True(t, hasDeadline)
		return nil
	}), logRecorder)
	require.Equal(t, httpserver.HealthCheckResult{"store": httpserver.HealthCheckStatusOK}, res)
	require.Empty(t, logRecorder.Entries())

	res = checkStoreHealth(context.Background(), pingerFunc(func(context.Context) error {
		return errors.New("connection refused")
	}), logRecorder)
	require.Equal(t, httpserver.HealthCheckResult{"store": httpserver.HealthCheckStatusFail}, res)
	_, found := logRecorder.FindEntry("user store health check failed")
	require.True(t, found)
}
