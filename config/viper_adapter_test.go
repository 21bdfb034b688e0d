/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testServerConfigYAML = `
server:
  address: ":8080"
  timeouts:
    shutdown: 5s
  limits:
    maxBodySize: 1M
  rateLimit:
    enabled: true
    alg: leakyBucket
    rate: 100
  log:
    excludedEndpoints:
      - /healthz
      - /metrics
`

const testServerConfigJSON = `{"server": {"address": ":8080", "timeouts": {"shutdown": "5s"}, "limits": {"maxBodySize": 1048576},
"rateLimit": {"enabled": true, "alg": "leakyBucket", "rate": 100}, "log": {"excludedEndpoints": ["/healthz", "/metrics"]}}}`

func TestViperAdapter_SetFrom(t *testing.T) {
	requireServerConfig := func(t *testing.T, va *ViperAdapter) {
		t.Helper()

		addr, err := va.GetString("server.address")
		require.NoError(t, err)
		require.Equal(t, ":8080", addr)

		shutdown, err := va.GetDuration("server.timeouts.shutdown")
		require.NoError(t, err)
		require.Equal(t, 5*time.Second, shutdown)

		maxBodySize, err := va.GetBytesCount("server.limits.maxBodySize")
		require.NoError(t, err)
		require.Equal(t, BytesCount(1024*1024), maxBodySize)

		enabled, err := va.GetBool("server.rateLimit.enabled")
		require.NoError(t, err)
		require.True(t, enabled)

		rate, err := va.GetInt("server.rateLimit.rate")
		require.NoError(t, err)
		require.Equal(t, 100, rate)

		excluded, err := va.GetStringSlice("server.log.excludedEndpoints")
		require.NoError(t, err)
		require.Equal(t, []string{"/healthz", "/metrics"}, excluded)
	}

	t.Run("yaml reader", func(t *testing.T) {
		va := NewViperAdapter()
		require.NoError(t, va.SetFromReader(strings.NewReader(testServerConfigYAML), DataTypeYAML))
		requireServerConfig(t, va)
	})

	t.Run("json reader", func(t *testing.T) {
		va := NewViperAdapter()
		require.NoError(t, va.SetFromReader(strings.NewReader(testServerConfigJSON), DataTypeJSON))
		requireServerConfig(t, va)
	})

	t.Run("yaml file", func(t *testing.T) {
		cfgPath := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(cfgPath, []byte(testServerConfigYAML), 0o600))
		va := NewViperAdapter()
		require.NoError(t, va.SetFromFile(cfgPath, DataTypeYAML))
		requireServerConfig(t, va)
	})
}

func TestViperAdapter_UseEnvVars(t *testing.T) {
	t.Setenv("LOOKUPCACHE_SERVER_ADDRESS", ":9090")
	t.Setenv("LOOKUPCACHE_SERVER_RATELIMIT_RATE", "10")

	va := NewViperAdapter()
	va.UseEnvVars("lookupcache")
	require.NoError(t, va.SetFromReader(strings.NewReader(testServerConfigYAML), DataTypeYAML))

	addr, err := va.GetString("server.address")
	require.NoError(t, err)
	require.Equal(t, ":9090", addr)

	rate, err := va.GetInt("server.rateLimit.rate")
	require.NoError(t, err)
	require.Equal(t, 10, rate)
}

func TestViperAdapter_GetStringFromSet(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		ignoreCase bool
		wantErr    string
	}{
		{name: "exact", value: "slidingWindow"},
		{name: "ignore case", value: "SLIDINGWINDOW", ignoreCase: true},
		{name: "case mismatch", value: "SLIDINGWINDOW", wantErr: `alg: unknown value "SLIDINGWINDOW", should be one of [leakyBucket slidingWindow]`},
		{name: "unknown", value: "tokenBucket", ignoreCase: true, wantErr: `alg: unknown value "tokenBucket", should be one of [leakyBucket slidingWindow]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			va := NewViperAdapter()
			va.Set("alg", tt.value)
			got, err := va.GetStringFromSet("alg", []string{"leakyBucket", "slidingWindow"}, tt.ignoreCase)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.value, got)
		})
	}
}

func TestViperAdapter_GetDuration(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    time.Duration
		wantErr bool
	}{
		{name: "missing", value: nil, want: 0},
		{name: "string", value: "1m30s", want: 90 * time.Second},
		{name: "duration", value: 2 * time.Second, want: 2 * time.Second},
		{name: "invalid", value: "soon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			va := NewViperAdapter()
			if tt.value != nil {
				va.Set("cache.ttl", tt.value)
			}
			got, err := va.GetDuration("cache.ttl")
			if tt.wantErr {
				require.ErrorContains(t, err, "cache.ttl: ")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestViperAdapter_GetBytesCount(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    BytesCount
		wantErr bool
	}{
		{name: "missing", value: nil, want: 0},
		{name: "human-readable", value: "512K", want: 512 * 1024},
		{name: "k8s suffix", value: "2Mi", want: 2 * 1024 * 1024},
		{name: "int", value: 4096, want: 4096},
		{name: "uint64", value: uint64(1024), want: 1024},
		{name: "float", value: 2048.0, want: 2048},
		{name: "negative int", value: -1, wantErr: true},
		{name: "invalid string", value: "big", wantErr: true},
		{name: "unsupported type", value: []string{"1M"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			va := NewViperAdapter()
			if tt.value != nil {
				va.Set("limits.maxBodySize", tt.value)
			}
			got, err := va.GetBytesCount("limits.maxBodySize")
			if tt.wantErr {
				require.ErrorContains(t, err, "limits.maxBodySize: ")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestViperAdapter_GetStringSlice(t *testing.T) {
	va := NewViperAdapter()

	missing, err := va.GetStringSlice("log.excludedEndpoints")
	require.NoError(t, err)
	require.Nil(t, missing)

	va.Set("log.excludedEndpoints", "/healthz /metrics")
	fromString, err := va.GetStringSlice("log.excludedEndpoints")
	require.NoError(t, err)
	require.Equal(t, []string{"/healthz", "/metrics"}, fromString)

	va.Set("log.excludedEndpoints", []interface{}{"/healthz"})
	fromSlice, err := va.GetStringSlice("log.excludedEndpoints")
	require.NoError(t, err)
	require.Equal(t, []string{"/healthz"}, fromSlice)
}

func TestViperAdapter_GetInt(t *testing.T) {
	va := NewViperAdapter()
	va.Set("cache.capacity", "many")
	_, err := va.GetInt("cache.capacity")
	require.ErrorContains(t, err, "cache.capacity: ")
}
