/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/acronis/go-lookupcache/config"
)

type appConfig struct {
	Log *Config `mapstructure:"log" json:"log" yaml:"log"`
}

func loadConfig(cfg *Config, dataType config.DataType, data string) error {
	return config.NewDefaultLoader("").LoadFromReader(strings.NewReader(data), dataType, cfg)
}

func rotatedFileConfig(level Level) *Config {
	cfg := NewDefaultConfig()
	cfg.Level = level
	cfg.Format = FormatText
	cfg.Output = OutputFile
	cfg.File.Path = "/var/log/lookupcache/{{pid}}.log"
	cfg.File.Rotation = FileRotationConfig{Compress: true, MaxSize: 64 * 1024 * 1024, MaxBackups: 5, MaxAgeDays: 7}
	cfg.AddCaller = true
	cfg.Error = ErrorConfig{NoVerbose: true, VerboseSuffix: "_details"}
	return cfg
}

func TestConfig_Decoding(t *testing.T) {
	tests := []struct {
		name     string
		dataType config.DataType
		data     string
		want     *Config
	}{
		{
			name:     "yaml",
			dataType: config.DataTypeYAML,
			data: `
log:
  level: warn
  format: text
  output: file
  file:
    path: /var/log/lookupcache/{{pid}}.log
    rotation:
      compress: true
      maxSize: 64M
      maxBackups: 5
      maxAgeDays: 7
  addCaller: true
  error:
    noVerbose: true
    verboseSuffix: _details
`,
			want: rotatedFileConfig(LevelWarn),
		},
		{
			name:     "json",
			dataType: config.DataTypeJSON,
			data: `{"log": {
  "level": "debug", "format": "text", "output": "file", "addCaller": true,
  "file": {
    "path": "/var/log/lookupcache/{{pid}}.log",
    "rotation": {"compress": true, "maxSize": "64M", "maxBackups": 5, "maxAgeDays": 7}
  },
  "error": {"noVerbose": true, "verboseSuffix": "_details"}
}}`,
			want: rotatedFileConfig(LevelDebug),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Run("config loader", func(t *testing.T) {
				cfg := NewConfig()
				require.NoError(t, loadConfig(cfg, tt.dataType, tt.data))
				require.Equal(t, tt.want, cfg)
			})

			t.Run("viper", func(t *testing.T) {
				vpr := viper.New()
				vpr.SetConfigType(string(tt.dataType))
				require.NoError(t, vpr.ReadConfig(strings.NewReader(tt.data)))
				got := appConfig{Log: NewDefaultConfig()}
				require.NoError(t, vpr.Unmarshal(&got, func(c *mapstructure.DecoderConfig) {
					c.DecodeHook = mapstructure.TextUnmarshallerHookFunc()
				}))
				require.Equal(t, tt.want, got.Log)
			})

			t.Run("plain unmarshal", func(t *testing.T) {
				got := appConfig{Log: NewDefaultConfig()}
				if tt.dataType == config.DataTypeYAML {
					require.NoError(t, yaml.Unmarshal([]byte(tt.data), &got))
				} else {
					require.NoError(t, json.Unmarshal([]byte(tt.data), &got))
				}
				require.Equal(t, tt.want, got.Log)
			})
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, loadConfig(cfg, config.DataTypeYAML, ""))
	require.Equal(t, NewDefaultConfig(), cfg)
	require.Equal(t, LevelInfo, cfg.Level)
	require.Equal(t, OutputStdout, cfg.Output)
	require.Equal(t, config.BytesCount(DefaultFileRotationMaxSizeBytes), cfg.File.Rotation.MaxSize)

	got := appConfig{Log: NewDefaultConfig()}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &got))
	require.Equal(t, NewDefaultConfig(), got.Log)
}

func TestConfig_KeyPrefix(t *testing.T) {
	cfg := NewConfig(WithKeyPrefix("accessLog"))
	require.Equal(t, "accessLog", cfg.KeyPrefix())
	require.NoError(t, loadConfig(cfg, config.DataTypeYAML, "accessLog:\n  level: error\n  output: stderr\n"))
	require.Equal(t, LevelError, cfg.Level)
	require.Equal(t, OutputStderr, cfg.Output)
	require.Equal(t, FormatJSON, cfg.Format)

	zero := &Config{}
	require.Equal(t, "log", zero.KeyPrefix())
	require.NoError(t, loadConfig(zero, config.DataTypeYAML, "log:\n  format: TEXT\n"))
	require.Equal(t, FormatText, zero.Format)
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		data    string
		wantErr string
	}{
		{
			data:    "log:\n  level: trace\n",
			wantErr: `log.level: unknown value "trace", should be one of [error warn info debug]`,
		},
		{
			data:    "log:\n  format: xml\n",
			wantErr: `log.format: unknown value "xml", should be one of [json text]`,
		},
		{
			data:    "log:\n  output: syslog\n",
			wantErr: `log.output: unknown value "syslog", should be one of [stdout stderr file]`,
		},
		{
			data:    "log:\n  output: file\n",
			wantErr: `log.file.path: cannot be empty when "file" output is used`,
		},
		{
			data:    "log:\n  file:\n    rotation:\n      maxSize: 512K\n",
			wantErr: `log.file.rotation.maxSize: should be >= 1M`,
		},
		{
			data:    "log:\n  file:\n    rotation:\n      maxBackups: 0\n",
			wantErr: `log.file.rotation.maxBackups: should be >= 1`,
		},
		{
			data:    "log:\n  file:\n    rotation:\n      maxAgeDays: -1\n",
			wantErr: `log.file.rotation.maxAgeDays: should be >= 0`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.wantErr, func(t *testing.T) {
			require.EqualError(t, loadConfig(NewConfig(), config.DataTypeYAML, tt.data), tt.wantErr)
		})
	}
}
