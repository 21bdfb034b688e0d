/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package lookup

import (
	"fmt"
	"time"

	"github.com/acronis/go-lookupcache/config"
	"github.com/acronis/go-lookupcache/latency"
	"github.com/acronis/go-lookupcache/lrucache"
)

const cfgDefaultKeyPrefix = "cache"

const (
	cfgKeyCapacity         = "capacity"
	cfgKeyTTL              = "ttl"
	cfgKeyMetricsWindow    = "metricsWindow"
	cfgKeyStatsLogInterval = "statsLogInterval"
)

// Default values of the configuration parameters.
const (
	DefaultCapacity         = 100
	DefaultTTL              = time.Minute
	DefaultMetricsWindow    = 1000
	DefaultStatsLogInterval = time.Duration(0)
)

// Config represents a set of configuration parameters for the lookup Service.
// Configuration can be loaded in different formats (YAML, JSON) using config.Loader, viper,
// or with json.Unmarshal/yaml.Unmarshal functions directly.
type Config struct {
	// Capacity is the maximum number of cached entries.
	Capacity int `mapstructure:"capacity" yaml:"capacity" json:"capacity"`

	// TTL is the time-to-live of cached entries.
	TTL config.TimeDuration `mapstructure:"ttl" yaml:"ttl" json:"ttl"`

	// MetricsWindow is the number of the most recent lookup latencies used for the performance summary.
	MetricsWindow int `mapstructure:"metricsWindow" yaml:"metricsWindow" json:"metricsWindow"`

	// StatsLogInterval is the interval of logging the stats snapshot. 0 disables logging.
	StatsLogInterval config.TimeDuration `mapstructure:"statsLogInterval" yaml:"statsLogInterval" json:"statsLogInterval"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// ConfigOption is a type for functional options for the Config.
type ConfigOption func(*configOptions)

type configOptions struct {
	keyPrefix string
}

// WithKeyPrefix returns a ConfigOption that sets a key prefix for parsing configuration parameters.
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(o *configOptions) {
		o.keyPrefix = keyPrefix
	}
}

// NewConfig creates a new instance of the Config.
func NewConfig(options ...ConfigOption) *Config {
	opts := configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{keyPrefix: opts.keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig(options ...ConfigOption) *Config {
	cfg := NewConfig(options...)
	cfg.Capacity = DefaultCapacity
	cfg.TTL = config.TimeDuration(DefaultTTL)
	cfg.MetricsWindow = DefaultMetricsWindow
	cfg.StatsLogInterval = config.TimeDuration(DefaultStatsLogInterval)
	return cfg
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyCapacity, DefaultCapacity)
	dp.SetDefault(cfgKeyTTL, DefaultTTL)
	dp.SetDefault(cfgKeyMetricsWindow, DefaultMetricsWindow)
	dp.SetDefault(cfgKeyStatsLogInterval, DefaultStatsLogInterval)
}

// Set sets configuration values from config.DataProvider.
// Invalid cache parameters are reported as lrucache.ErrInvalidConfiguration,
// an invalid metrics window as latency.ErrInvalidConfiguration.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Capacity, err = dp.GetInt(cfgKeyCapacity); err != nil {
		return err
	}
	if c.Capacity <= 0 {
		return dp.WrapKeyErr(cfgKeyCapacity, fmt.Errorf("%w: must be positive", lrucache.ErrInvalidConfiguration))
	}

	var dur time.Duration
	if dur, err = dp.GetDuration(cfgKeyTTL); err != nil {
		return err
	}
	if dur <= 0 {
		return dp.WrapKeyErr(cfgKeyTTL, fmt.Errorf("%w: must be positive", lrucache.ErrInvalidConfiguration))
	}
	c.TTL = config.TimeDuration(dur)

	if c.MetricsWindow, err = dp.GetInt(cfgKeyMetricsWindow); err != nil {
		return err
	}
	if c.MetricsWindow <= 0 {
		return dp.WrapKeyErr(cfgKeyMetricsWindow, fmt.Errorf("%w: must be positive", latency.ErrInvalidConfiguration))
	}

	if dur, err = dp.GetDuration(cfgKeyStatsLogInterval); err != nil {
		return err
	}
	if dur < 0 {
		return dp.WrapKeyErr(cfgKeyStatsLogInterval, fmt.Errorf("cannot be negative"))
	}
	c.StatsLogInterval = config.TimeDuration(dur)

	return nil
}
