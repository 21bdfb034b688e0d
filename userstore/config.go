/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package userstore

import (
	"fmt"
	"strings"
	"time"

	"github.com/acronis/go-lookupcache/config"
)

const cfgDefaultKeyPrefix = "store"

const (
	cfgKeyDriver                    = "driver"
	cfgKeyMemoryLatency             = "memory.latency"
	cfgKeyMemorySeed                = "memory.seed"
	cfgKeyPostgresDSN               = "postgres.dsn"
	cfgKeyPostgresMaxConns          = "postgres.maxConns"
	cfgKeyPostgresMinConns          = "postgres.minConns"
	cfgKeyPostgresMaxConnIdleTime   = "postgres.maxConnIdleTime"
	cfgKeyPostgresMaxConnLifetime   = "postgres.maxConnLifetime"
	cfgKeyPostgresHealthCheckPeriod = "postgres.healthCheckPeriod"
	cfgKeyPostgresEnsureSchema      = "postgres.ensureSchema"
	cfgKeyRetryMaxAttempts          = "retry.maxAttempts"
	cfgKeyRetryInitialInterval      = "retry.initialInterval"
	cfgKeyRetryMaxInterval          = "retry.maxInterval"
)

// Driver is a type of the backing store.
type Driver string

// Available drivers.
const (
	DriverMemory   Driver = "memory"
	DriverPostgres Driver = "postgres"
)

const (
	defaultMemoryLatency             = 200 * time.Millisecond
	defaultPostgresMaxConns          = 10
	defaultPostgresMinConns          = 2
	defaultPostgresMaxConnIdleTime   = 10 * time.Minute
	defaultPostgresMaxConnLifetime   = 30 * time.Minute
	defaultPostgresHealthCheckPeriod = time.Minute
	defaultRetryMaxAttempts          = 3
	defaultRetryInitialInterval      = 50 * time.Millisecond
	defaultRetryMaxInterval          = time.Second
)

var availableDrivers = []string{string(DriverMemory), string(DriverPostgres)}

// Config represents a set of configuration parameters for the backing store of users.
type Config struct {
	Driver   Driver         `mapstructure:"driver" yaml:"driver" json:"driver"`
	Memory   MemoryConfig   `mapstructure:"memory" yaml:"memory" json:"memory"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres" json:"postgres"`
	Retry    RetryConfig    `mapstructure:"retry" yaml:"retry" json:"retry"`

	keyPrefix string
}

// MemoryConfig represents configuration of the in-memory store.
type MemoryConfig struct {
	// Latency is a delay of each fetch that simulates a slow database.
	Latency time.Duration `mapstructure:"latency" yaml:"latency" json:"latency"`
	Seed    []User        `mapstructure:"seed" yaml:"seed" json:"seed"`
}

// PostgresConfig represents configuration of the PostgreSQL store.
type PostgresConfig struct {
	DSN               string        `mapstructure:"dsn" yaml:"dsn" json:"dsn"`
	MaxConns          int32         `mapstructure:"maxConns" yaml:"maxConns" json:"maxConns"`
	MinConns          int32         `mapstructure:"minConns" yaml:"minConns" json:"minConns"`
	MaxConnIdleTime   time.Duration `mapstructure:"maxConnIdleTime" yaml:"maxConnIdleTime" json:"maxConnIdleTime"`
	MaxConnLifetime   time.Duration `mapstructure:"maxConnLifetime" yaml:"maxConnLifetime" json:"maxConnLifetime"`
	HealthCheckPeriod time.Duration `mapstructure:"healthCheckPeriod" yaml:"healthCheckPeriod" json:"healthCheckPeriod"`
	EnsureSchema      bool          `mapstructure:"ensureSchema" yaml:"ensureSchema" json:"ensureSchema"`
}

// RetryConfig represents configuration of retrying failed fetches. MaxAttempts equal to 0 disables retries.
type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"maxAttempts" yaml:"maxAttempts" json:"maxAttempts"`
	InitialInterval time.Duration `mapstructure:"initialInterval" yaml:"initialInterval" json:"initialInterval"`
	MaxInterval     time.Duration `mapstructure:"maxInterval" yaml:"maxInterval" json:"maxInterval"`
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return NewConfigWithKeyPrefix(cfgDefaultKeyPrefix)
}

// NewConfigWithKeyPrefix creates a new instance of the Config with the key prefix.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyDriver, string(DriverMemory))
	dp.SetDefault(cfgKeyMemoryLatency, defaultMemoryLatency)
	dp.SetDefault(cfgKeyPostgresMaxConns, defaultPostgresMaxConns)
	dp.SetDefault(cfgKeyPostgresMinConns, defaultPostgresMinConns)
	dp.SetDefault(cfgKeyPostgresMaxConnIdleTime, defaultPostgresMaxConnIdleTime)
	dp.SetDefault(cfgKeyPostgresMaxConnLifetime, defaultPostgresMaxConnLifetime)
	dp.SetDefault(cfgKeyPostgresHealthCheckPeriod, defaultPostgresHealthCheckPeriod)
	dp.SetDefault(cfgKeyPostgresEnsureSchema, true)
	dp.SetDefault(cfgKeyRetryMaxAttempts, defaultRetryMaxAttempts)
	dp.SetDefault(cfgKeyRetryInitialInterval, defaultRetryInitialInterval)
	dp.SetDefault(cfgKeyRetryMaxInterval, defaultRetryMaxInterval)
}

// Set sets configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	driver, err := dp.GetStringFromSet(cfgKeyDriver, availableDrivers, true)
	if err != nil {
		return err
	}
	c.Driver = Driver(strings.ToLower(driver))

	if err = c.setMemoryConfig(dp); err != nil {
		return err
	}
	if err = c.setPostgresConfig(dp); err != nil {
		return err
	}
	return c.setRetryConfig(dp)
}

func (c *Config) setMemoryConfig(dp config.DataProvider) (err error) {
	if c.Memory.Latency, err = dp.GetDuration(cfgKeyMemoryLatency); err != nil {
		return err
	}
	if c.Memory.Latency < 0 {
		return dp.WrapKeyErr(cfgKeyMemoryLatency, fmt.Errorf("cannot be negative"))
	}
	if !dp.IsSet(cfgKeyMemorySeed) {
		c.Memory.Seed = append([]User(nil), DefaultSeedUsers...)
		return nil
	}
	c.Memory.Seed = nil
	if err = dp.UnmarshalKey(cfgKeyMemorySeed, &c.Memory.Seed); err != nil {
		return err
	}
	return nil
}

func (c *Config) setPostgresConfig(dp config.DataProvider) (err error) {
	if c.Postgres.DSN, err = dp.GetString(cfgKeyPostgresDSN); err != nil {
		return err
	}
	if c.Driver == DriverPostgres && c.Postgres.DSN == "" {
		return dp.WrapKeyErr(cfgKeyPostgresDSN, fmt.Errorf("cannot be empty when %q driver is used", DriverPostgres))
	}

	var n int
	if n, err = dp.GetInt(cfgKeyPostgresMaxConns); err != nil {
		return err
	}
	if n <= 0 {
		return dp.WrapKeyErr(cfgKeyPostgresMaxConns, fmt.Errorf("must be positive"))
	}
	c.Postgres.MaxConns = int32(n)

	if n, err = dp.GetInt(cfgKeyPostgresMinConns); err != nil {
		return err
	}
	if n < 0 || int32(n) > c.Postgres.MaxConns {
		return dp.WrapKeyErr(cfgKeyPostgresMinConns, fmt.Errorf("should be in range [0, maxConns]"))
	}
	c.Postgres.MinConns = int32(n)

	if c.Postgres.MaxConnIdleTime, err = dp.GetDuration(cfgKeyPostgresMaxConnIdleTime); err != nil {
		return err
	}
	if c.Postgres.MaxConnLifetime, err = dp.GetDuration(cfgKeyPostgresMaxConnLifetime); err != nil {
		return err
	}
	if c.Postgres.HealthCheckPeriod, err = dp.GetDuration(cfgKeyPostgresHealthCheckPeriod); err != nil {
		return err
	}
	if c.Postgres.EnsureSchema, err = dp.GetBool(cfgKeyPostgresEnsureSchema); err != nil {
		return err
	}
	return nil
}

func (c *Config) setRetryConfig(dp config.DataProvider) (err error) {
	if c.Retry.MaxAttempts, err = dp.GetInt(cfgKeyRetryMaxAttempts); err != nil {
		return err
	}
	if c.Retry.MaxAttempts < 0 {
		return dp.WrapKeyErr(cfgKeyRetryMaxAttempts, fmt.Errorf("cannot be negative"))
	}
	if c.Retry.InitialInterval, err = dp.GetDuration(cfgKeyRetryInitialInterval); err != nil {
		return err
	}
	if c.Retry.MaxAttempts > 0 && c.Retry.InitialInterval <= 0 {
		return dp.WrapKeyErr(cfgKeyRetryInitialInterval, fmt.Errorf("must be positive"))
	}
	if c.Retry.MaxInterval, err = dp.GetDuration(cfgKeyRetryMaxInterval); err != nil {
		return err
	}
	return nil
}
