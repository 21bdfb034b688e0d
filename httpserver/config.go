/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"fmt"
	"time"

	"github.com/acronis/go-lookupcache/config"
	"github.com/acronis/go-lookupcache/httpserver/middleware"
)

const cfgDefaultKeyPrefix = "server"

// Keys are relative to the Config key prefix.
const (
	cfgKeyAddress = "address"

	cfgKeyTimeoutsWrite      = "timeouts.write"
	cfgKeyTimeoutsRead       = "timeouts.read"
	cfgKeyTimeoutsReadHeader = "timeouts.readHeader"
	cfgKeyTimeoutsIdle       = "timeouts.idle"
	cfgKeyTimeoutsShutdown   = "timeouts.shutdown"

	cfgKeyLimitsMaxBodySize = "limits.maxBodySize"

	cfgKeyRateLimitEnabled         = "rateLimit.enabled"
	cfgKeyRateLimitAlg             = "rateLimit.alg"
	cfgKeyRateLimitRate            = "rateLimit.rate"
	cfgKeyRateLimitPer             = "rateLimit.per"
	cfgKeyRateLimitBurst           = "rateLimit.burst"
	cfgKeyRateLimitByClientIP      = "rateLimit.byClientIP"
	cfgKeyRateLimitMaxKeys         = "rateLimit.maxKeys"
	cfgKeyRateLimitExcludedClients = "rateLimit.excludedClients"

	cfgKeyLogRequestStart         = "log.requestStart"
	cfgKeyLogExcludedEndpoints    = "log.excludedEndpoints"
	cfgKeyLogSlowRequestThreshold = "log.slowRequestThreshold"

	cfgKeyTLSEnabled = "tls.enabled"
	cfgKeyTLSCert    = "tls.cert"
	cfgKeyTLSKey     = "tls.key"
)

const (
	defaultServerAddress           = ":8080"
	defaultServerLimitsMaxBodySize = 1024 * 1024
	defaultRateLimitAlg            = string(middleware.RateLimitAlgLeakyBucket)
	defaultRateLimitRate           = 100
	defaultRateLimitPer            = time.Second
	defaultRateLimitBurst          = 50
	defaultRateLimitMaxKeys        = middleware.DefaultRateLimitMaxKeys
	defaultSlowRequestThreshold    = time.Second
)

var defaultTimeouts = map[string]time.Duration{
	cfgKeyTimeoutsWrite:      time.Minute,
	cfgKeyTimeoutsRead:       15 * time.Second,
	cfgKeyTimeoutsReadHeader: 10 * time.Second,
	cfgKeyTimeoutsIdle:       time.Minute,
	cfgKeyTimeoutsShutdown:   5 * time.Second,
}

var rateLimitAlgs = []string{
	string(middleware.RateLimitAlgLeakyBucket),
	string(middleware.RateLimitAlgSlidingWindow),
}

// Config is the configuration of the API server.
// It may be loaded by config.Loader, by viper or by json/yaml unmarshaling.
type Config struct {
	Address   string          `mapstructure:"address" yaml:"address" json:"address"`
	Timeouts  TimeoutsConfig  `mapstructure:"timeouts" yaml:"timeouts" json:"timeouts"`
	Limits    LimitsConfig    `mapstructure:"limits" yaml:"limits" json:"limits"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit" yaml:"rateLimit" json:"rateLimit"`
	Log       LogConfig       `mapstructure:"log" yaml:"log" json:"log"`
	TLS       TLSConfig       `mapstructure:"tls" yaml:"tls" json:"tls"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// ConfigOption configures NewConfig and NewDefaultConfig.
type ConfigOption func(*configOptions)

type configOptions struct {
	keyPrefix string
}

// WithKeyPrefix sets the key under which config.Loader looks for the server parameters ("server" by default).
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(o *configOptions) {
		o.keyPrefix = keyPrefix
	}
}

// NewConfig creates an empty Config to be filled by config.Loader.
func NewConfig(options ...ConfigOption) *Config {
	opts := configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, apply := range options {
		apply(&opts)
	}
	return &Config{keyPrefix: opts.keyPrefix}
}

// NewDefaultConfig creates a Config filled with the same defaults config.Loader uses.
func NewDefaultConfig(options ...ConfigOption) *Config {
	cfg := NewConfig(options...)
	cfg.Address = defaultServerAddress
	cfg.Timeouts = TimeoutsConfig{
		Write:      config.TimeDuration(defaultTimeouts[cfgKeyTimeoutsWrite]),
		Read:       config.TimeDuration(defaultTimeouts[cfgKeyTimeoutsRead]),
		ReadHeader: config.TimeDuration(defaultTimeouts[cfgKeyTimeoutsReadHeader]),
		Idle:       config.TimeDuration(defaultTimeouts[cfgKeyTimeoutsIdle]),
		Shutdown:   config.TimeDuration(defaultTimeouts[cfgKeyTimeoutsShutdown]),
	}
	cfg.Limits.MaxBodySizeBytes = defaultServerLimitsMaxBodySize
	cfg.RateLimit = RateLimitConfig{
		Alg:        defaultRateLimitAlg,
		Rate:       defaultRateLimitRate,
		Per:        config.TimeDuration(defaultRateLimitPer),
		Burst:      defaultRateLimitBurst,
		ByClientIP: true,
		MaxKeys:    defaultRateLimitMaxKeys,
	}
	cfg.Log.SlowRequestThreshold = config.TimeDuration(defaultSlowRequestThreshold)
	return cfg
}

// KeyPrefix implements config.KeyPrefixProvider.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix != "" {
		return c.keyPrefix
	}
	return cfgDefaultKeyPrefix
}

// SetProviderDefaults implements config.Config.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	defaults := map[string]interface{}{
		cfgKeyAddress:                 defaultServerAddress,
		cfgKeyLimitsMaxBodySize:       defaultServerLimitsMaxBodySize,
		cfgKeyRateLimitEnabled:        false,
		cfgKeyRateLimitAlg:            defaultRateLimitAlg,
		cfgKeyRateLimitRate:           defaultRateLimitRate,
		cfgKeyRateLimitPer:            defaultRateLimitPer,
		cfgKeyRateLimitBurst:          defaultRateLimitBurst,
		cfgKeyRateLimitByClientIP:     true,
		cfgKeyRateLimitMaxKeys:        defaultRateLimitMaxKeys,
		cfgKeyLogRequestStart:         false,
		cfgKeyLogSlowRequestThreshold: defaultSlowRequestThreshold,
		cfgKeyTLSEnabled:              false,
	}
	for key, val := range defaultTimeouts {
		defaults[key] = val
	}
	for key, val := range defaults {
		dp.SetDefault(key, val)
	}
}

// Set implements config.Config. Every section is validated.
func (c *Config) Set(dp config.DataProvider) error {
	addr, err := dp.GetString(cfgKeyAddress)
	if err != nil {
		return err
	}
	if addr == "" {
		return dp.WrapKeyErr(cfgKeyAddress, fmt.Errorf("cannot be empty"))
	}
	c.Address = addr

	for _, section := range []interface{ Set(config.DataProvider) error }{
		&c.TLS, &c.Timeouts, &c.Limits, &c.RateLimit, &c.Log,
	} {
		if err = section.Set(dp); err != nil {
			return err
		}
	}
	return nil
}

// TimeoutsConfig holds timeouts of http.Server and of its graceful shutdown.
type TimeoutsConfig struct {
	Write      config.TimeDuration `mapstructure:"write" yaml:"write" json:"write"`
	Read       config.TimeDuration `mapstructure:"read" yaml:"read" json:"read"`
	ReadHeader config.TimeDuration `mapstructure:"readHeader" yaml:"readHeader" json:"readHeader"`
	Idle       config.TimeDuration `mapstructure:"idle" yaml:"idle" json:"idle"`
	Shutdown   config.TimeDuration `mapstructure:"shutdown" yaml:"shutdown" json:"shutdown"`
}

// Set reads timeouts. Negative values are rejected, zero means no timeout.
func (t *TimeoutsConfig) Set(dp config.DataProvider) error {
	for key, dst := range map[string]*config.TimeDuration{
		cfgKeyTimeoutsWrite:      &t.Write,
		cfgKeyTimeoutsRead:       &t.Read,
		cfgKeyTimeoutsReadHeader: &t.ReadHeader,
		cfgKeyTimeoutsIdle:       &t.Idle,
		cfgKeyTimeoutsShutdown:   &t.Shutdown,
	} {
		dur, err := dp.GetDuration(key)
		if err != nil {
			return err
		}
		if dur < 0 {
			return dp.WrapKeyErr(key, fmt.Errorf("cannot be negative"))
		}
		*dst = config.TimeDuration(dur)
	}
	return nil
}

// LimitsConfig holds limits applied to every API request.
type LimitsConfig struct {
	// MaxBodySizeBytes is the maximum size of the request body in bytes. 0 disables the limit.
	MaxBodySizeBytes config.BytesCount `mapstructure:"maxBodySize" yaml:"maxBodySize" json:"maxBodySize"`
}

// Set reads the limits.
func (l *LimitsConfig) Set(dp config.DataProvider) (err error) {
	l.MaxBodySizeBytes, err = dp.GetBytesCount(cfgKeyLimitsMaxBodySize)
	return err
}

// RateLimitConfig configures limiting the rate of API requests. System endpoints are never limited.
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`

	// Alg is a rate-limiting algorithm, "leakyBucket" or "slidingWindow".
	Alg string `mapstructure:"alg" yaml:"alg" json:"alg"`

	// Rate is the number of requests allowed per Per interval.
	Rate int                 `mapstructure:"rate" yaml:"rate" json:"rate"`
	Per  config.TimeDuration `mapstructure:"per" yaml:"per" json:"per"`

	// Burst is used by the leaky bucket algorithm only.
	Burst int `mapstructure:"burst" yaml:"burst" json:"burst"`

	// ByClientIP enables limiting each client separately, otherwise the limit is global.
	ByClientIP bool `mapstructure:"byClientIP" yaml:"byClientIP" json:"byClientIP"`
	MaxKeys    int  `mapstructure:"maxKeys" yaml:"maxKeys" json:"maxKeys"`

	// ExcludedClients are glob patterns of client IPs ("10.0.*") that are never limited.
	// They require ByClientIP.
	ExcludedClients []string `mapstructure:"excludedClients" yaml:"excludedClients" json:"excludedClients"`
}

// Set reads and validates rate limiting parameters.
func (l *RateLimitConfig) Set(dp config.DataProvider) error {
	var err error
	if l.Enabled, err = dp.GetBool(cfgKeyRateLimitEnabled); err != nil {
		return err
	}
	if l.Alg, err = dp.GetStringFromSet(cfgKeyRateLimitAlg, rateLimitAlgs, false); err != nil {
		return err
	}
	if l.ByClientIP, err = dp.GetBool(cfgKeyRateLimitByClientIP); err != nil {
		return err
	}
	if l.ExcludedClients, err = dp.GetStringSlice(cfgKeyRateLimitExcludedClients); err != nil {
		return err
	}
	if len(l.ExcludedClients) != 0 && !l.ByClientIP {
		return dp.WrapKeyErr(cfgKeyRateLimitExcludedClients, fmt.Errorf("cannot be used without byClientIP"))
	}

	per, err := dp.GetDuration(cfgKeyRateLimitPer)
	if err != nil {
		return err
	}
	if per <= 0 {
		return dp.WrapKeyErr(cfgKeyRateLimitPer, fmt.Errorf("must be positive"))
	}
	l.Per = config.TimeDuration(per)

	for _, item := range []struct {
		key      string
		dst      *int
		positive bool
	}{
		{cfgKeyRateLimitRate, &l.Rate, true},
		{cfgKeyRateLimitBurst, &l.Burst, false},
		{cfgKeyRateLimitMaxKeys, &l.MaxKeys, false},
	} {
		if *item.dst, err = dp.GetInt(item.key); err != nil {
			return err
		}
		switch {
		case item.positive && *item.dst <= 0:
			return dp.WrapKeyErr(item.key, fmt.Errorf("must be positive"))
		case *item.dst < 0:
			return dp.WrapKeyErr(item.key, fmt.Errorf("cannot be negative"))
		}
	}
	return nil
}

// LogConfig configures logging of the served requests.
type LogConfig struct {
	RequestStart bool `mapstructure:"requestStart" yaml:"requestStart" json:"requestStart"`

	// ExcludedEndpoints are not logged unless the response status is 4xx or 5xx.
	ExcludedEndpoints []string `mapstructure:"excludedEndpoints" yaml:"excludedEndpoints" json:"excludedEndpoints"`

	// SlowRequestThreshold is the duration after which time slots of the request are logged.
	SlowRequestThreshold config.TimeDuration `mapstructure:"slowRequestThreshold" yaml:"slowRequestThreshold" json:"slowRequestThreshold"`
}

// Set reads request logging parameters.
func (l *LogConfig) Set(dp config.DataProvider) error {
	var err error
	if l.RequestStart, err = dp.GetBool(cfgKeyLogRequestStart); err != nil {
		return err
	}
	if l.ExcludedEndpoints, err = dp.GetStringSlice(cfgKeyLogExcludedEndpoints); err != nil {
		return err
	}
	threshold, err := dp.GetDuration(cfgKeyLogSlowRequestThreshold)
	if err != nil {
		return err
	}
	l.SlowRequestThreshold = config.TimeDuration(threshold)
	return nil
}

// TLSConfig enables serving HTTPS with the given certificate and key files.
type TLSConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Certificate string `mapstructure:"cert" yaml:"cert" json:"cert"`
	Key         string `mapstructure:"key" yaml:"key" json:"key"`
}

// Set reads TLS parameters. Both files are required when TLS is enabled.
func (s *TLSConfig) Set(dp config.DataProvider) error {
	var err error
	if s.Enabled, err = dp.GetBool(cfgKeyTLSEnabled); err != nil {
		return err
	}
	if s.Certificate, err = dp.GetString(cfgKeyTLSCert); err != nil {
		return err
	}
	if s.Key, err = dp.GetString(cfgKeyTLSKey); err != nil {
		return err
	}
	if s.Enabled && (s.Certificate == "" || s.Key == "") {
		return dp.WrapKeyErr(cfgKeyTLSKey, fmt.Errorf("both cert and key should be set"))
	}
	return nil
}
