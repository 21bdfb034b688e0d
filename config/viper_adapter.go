/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ViperAdapter is a DataProvider backed by github.com/spf13/viper.
type ViperAdapter struct {
	viper *viper.Viper
}

var _ DataProvider = (*ViperAdapter)(nil)

// NewViperAdapter creates a new ViperAdapter with its own viper instance.
func NewViperAdapter() *ViperAdapter {
	return &ViperAdapter{viper.New()}
}

// UseEnvVars makes environment variables override the configuration data.
// The variable name is the upper-cased prefix and key joined by underscores,
// e.g. "server.address" with "lookupcache" prefix is LOOKUPCACHE_SERVER_ADDRESS.
func (va *ViperAdapter) UseEnvVars(prefix string) {
	va.viper.AutomaticEnv()
	va.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	va.viper.SetEnvPrefix(prefix)
}

// Set overrides the value of the key.
func (va *ViperAdapter) Set(key string, value interface{}) {
	va.viper.Set(key, value)
}

// SetDefault sets the value that is used when the key is provided neither by the data nor by environment.
func (va *ViperAdapter) SetDefault(key string, value interface{}) {
	va.viper.SetDefault(key, value)
}

// IsSet reports whether the key is provided by any source (case-insensitive).
func (va *ViperAdapter) IsSet(key string) bool {
	return va.viper.IsSet(key)
}

// Get returns the raw value of the key.
func (va *ViperAdapter) Get(key string) interface{} {
	return va.viper.Get(key)
}

// SetFromFile reads the configuration data from the file.
func (va *ViperAdapter) SetFromFile(path string, dataType DataType) error {
	va.viper.SetConfigType(string(dataType))
	va.viper.SetConfigFile(path)
	return va.viper.ReadInConfig()
}

// SetFromReader reads the configuration data from the reader.
func (va *ViperAdapter) SetFromReader(reader io.Reader, dataType DataType) error {
	va.viper.SetConfigType(string(dataType))
	return va.viper.ReadConfig(reader)
}

// getAs casts the value of the key. If nilAsZero is true, a missing value is returned as zero without an error.
func getAs[T any](va *ViperAdapter, key string, nilAsZero bool, castFn func(interface{}) (T, error)) (T, error) {
	val := va.Get(key)
	if val == nil && nilAsZero {
		var zero T
		return zero, nil
	}
	res, err := castFn(val)
	return res, WrapKeyErrIfNeeded(key, err)
}

// GetBool returns the value of the key as bool.
func (va *ViperAdapter) GetBool(key string) (bool, error) {
	return getAs(va, key, false, cast.ToBoolE)
}

// GetInt returns the value of the key as int.
func (va *ViperAdapter) GetInt(key string) (int, error) {
	return getAs(va, key, false, cast.ToIntE)
}

// GetString returns the value of the key as string.
func (va *ViperAdapter) GetString(key string) (string, error) {
	return getAs(va, key, false, cast.ToStringE)
}

// GetStringSlice returns the value of the key as a slice of strings. A missing value is returned as nil.
func (va *ViperAdapter) GetStringSlice(key string) ([]string, error) {
	return getAs(va, key, true, cast.ToStringSliceE)
}

// GetDuration returns the value of the key as time.Duration. A missing value is returned as zero.
func (va *ViperAdapter) GetDuration(key string) (time.Duration, error) {
	return getAs(va, key, true, cast.ToDurationE)
}

// GetStringFromSet returns the value of the key as string and checks that it's one of the set.
func (va *ViperAdapter) GetStringFromSet(key string, set []string, ignoreCase bool) (string, error) {
	str, err := va.GetString(key)
	if err != nil {
		return "", err
	}
	for _, s := range set {
		if str == s || (ignoreCase && strings.EqualFold(str, s)) {
			return str, nil
		}
	}
	return "", WrapKeyErr(key, fmt.Errorf("unknown value %q, should be one of %v", str, set))
}

// GetBytesCount returns the value of the key as a size in bytes.
// Both numbers and human-readable strings ("512K", "1M", "1Mi") are accepted. A missing value is returned as zero.
func (va *ViperAdapter) GetBytesCount(key string) (BytesCount, error) {
	return getAs(va, key, true, toBytesCountE)
}

func toBytesCountE(val interface{}) (BytesCount, error) {
	switch v := val.(type) {
	case BytesCount:
		return v, nil
	case string:
		return parseBytesCountFromString(v)
	case float32, float64:
		num := cast.ToFloat64(v)
		if num < 0 {
			return 0, fmt.Errorf("negative value is not allowed: %v", num)
		}
		return BytesCount(num), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		num, err := cast.ToInt64E(v)
		if err != nil {
			return 0, err
		}
		if num < 0 {
			return 0, fmt.Errorf("negative value is not allowed: %d", num)
		}
		return BytesCount(num), nil
	default:
		return 0, fmt.Errorf("unsupported type for bytes count: %T", val)
	}
}

// Unmarshal decodes the whole configuration data into rawVal.
func (va *ViperAdapter) Unmarshal(rawVal interface{}, opts ...DecoderConfigOption) error {
	return va.viper.Unmarshal(rawVal, toViperDecoderOptions(opts)...)
}

// UnmarshalKey decodes the value of the key into rawVal.
func (va *ViperAdapter) UnmarshalKey(key string, rawVal interface{}, opts ...DecoderConfigOption) error {
	return WrapKeyErrIfNeeded(key, va.viper.UnmarshalKey(key, rawVal, toViperDecoderOptions(opts)...))
}

// WrapKeyErr adds the key to the error message.
func (va *ViperAdapter) WrapKeyErr(key string, err error) error {
	return WrapKeyErr(key, err)
}

func toViperDecoderOptions(opts []DecoderConfigOption) []viper.DecoderConfigOption {
	res := make([]viper.DecoderConfigOption, len(opts))
	for i, opt := range opts {
		res[i] = viper.DecoderConfigOption(opt)
	}
	return res
}
