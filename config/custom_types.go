/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"gopkg.in/yaml.v3"
)

// BytesCount is a size in bytes for configuration structures.
// It's decoded from a non-negative integer or a human-readable string ("512K", "1M", "1Gi")
// and encoded as a human-readable string.
type BytesCount uint64

// UnmarshalJSON implements json.Unmarshaler.
func (b *BytesCount) UnmarshalJSON(data []byte) error {
	return b.parse(strings.Trim(string(data), `"`))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *BytesCount) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid bytes count: %w", err)
	}
	return b.parse(s)
}

// UnmarshalText implements encoding.TextUnmarshaler, it's used by mapstructure.TextUnmarshallerHookFunc.
func (b *BytesCount) UnmarshalText(text []byte) error {
	return b.parse(string(text))
}

func (b *BytesCount) parse(s string) error {
	if num, err := strconv.ParseInt(s, 10, 64); err == nil {
		if num < 0 {
			return fmt.Errorf("negative value is not allowed: %d", num)
		}
		*b = BytesCount(num)
		return nil
	}
	parsed, err := parseBytesCountFromString(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

func (b BytesCount) String() string {
	return bytefmt.ByteSize(uint64(b))
}

// MarshalJSON implements json.Marshaler.
func (b BytesCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// MarshalYAML implements yaml.Marshaler.
func (b BytesCount) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

// MarshalText implements encoding.TextMarshaler.
func (b BytesCount) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// parseBytesCountFromString parses human-readable sizes.
// Kubernetes-style power-of-two suffixes ("Ki", "Mi", ...) are accepted as well.
func parseBytesCountFromString(s string) (BytesCount, error) {
	v := strings.TrimSpace(s)
	for _, k8sSuffix := range [...]string{"Ki", "Mi", "Gi", "Ti", "Pi", "Ei"} {
		if strings.HasSuffix(v, k8sSuffix) {
			v = strings.TrimSuffix(v, "i")
			break
		}
	}
	num, err := bytefmt.ToBytes(v)
	if err != nil {
		return 0, fmt.Errorf("invalid bytes count %q: %w", s, err)
	}
	return BytesCount(num), nil
}

// TimeDuration is a time.Duration for configuration structures.
// It's decoded from a non-negative integer (nanoseconds) or a string accepted by time.ParseDuration ("1m30s")
// and encoded as a string.
type TimeDuration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *TimeDuration) UnmarshalJSON(data []byte) error {
	return d.parse(strings.Trim(string(data), `"`))
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid time duration: %w", err)
	}
	return d.parse(s)
}

// UnmarshalText implements encoding.TextUnmarshaler, it's used by mapstructure.TextUnmarshallerHookFunc.
func (d *TimeDuration) UnmarshalText(text []byte) error {
	return d.parse(string(text))
}

func (d *TimeDuration) parse(s string) error {
	if num, err := strconv.ParseInt(s, 10, 64); err == nil {
		if num < 0 {
			return fmt.Errorf("negative value is not allowed: %d", num)
		}
		*d = TimeDuration(num)
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid time duration %q: %w", s, err)
	}
	*d = TimeDuration(dur)
	return nil
}

func (d TimeDuration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON implements json.Marshaler.
func (d TimeDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// MarshalYAML implements yaml.Marshaler.
func (d TimeDuration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// MarshalText implements encoding.TextMarshaler.
func (d TimeDuration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
