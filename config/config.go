/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package config

import "reflect"

// Config is implemented by the configuration objects of the components.
// SetProviderDefaults registers default values, Set reads and validates the values.
type Config interface {
	SetProviderDefaults(dp DataProvider)
	Set(dp DataProvider) error
}

// KeyPrefixProvider is implemented by configs whose keys are nested under a prefix (e.g. "server", "cache").
type KeyPrefixProvider interface {
	KeyPrefix() string
}

// dataProviderFor returns the data provider scoped to the key prefix of the config, if any.
func dataProviderFor(cfg Config, dp DataProvider) DataProvider {
	if kp, ok := cfg.(KeyPrefixProvider); ok && kp.KeyPrefix() != "" {
		return NewKeyPrefixedDataProvider(dp, kp.KeyPrefix())
	}
	return dp
}

// configFields returns the exported non-nil fields of the struct pointed by obj that implement Config.
func configFields(obj interface{}) []Config {
	el := reflect.ValueOf(obj).Elem()
	var cfgs []Config
	for i := 0; i < el.NumField(); i++ {
		if !el.Type().Field(i).IsExported() {
			continue
		}
		field := el.Field(i)
		switch field.Kind() {
		case reflect.Ptr, reflect.Interface:
			if field.IsNil() {
				continue
			}
		default:
		}
		if cfg, ok := field.Interface().(Config); ok {
			cfgs = append(cfgs, cfg)
		}
	}
	return cfgs
}

// CallSetProviderDefaultsForFields calls SetProviderDefaults for each exported non-nil field
// of the struct pointed by obj that implements Config. It's useful for composite application configs.
func CallSetProviderDefaultsForFields(obj interface{}, dp DataProvider) {
	for _, cfg := range configFields(obj) {
		cfg.SetProviderDefaults(dataProviderFor(cfg, dp))
	}
}

// CallSetForFields calls Set for each exported non-nil field of the struct pointed by obj that implements Config.
// The first error is returned.
func CallSetForFields(obj interface{}, dp DataProvider) error {
	for _, cfg := range configFields(obj) {
		if err := cfg.Set(dataProviderFor(cfg, dp)); err != nil {
			return err
		}
	}
	return nil
}
