/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/acronis/go-lookupcache/config"
	"github.com/acronis/go-lookupcache/httpserver"
	"github.com/acronis/go-lookupcache/log"
	"github.com/acronis/go-lookupcache/lookup"
	"github.com/acronis/go-lookupcache/profserver"
	"github.com/acronis/go-lookupcache/userstore"
)

// envVarsPrefix is a prefix for environment variables that override the configuration file,
// e.g. LOOKUPCACHE_SERVER_ADDRESS or LOOKUPCACHE_CACHE_TTL.
const envVarsPrefix = "lookupcache"

// dotEnvFiles are loaded in order, variables that are already set are not overridden.
var dotEnvFiles = []string{".env.local", ".env"}

// AppConfig represents the whole service configuration.
type AppConfig struct {
	Server     *httpserver.Config
	ProfServer *profserver.Config
	Log        *log.Config
	Cache      *lookup.Config
	Store      *userstore.Config
}

// NewAppConfig creates a new AppConfig.
func NewAppConfig() *AppConfig {
	return &AppConfig{
		Server:     httpserver.NewConfig(),
		ProfServer: profserver.NewConfig(),
		Log:        log.NewConfig(),
		Cache:      lookup.NewConfig(),
		Store:      userstore.NewConfig(),
	}
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *AppConfig) SetProviderDefaults(dp config.DataProvider) {
	config.CallSetProviderDefaultsForFields(c, dp)
}

// Set sets configuration values from config.DataProvider.
func (c *AppConfig) Set(dp config.DataProvider) error {
	return config.CallSetForFields(c, dp)
}

func loadDotEnv() error {
	for _, fileName := range dotEnvFiles {
		if err := godotenv.Load(fileName); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", fileName, err)
		}
	}
	return nil
}

// loadAppConfig loads the configuration from the file (if the path is not empty) and environment variables.
func loadAppConfig(cfgPath string) (*AppConfig, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := NewAppConfig()
	cfgLoader := config.NewDefaultLoader(envVarsPrefix)
	if cfgPath == "" {
		if err := cfgLoader.LoadFromReader(strings.NewReader(""), config.DataTypeYAML, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	dataType, err := dataTypeByPath(cfgPath)
	if err != nil {
		return nil, err
	}
	if _, err = os.Stat(cfgPath); err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if err = cfgLoader.LoadFromFile(cfgPath, dataType, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func dataTypeByPath(cfgPath string) (config.DataType, error) {
	switch ext := strings.ToLower(filepath.Ext(cfgPath)); ext {
	case ".yml", ".yaml":
		return config.DataTypeYAML, nil
	case ".json":
		return config.DataTypeJSON, nil
	default:
		return "", fmt.Errorf("unsupported config file extension %q", ext)
	}
}
