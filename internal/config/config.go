// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads Seatmaster settings from defaults, seatmaster.yaml,
// SEATMASTER_* environment variables and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Database    DatabaseConfig    `mapstructure:"database" yaml:"database"`
	Remote      RemoteConfig      `mapstructure:"remote" yaml:"remote"`
	Reservation ReservationConfig `mapstructure:"reservation" yaml:"reservation"`
	Cleanup     CleanupConfig     `mapstructure:"cleanup" yaml:"cleanup"`
	Sync        SyncConfig        `mapstructure:"sync" yaml:"sync"`
	Language    string            `mapstructure:"language" yaml:"language"`
	Log         LogConfig         `mapstructure:"log" yaml:"log"`
}

type DatabaseConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
	Dsn  string `mapstructure:"dsn" yaml:"dsn"`
}

type RemoteConfig struct {
	BaseURL       string        `mapstructure:"base_url" yaml:"base_url"`
	CustomersPath string        `mapstructure:"customers_path" yaml:"customers_path"`
	TablesPath    string        `mapstructure:"tables_path" yaml:"tables_path"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxAttempts   int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	Backoff       time.Duration `mapstructure:"backoff" yaml:"backoff"`
}

type ReservationConfig struct {
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type CleanupConfig struct {
	Interval    time.Duration `mapstructure:"interval" yaml:"interval"`
	ExpiredOnly bool          `mapstructure:"expired_only" yaml:"expired_only"`
}

type SyncConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Defaults returns the default values keyed by their dotted viper key.
func Defaults() map[string]any {
	return map[string]any{
		"database.type":         "sqlite",
		"database.dsn":          "./seatmaster.db",
		"remote.base_url":       "https://s3-eu-west-1.amazonaws.com/quandoo-assessment",
		"remote.customers_path": "customer-list.json",
		"remote.tables_path":    "table-map.json",
		"remote.timeout":        10 * time.Second,
		"remote.max_attempts":   3,
		"remote.backoff":        500 * time.Millisecond,
		"reservation.ttl":       10 * time.Minute,
		"cleanup.interval":      10 * time.Minute,
		"cleanup.expired_only":  false,
		"sync.interval":         5 * time.Minute,
		"language":              "en",
		"log.level":             "info",
	}
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "Seatmaster")
		default: // Linux, macOS, etc.
			configDir = "/etc/seatmaster"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "seatmaster")
	}

	return filepath.Join(configDir, "seatmaster.yaml"), nil
}

// LoadConfig builds a T from defaults, the first seatmaster.yaml found (or
// the explicit file), the environment and the flags of cmd, in increasing
// order of precedence. A missing config file is reported as
// viper.ConfigFileNotFoundError together with a fully populated T.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, explicitPath *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("seatmaster")
	v.SetConfigType("yaml")

	if explicitPath != nil {
		v.SetConfigFile(*explicitPath)
	}

	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	var notFound error
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
		notFound = err
	}

	v.SetEnvPrefix("seatmaster")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(false)
	v.AutomaticEnv()

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, notFound
}

// WriteConfigFile persists c as YAML at the user (or system) config path.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := GetConfigPath(system)
	if err != nil {
		return err
	}
	return WriteConfigFileTo(c, path)
}

// WriteConfigFileTo persists c as YAML at path, creating parent directories.
func WriteConfigFileTo[T any](c *T, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	return os.WriteFile(path, data, 0600)
}
