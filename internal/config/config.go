package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// FileConfig represents the top-level TOML structure.
type FileConfig struct {
	AppName  string        `toml:"app_name" mapstructure:"app_name"`
	Services []string      `toml:"services" mapstructure:"services"`
	DataDir  string        `toml:"data_dir" mapstructure:"data_dir"`
	Server   *ServerConfig `toml:"server" mapstructure:"server"`
	Store    *StoreConfig  `toml:"store" mapstructure:"store"`
	Log      *LogConfig    `toml:"log" mapstructure:"log"`
}

type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

type StoreConfig struct {
	DSN   string `toml:"dsn" mapstructure:"dsn"`
	Index string `toml:"index" mapstructure:"index"`
}

type LogConfig struct {
	Dir        string `toml:"dir" mapstructure:"dir"`
	Level      string `toml:"level" mapstructure:"level"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// Defaults applied when a field is absent from the file.
const (
	DefaultAppName = "rbcapp1"
	DefaultDataDir = "data"
	DefaultListen  = ":8080"
)

// DefaultServices returns the service set monitored when the file names none.
func DefaultServices() []string {
	return []string{"httpd", "rabbitmq", "postgresql"}
}

// Load parses the TOML file at path and applies defaults for the
// monitored-service set, data directory, app name and listen address.
func Load(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyDefaults(&fc)
	return &fc, nil
}

// Default returns a ready-to-use configuration without reading any file.
func Default() *FileConfig {
	fc := &FileConfig{}
	applyDefaults(fc)
	return fc
}

func applyDefaults(fc *FileConfig) {
	if fc.AppName == "" {
		fc.AppName = DefaultAppName
	}
	if len(fc.Services) == 0 {
		fc.Services = DefaultServices()
	}
	if fc.DataDir == "" {
		fc.DataDir = DefaultDataDir
	}
	if fc.Server == nil {
		fc.Server = &ServerConfig{}
	}
	if fc.Server.Listen == "" {
		fc.Server.Listen = DefaultListen
	}
	if fc.Store == nil {
		fc.Store = &StoreConfig{}
	}
}
