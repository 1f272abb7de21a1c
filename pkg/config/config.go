// Package config provides configuration management for classkit.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	apperrors "github.com/classkit/pkg/errors"
)

// Config holds all configuration for the application.
type Config struct {
	Sources  []SourceConfig `mapstructure:"sources"`
	Mapping  MappingConfig  `mapstructure:"mapping"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Export   ExportConfig   `mapstructure:"export"`
	Log      LogConfig      `mapstructure:"log"`
}

// Source types. Sources are consulted in the order they are configured.
const (
	SourceDir      = "dir"
	SourceArchive  = "archive"
	SourceStorage  = "storage"
	SourceDatabase = "database"
)

// SourceConfig describes one class byte source.
type SourceConfig struct {
	Type   string `mapstructure:"type"`
	Path   string `mapstructure:"path"`   // directory or archive path
	Prefix string `mapstructure:"prefix"` // key prefix for storage sources
}

// MappingConfig selects a rename table.
type MappingConfig struct {
	Dialect string `mapstructure:"dialect"` // srg, directive or none
	File    string `mapstructure:"file"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Type     string `mapstructure:"type"` // sqlite, postgres or mysql
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DSN      string `mapstructure:"dsn"` // overrides the fields above; file path for sqlite
	MaxConns int    `mapstructure:"max_conns"`
}

// StorageConfig holds object storage configuration.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`     // e.g., "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`     // e.g., "https" or "http"
	LocalPath string `mapstructure:"local_path"` // for local storage
}

// ResolverConfig tunes hierarchy resolution.
type ResolverConfig struct {
	PreloadWorkers int `mapstructure:"preload_workers"`
}

// ExportConfig controls how classes are written to storage.
type ExportConfig struct {
	Prefix      string `mapstructure:"prefix"`
	Compression string `mapstructure:"compression"` // zstd, gzip or none
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"` // empty means stderr
}

// Load reads configuration from the specified file path. A missing file
// yields the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("classkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.config/classkit")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.CodeConfigError, "failed to read config file", err)
		}
	}

	v.SetEnvPrefix("CLASSKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return decode(v)
}

// LoadFromReader loads configuration from raw content (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "failed to read config", err)
	}
	return decode(v)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, _ := decode(v)
	return cfg
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "failed to unmarshal config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "config validation failed", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("mapping.dialect", "none")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "classkit.db")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./storage")

	v.SetDefault("resolver.preload_workers", 4)

	v.SetDefault("export.prefix", "classes/")
	v.SetDefault("export.compression", "zstd")

	v.SetDefault("log.level", "info")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for i, s := range c.Sources {
		switch s.Type {
		case SourceDir, SourceArchive:
			if s.Path == "" {
				return fmt.Errorf("sources[%d]: path is required for %s sources", i, s.Type)
			}
		case SourceStorage, SourceDatabase:
		default:
			return fmt.Errorf("sources[%d]: unsupported source type: %q", i, s.Type)
		}
	}

	switch c.Mapping.Dialect {
	case "srg", "directive":
		if c.Mapping.File == "" {
			return fmt.Errorf("mapping file is required for dialect %s", c.Mapping.Dialect)
		}
	case "none", "":
	default:
		return fmt.Errorf("unsupported mapping dialect: %s", c.Mapping.Dialect)
	}

	switch c.Database.Type {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	switch c.Export.Compression {
	case "zstd", "gzip", "none":
	default:
		return fmt.Errorf("unsupported export compression: %s", c.Export.Compression)
	}

	if c.Resolver.PreloadWorkers < 1 {
		return fmt.Errorf("preload workers must be at least 1")
	}

	return nil
}

// HasSource reports whether a source of the given type is configured.
func (c *Config) HasSource(sourceType string) bool {
	for _, s := range c.Sources {
		if s.Type == sourceType {
			return true
		}
	}
	return false
}
