package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// Config - CLI Configuration File
// =============================================================================

// Config holds settings loaded from the TOML config file. Every field has a
// working default so the file is optional.
type Config struct {
	Parse  ParseConfig  `toml:"parse"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
	Redis  RedisConfig  `toml:"redis"`
	Mongo  MongoConfig  `toml:"mongo"`
}

// ParseConfig controls parsing defaults shared by parse and check.
type ParseConfig struct {
	// Lenient downgrades unresolved style/class/click references from
	// errors to warnings.
	Lenient bool `toml:"lenient"`
	// Workers is the worker count for multi-file runs. Zero means the
	// built-in default.
	Workers int `toml:"workers"`
}

// CacheConfig controls the on-disk result cache.
type CacheConfig struct {
	// Dir overrides the XDG cache location.
	Dir string `toml:"dir"`
}

// ServerConfig controls the serve command.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// CacheScope namespaces the server's cache keys, for deployments that
	// share one Redis instance.
	CacheScope string `toml:"cache_scope"`
}

// RedisConfig configures the optional Redis result cache for serve.
// An empty Addr disables Redis and serve falls back to the file cache.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig configures the optional MongoDB diagram store for serve.
// An empty URI disables Mongo and serve keeps diagrams in memory.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Mongo:  MongoConfig{Database: appName},
	}
}

// DefaultConfigPath returns the standard config file location,
// honoring XDG_CONFIG_HOME (~/.config/mermaid/config.toml).
func DefaultConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// LoadConfig reads the TOML config at path. An empty path means the default
// location. A missing file is not an error and yields DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return DefaultConfig(), nil
		}
	}

	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("loading config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}
