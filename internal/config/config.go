// Package config loads the server configuration from defaults, an optional
// TOML file, and BACKOFFICE_* environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const envPrefix = "BACKOFFICE_"

// Config is the full server configuration.
type Config struct {
	Addr     string   `koanf:"addr"`
	Database Database `koanf:"database"`
	Log      Log      `koanf:"log"`
}

// Database locates the sqlite records file.
type Database struct {
	Path string `koanf:"path"`
}

// Log controls logging output.
type Log struct {
	Level string `koanf:"level"`
}

func defaults() map[string]any {
	return map[string]any{
		"addr":          ":8080",
		"database.path": "backoffice.db",
		"log.level":     "info",
	}
}

// Load reads the configuration. path may be empty or name a missing file;
// either way defaults and environment overrides still apply.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return Config{}, fmt.Errorf("loading %s: %w", path, err)
			}
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}
