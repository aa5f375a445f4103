package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix marks environment overrides. Nested keys are separated by a
// double underscore: AUTOASSIGN_SERVER__PORT sets server.port.
const EnvPrefix = "AUTOASSIGN_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (AUTOASSIGN_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps AUTOASSIGN_SCORING__MAX_LOAD to scoring.max_load.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validDrivers = map[StorageDriver]bool{
	StorageMemory: true,
	StorageSQLite: true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	if !validDrivers[c.Storage.Driver] {
		return fmt.Errorf("invalid storage.driver %q: must be memory or sqlite", c.Storage.Driver)
	}
	if c.Storage.Driver == StorageSQLite && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for sqlite")
	}

	if err := c.Scoring.Workload().Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}

	if c.Escalation.AutoRetryLimit < 1 {
		return fmt.Errorf("escalation.auto_retry_limit must be at least 1")
	}

	if c.Monitor.Enabled && c.Monitor.Interval <= 0 {
		return fmt.Errorf("monitor.interval must be positive")
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be one of debug, info, warn, error", c.Log.Level)
	}
	if !validLogFormats[strings.ToLower(c.Log.Format)] {
		return fmt.Errorf("invalid log.format %q: must be json or console", c.Log.Format)
	}

	if c.TeamsFile != "" {
		if _, err := os.Stat(c.TeamsFile); err != nil {
			return fmt.Errorf("teams_file: %w", err)
		}
	}

	return nil
}
