// Package config loads and validates the daemon configuration.
//
// One YAML file describes the whole daemon: the DNS front end, the
// management API, logging, and the failover resources stanza. The
// resources stanza is handed to the failover builder as an ordered
// vconf tree; everything else decodes into plain structs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chifu1234/gdnsd/internal/vconf"
)

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates and normalizes the configuration.
func (cfg *Config) Validate() error {
	// DNS front end
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 53
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return errors.New("config: server.port must be 1..65535")
	}
	if cfg.Server.Zone == "" {
		return errors.New("config: server.zone is required")
	}
	cfg.Server.Zone = NormalizeZone(cfg.Server.Zone)
	if cfg.Server.MaxTTL == 0 {
		cfg.Server.MaxTTL = 3600
	}

	// Management API
	if cfg.API.Host == "" {
		cfg.API.Host = "127.0.0.1"
	}
	if cfg.API.Enabled {
		if cfg.API.Port <= 0 || cfg.API.Port > 65535 {
			return errors.New("config: api.port must be 1..65535")
		}
	}

	// Logging
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	if cfg.Resources.IsZero() {
		return errors.New("config: a resources stanza is required")
	}
	return nil
}

// ResourceConfig returns the resources stanza as an ordered vconf tree.
// Each call returns a fresh tree; the failover builder consumes its
// input.
func (cfg *Config) ResourceConfig() (*vconf.Value, error) {
	v, err := vconf.FromNode(&cfg.Resources)
	if err != nil {
		return nil, fmt.Errorf("config: resources: %w", err)
	}
	return v, nil
}

// NormalizeZone lowercases a zone name and ensures a trailing dot.
func NormalizeZone(zone string) string {
	z := strings.ToLower(strings.TrimSpace(zone))
	if !strings.HasSuffix(z, ".") {
		z += "."
	}
	return z
}

// ResolveConfigPath picks the configuration file path: the -config
// flag wins, then the GDNSD_CONFIG environment variable.
func ResolveConfigPath(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv("GDNSD_CONFIG"))
}
