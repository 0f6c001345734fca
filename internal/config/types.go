package config

import "gopkg.in/yaml.v3"

// Config is the daemon configuration, loaded from a single YAML file.
//
// The resources stanza is kept as a raw YAML node rather than decoded
// into a struct: the failover builder needs declaration order and
// per-key validation that struct decoding would throw away.
type Config struct {
	Server    ServerConfig  `yaml:"server"`
	API       APIConfig     `yaml:"api"`
	Logging   LoggingConfig `yaml:"logging"`
	Resources yaml.Node     `yaml:"resources"`
}

// ServerConfig configures the DNS front end.
type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Zone       string `yaml:"zone"`
	DisableTCP bool   `yaml:"disable_tcp"`
	MaxTTL     uint32 `yaml:"max_ttl"`
}

// APIConfig configures the management REST API.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	APIKey  string `yaml:"api_key"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}
