// If you are AI: This file defines the configuration structure for the telemetry relay.
// It uses strict YAML decoding and explicit defaults.

package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete server configuration.
// All fields must have explicit defaults or be required.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Relay   RelayConfig   `yaml:"relay"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig defines listener settings.
type ServerConfig struct {
	HTTPPort   int `yaml:"http_port"`   // Port for ingest/subscribe websockets, API and metrics
	HealthPort int `yaml:"health_port"` // Port for health and readiness probes
}

// RelayConfig tunes channels and sessions.
type RelayConfig struct {
	ChannelCapacity   int           `yaml:"channel_capacity"`   // Per-subscriber queue size
	KeepaliveInterval time.Duration `yaml:"keepalive_interval"` // Idle time before probing a producer
	WriteTimeout      time.Duration `yaml:"write_timeout"`      // Deadline for each outbound frame
	MaxFrameBytes     int64         `yaml:"max_frame_bytes"`    // Largest accepted inbound frame
	EvictIdleAfter    time.Duration `yaml:"evict_idle_after"`   // 0 keeps channels forever
	RegistryShards    int           `yaml:"registry_shards"`    // Lock shards in the channel registry
}

// LoggingConfig defines log level, format and destination.
type LoggingConfig struct {
	Level      string `yaml:"level"`        // debug, info, warn, error
	Format     string `yaml:"format"`       // text or json
	File       string `yaml:"file"`         // Empty writes to stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`  // Rotate after this size
	MaxBackups int    `yaml:"max_backups"`  // Rotated files to keep
	MaxAgeDays int    `yaml:"max_age_days"` // Days to keep rotated files
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads configuration from a YAML file.
// An empty path returns the defaults. Returns an error if the file cannot be read or decoded.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration bytes and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields

	// An empty document decodes to io.EOF; treat it as all defaults
	if err := decoder.Decode(&cfg); err != nil && len(bytes.TrimSpace(data)) > 0 {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

// setDefaults applies explicit default values to unset fields.
func (c *Config) setDefaults() {
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 3000
	}
	if c.Server.HealthPort == 0 {
		c.Server.HealthPort = 8080
	}

	if c.Relay.ChannelCapacity == 0 {
		c.Relay.ChannelCapacity = 256
	}
	if c.Relay.KeepaliveInterval == 0 {
		c.Relay.KeepaliveInterval = 30 * time.Second
	}
	if c.Relay.WriteTimeout == 0 {
		c.Relay.WriteTimeout = 10 * time.Second
	}
	if c.Relay.MaxFrameBytes == 0 {
		c.Relay.MaxFrameBytes = 1 << 20
	}
	if c.Relay.RegistryShards == 0 {
		c.Relay.RegistryShards = 32
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 100
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = 28
	}
}
