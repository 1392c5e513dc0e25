// If you are AI: This file validates configuration values and returns descriptive errors.

package config

import (
	"fmt"
)

// Validate checks that all configuration values are within acceptable ranges.
// Returns an error describing the first validation failure found.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Relay.Validate(); err != nil {
		return fmt.Errorf("relay config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate checks server configuration values.
func (s *ServerConfig) Validate() error {
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("http_port must be between 1 and 65535, got %d", s.HTTPPort)
	}
	if s.HealthPort <= 0 || s.HealthPort > 65535 {
		return fmt.Errorf("health_port must be between 1 and 65535, got %d", s.HealthPort)
	}
	if s.HealthPort == s.HTTPPort {
		return fmt.Errorf("health_port and http_port must be different, both are %d", s.HealthPort)
	}
	return nil
}

// Validate checks relay tuning values.
func (r *RelayConfig) Validate() error {
	if r.ChannelCapacity < 1 {
		return fmt.Errorf("channel_capacity must be at least 1, got %d", r.ChannelCapacity)
	}
	if r.KeepaliveInterval <= 0 {
		return fmt.Errorf("keepalive_interval must be positive, got %s", r.KeepaliveInterval)
	}
	if r.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive, got %s", r.WriteTimeout)
	}
	if r.MaxFrameBytes < 1 {
		return fmt.Errorf("max_frame_bytes must be at least 1, got %d", r.MaxFrameBytes)
	}
	if r.EvictIdleAfter < 0 {
		return fmt.Errorf("evict_idle_after must not be negative, got %s", r.EvictIdleAfter)
	}
	if r.RegistryShards < 1 {
		return fmt.Errorf("registry_shards must be at least 1, got %d", r.RegistryShards)
	}
	return nil
}

// Validate checks logging values against the supported sets.
func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("level must be one of debug, info, warn, error, got %q", l.Level)
	}
	switch l.Format {
	case "text", "json":
	default:
		return fmt.Errorf("format must be text or json, got %q", l.Format)
	}
	if l.MaxSizeMB < 0 || l.MaxBackups < 0 || l.MaxAgeDays < 0 {
		return fmt.Errorf("rotation limits must not be negative")
	}
	return nil
}
