// If you are AI: This file contains unit tests for configuration loading and validation.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Server.HTTPPort != 3000 {
		t.Errorf("Expected http_port 3000, got %d", cfg.Server.HTTPPort)
	}
	if cfg.Relay.ChannelCapacity != 256 {
		t.Errorf("Expected channel_capacity 256, got %d", cfg.Relay.ChannelCapacity)
	}
	if cfg.Relay.KeepaliveInterval != 30*time.Second {
		t.Errorf("Expected keepalive_interval 30s, got %s", cfg.Relay.KeepaliveInterval)
	}
	if cfg.Relay.EvictIdleAfter != 0 {
		t.Errorf("Eviction should be disabled by default, got %s", cfg.Relay.EvictIdleAfter)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.yaml")
	content := `server:
  http_port: 9000
  health_port: 9001
relay:
  channel_capacity: 64
  keepalive_interval: 5s
  evict_idle_after: 10m
logging:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTPPort != 9000 || cfg.Server.HealthPort != 9001 {
		t.Errorf("Unexpected ports %+v", cfg.Server)
	}
	if cfg.Relay.ChannelCapacity != 64 {
		t.Errorf("Expected channel_capacity 64, got %d", cfg.Relay.ChannelCapacity)
	}
	if cfg.Relay.KeepaliveInterval != 5*time.Second {
		t.Errorf("Expected keepalive_interval 5s, got %s", cfg.Relay.KeepaliveInterval)
	}
	if cfg.Relay.EvictIdleAfter != 10*time.Minute {
		t.Errorf("Expected evict_idle_after 10m, got %s", cfg.Relay.EvictIdleAfter)
	}
	// Unset fields keep defaults
	if cfg.Relay.WriteTimeout != 10*time.Second {
		t.Errorf("Expected default write_timeout, got %s", cfg.Relay.WriteTimeout)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected json format, got %s", cfg.Logging.Format)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with empty path failed: %v", err)
	}
	if cfg.Server.HealthPort != 8080 {
		t.Errorf("Expected default health_port, got %d", cfg.Server.HealthPort)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load should fail for a missing file")
	}
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse([]byte("\n"))
	if err != nil {
		t.Fatalf("Empty document should parse: %v", err)
	}
	if cfg.Relay.RegistryShards != 32 {
		t.Errorf("Expected default shards, got %d", cfg.Relay.RegistryShards)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("server:\n  rtmp_port: 1935\n"))
	if err == nil {
		t.Fatal("Unknown fields should be rejected")
	}
	if !strings.Contains(err.Error(), "decode config") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestValidateFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad http port", func(c *Config) { c.Server.HTTPPort = 70000 }, "http_port"},
		{"same ports", func(c *Config) { c.Server.HealthPort = c.Server.HTTPPort }, "must be different"},
		{"zero capacity", func(c *Config) { c.Relay.ChannelCapacity = -1 }, "channel_capacity"},
		{"negative keepalive", func(c *Config) { c.Relay.KeepaliveInterval = -time.Second }, "keepalive_interval"},
		{"negative eviction", func(c *Config) { c.Relay.EvictIdleAfter = -time.Second }, "evict_idle_after"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}
