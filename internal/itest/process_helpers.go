// If you are AI: This file provides helper functions for starting and managing server processes in tests.

package itest

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"telemetryrelay/internal/config"
)

// Process is a running telemetryrelay server.
type Process struct {
	Cmd        *exec.Cmd
	HTTPPort   int
	HealthPort int
}

// RelayURL returns the websocket base URL of the relay listener.
func (p *Process) RelayURL() string {
	return fmt.Sprintf("ws://127.0.0.1:%d", p.HTTPPort)
}

// APIURL returns the HTTP base URL of the relay listener.
func (p *Process) APIURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", p.HTTPPort)
}

// Stop sends SIGINT and waits for the process to exit.
// Returns the exit error, or an error if the process did not exit within timeout.
func (p *Process) Stop(timeout time.Duration) error {
	if err := p.Cmd.Process.Signal(syscall.SIGINT); err != nil {
		return fmt.Errorf("send SIGINT: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- p.Cmd.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		p.Cmd.Process.Kill()
		return fmt.Errorf("server did not exit within %v after SIGINT", timeout)
	}
}

// BuildBinary compiles the telemetryrelay binary into a temp dir.
func BuildBinary(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "telemetryrelay")
	buildCmd := exec.Command("go", "build", "-o", binPath, "../../cmd/telemetryrelay")
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		t.Fatalf("Failed to build binary: %v", err)
	}
	return binPath
}

// StartServer starts the server binary on free ports with cfg (defaults when nil)
// and waits for it to become healthy. The process is stopped on test cleanup.
func StartServer(t *testing.T, binPath string, cfg *config.Config) *Process {
	t.Helper()

	if cfg == nil {
		cfg = config.Default()
	}
	cfg.Server.HTTPPort = FindFreePort(t)
	cfg.Server.HealthPort = FindFreePort(t)
	for cfg.Server.HealthPort == cfg.Server.HTTPPort {
		cfg.Server.HealthPort = FindFreePort(t)
	}

	configPath, err := writeConfig(t.TempDir(), cfg)
	if err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, binPath, "serve", "--config", configPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		cancel()
		t.Fatalf("Failed to start server: %v", err)
	}

	p := &Process{Cmd: cmd, HTTPPort: cfg.Server.HTTPPort, HealthPort: cfg.Server.HealthPort}
	t.Cleanup(func() {
		if cmd.ProcessState == nil {
			p.Stop(5 * time.Second)
		}
		cancel()
	})

	if err := WaitForHealth(p.HealthPort, 10*time.Second); err != nil {
		t.Fatalf("Health endpoint not available: %v", err)
	}
	return p
}

// FindFreePort returns a TCP port that was free a moment ago.
func FindFreePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()
	return port
}

// WaitForHealth waits for the health endpoint to become available.
// Returns an error if the endpoint is not available within the timeout.
func WaitForHealth(port int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", port)

	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("health endpoint not available after %v", timeout)
}

// writeConfig marshals cfg into dir and returns the file path.
func writeConfig(dir string, cfg *config.Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}

	path := filepath.Join(dir, "telemetryrelay.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}
