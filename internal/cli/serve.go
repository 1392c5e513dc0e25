// If you are AI: This file implements the `serve` command that runs the relay server.

package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"telemetryrelay/internal/config"
	"telemetryrelay/internal/logging"
	"telemetryrelay/internal/server"
)

// newServeCommand constructs the `serve` command.
func newServeCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			return runServe(cmd, configPath, version)
		},
	}
	cmd.Flags().String("config", "", "Path to configuration file (defaults apply when empty)")
	return cmd
}

// runServe loads configuration, starts the server and blocks until shutdown.
func runServe(cmd *cobra.Command, configPath, version string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()

	logger.Info("starting telemetryrelay",
		slog.String("version", version),
		slog.Int("http_port", cfg.Server.HTTPPort),
		slog.Int("health_port", cfg.Server.HealthPort),
	)

	srv := server.New(cfg, server.Options{Version: version, Logger: logger})
	shutdownHandler := server.NewShutdownHandler(cmd.Context(), srv, logger)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	waitErr := make(chan error, 1)
	go func() { waitErr <- shutdownHandler.Wait() }()

	select {
	case err, ok := <-serveErr:
		if ok {
			return errors.Join(err, srv.ShutdownWithTimeout())
		}
		return <-waitErr
	case err := <-waitErr:
		if err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	logger.Info("server shut down cleanly")
	return nil
}
