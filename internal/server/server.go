// If you are AI: This file implements the HTTP server lifecycle and routing.
// It wires the registry, session manager, metrics and services onto two listeners.

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"telemetryrelay/internal/config"
	"telemetryrelay/internal/core/bus"
	"telemetryrelay/internal/core/transport"
	"telemetryrelay/internal/logging"
	"telemetryrelay/internal/metrics"
	"telemetryrelay/internal/svc/api"
	"telemetryrelay/internal/svc/health"
	"telemetryrelay/internal/svc/relay"
)

// DefaultShutdownTimeout bounds ShutdownWithTimeout.
const DefaultShutdownTimeout = 5 * time.Second

// Options carries process-level values that are not part of the config file.
type Options struct {
	Version string
	Logger  *slog.Logger
}

// Server wraps the relay and health HTTP servers and their dependencies.
type Server struct {
	relayServer  *http.Server
	healthServer *http.Server
	healthSvc    *health.Service
	registry     *bus.MemoryRegistry
	manager      *relay.Manager
	metrics      *metrics.Metrics
	reaper       *relay.Reaper
	logger       *slog.Logger

	// Cancels background workers (reaper)
	bgCtx    context.Context
	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New creates a new server instance with the given configuration.
// The server is not started until Start or Serve is called.
func New(cfg *config.Config, opts Options) *Server {
	logger := logging.OrDiscard(opts.Logger)
	m := metrics.New()

	registry := bus.NewRegistry(
		bus.WithShards(cfg.Relay.RegistryShards),
		bus.WithChannelCapacity(cfg.Relay.ChannelCapacity),
	)
	m.RegisterChannelGauge(registry.Count)

	manager := relay.NewManager(logger, m)
	services := []string{"ingest", "subscribe", "api", "metrics"}

	relayMux := http.NewServeMux()
	relay.NewService(registry, manager, relay.HandlerOptions{
		Session: relay.Options{
			KeepaliveInterval: cfg.Relay.KeepaliveInterval,
			Logger:            logger,
			Metrics:           m,
		},
		Transport: transport.Options{
			WriteTimeout:  cfg.Relay.WriteTimeout,
			MaxFrameBytes: cfg.Relay.MaxFrameBytes,
		},
	}).RegisterRoutes(relayMux)
	relayMux.Handle("/metrics", m.Handler())

	var reaper *relay.Reaper
	if cfg.Relay.EvictIdleAfter > 0 {
		reaper = relay.NewReaper(registry, cfg.Relay.EvictIdleAfter, logger)
		services = append(services, "idle_eviction")
	}
	api.NewService(registry, manager, opts.Version, services).RegisterRoutes(relayMux)

	healthMux := http.NewServeMux()
	healthSvc := health.New()
	healthSvc.RegisterRoutes(healthMux)

	bgCtx, bgCancel := context.WithCancel(context.Background())

	return &Server{
		relayServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
			Handler:           relayMux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		healthServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.HealthPort),
			Handler:           healthMux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		healthSvc: healthSvc,
		registry:  registry,
		manager:   manager,
		metrics:   m,
		reaper:    reaper,
		logger:    logger.With(slog.String("component", "server")),
		bgCtx:     bgCtx,
		bgCancel:  bgCancel,
	}
}

// Start listens on the configured ports and serves until shutdown.
// This method blocks until the server is stopped or encounters an error.
func (s *Server) Start() error {
	relayLn, err := net.Listen("tcp", s.relayServer.Addr)
	if err != nil {
		return fmt.Errorf("listen relay %s: %w", s.relayServer.Addr, err)
	}
	healthLn, err := net.Listen("tcp", s.healthServer.Addr)
	if err != nil {
		relayLn.Close()
		return fmt.Errorf("listen health %s: %w", s.healthServer.Addr, err)
	}
	return s.Serve(relayLn, healthLn)
}

// Serve accepts connections on the given listeners until shutdown.
// Returns http.ErrServerClosed after a graceful shutdown, like http.Server.Serve.
func (s *Server) Serve(relayLn, healthLn net.Listener) error {
	if s.reaper != nil {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			s.reaper.Run(s.bgCtx)
		}()
	}

	s.logger.Info("server listening",
		slog.String("relay_addr", relayLn.Addr().String()),
		slog.String("health_addr", healthLn.Addr().String()),
	)

	errs := make(chan error, 2)
	go func() { errs <- s.relayServer.Serve(relayLn) }()
	go func() { errs <- s.healthServer.Serve(healthLn) }()

	// The first failure ends serving; a clean shutdown closes both
	err := <-errs
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return err
}

// Shutdown gracefully stops the server.
// Readiness is dropped first, then sessions are cancelled and the listeners closed.
// Returns an error if shutdown fails or ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.healthSvc.SetReady(false)
	s.bgCancel()

	var errs []error
	if err := s.manager.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop sessions: %w", err))
	}
	if err := s.relayServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown relay server: %w", err))
	}
	if err := s.healthServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown health server: %w", err))
	}
	s.bgWG.Wait()

	return errors.Join(errs...)
}

// ShutdownWithTimeout stops the server with DefaultShutdownTimeout.
// This is a convenience wrapper around Shutdown.
func (s *Server) ShutdownWithTimeout() error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// Registry returns the channel registry.
func (s *Server) Registry() bus.Registry {
	return s.registry
}

// Manager returns the session manager.
func (s *Server) Manager() *relay.Manager {
	return s.manager
}

// Metrics returns the server's metrics.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}
