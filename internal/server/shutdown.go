// If you are AI: This file handles graceful shutdown orchestration for the server process.

package server

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telemetryrelay/internal/logging"
)

// ShutdownHandler manages graceful shutdown on SIGINT or SIGTERM.
type ShutdownHandler struct {
	server  *Server
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	logger  *slog.Logger
}

// NewShutdownHandler creates a handler that listens for termination signals.
// The provided context is used as the parent for shutdown operations.
func NewShutdownHandler(ctx context.Context, server *Server, logger *slog.Logger) *ShutdownHandler {
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ShutdownHandler{
		server:  server,
		ctx:     shutdownCtx,
		cancel:  cancel,
		timeout: DefaultShutdownTimeout,
		logger:  logging.OrDiscard(logger),
	}
}

// Wait blocks until a termination signal is received or the parent context ends,
// then shuts the server down.
// This method should be called from the main goroutine.
func (h *ShutdownHandler) Wait() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		h.logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case <-h.ctx.Done():
		h.logger.Info("shutdown requested")
	}

	// Cancel context to signal shutdown
	h.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	return h.server.Shutdown(shutdownCtx)
}

// Context returns the shutdown context that is cancelled when shutdown begins.
func (h *ShutdownHandler) Context() context.Context {
	return h.ctx
}
