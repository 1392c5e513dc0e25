// If you are AI: This file provides HTTP API service integration.
// The API exposes relay state read-only and never touches the publish path.

package api

import (
	"net/http"
	"time"

	"telemetryrelay/internal/core/bus"
	"telemetryrelay/internal/svc/relay"
)

// Service provides HTTP API functionality.
type Service struct {
	registry  bus.Registry
	sessions  SessionLister
	version   string
	services  []string
	startTime time.Time
}

// SessionLister exposes the running sessions.
// This allows the API to work with the session manager without tight coupling.
type SessionLister interface {
	Sessions() []relay.SessionInfo
}

// NewService creates a new API service.
// services names the enabled components reported by /api/server.
func NewService(registry bus.Registry, sessions SessionLister, version string, services []string) *Service {
	return &Service{
		registry:  registry,
		sessions:  sessions,
		version:   version,
		services:  services,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers API routes on the provided mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/server", s.handleServer)
	mux.HandleFunc("/api/streams", s.handleStreams)
	mux.HandleFunc("/api/sessions", s.handleSessions)
}
