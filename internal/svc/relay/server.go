// If you are AI: This file provides relay service integration.
// The service is mounted on the main HTTP server next to the API and metrics.

package relay

import (
	"net/http"

	"telemetryrelay/internal/core/bus"
)

// Service provides the websocket relay routes.
type Service struct {
	handler *Handler
}

// NewService creates a new relay service.
func NewService(registry bus.Registry, manager *Manager, opts HandlerOptions) *Service {
	return &Service{
		handler: NewHandler(registry, manager, opts),
	}
}

// RegisterRoutes registers relay routes on the provided mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.handler.RegisterRoutes(mux)
}
