// If you are AI: This file implements the health and readiness endpoints for monitoring and integration tests.

package health

import (
	"net/http"
	"sync/atomic"
)

// Service provides health check functionality.
// Liveness is unconditional; readiness flips off once shutdown begins.
type Service struct {
	ready atomic.Bool
}

// New creates a new health service instance that reports ready.
func New() *Service {
	s := &Service{}
	s.ready.Store(true)
	return s
}

// SetReady changes the readiness reported by /readyz.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Ready reports the current readiness.
func (s *Service) Ready() bool {
	return s.ready.Load()
}

// RegisterRoutes adds health check routes to the provided mux.
// Registers /healthz and /readyz.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
}

// handleHealth responds to health check requests.
// Returns 200 OK to indicate the server is running.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleReady returns 200 while accepting sessions and 503 during shutdown.
func (s *Service) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}
