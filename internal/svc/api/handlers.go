// If you are AI: This file implements HTTP API handlers.
// All handlers read registry and session snapshots and never block the relay.

package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"time"
)

// ServerResponse represents the /api/server response.
type ServerResponse struct {
	Version         string   `json:"version"`
	Uptime          int64    `json:"uptime"` // seconds
	GoVersion       string   `json:"go_version"`
	EnabledServices []string `json:"enabled_services"`
}

// StreamInfo represents information about a stream channel.
type StreamInfo struct {
	Kind            string     `json:"kind"`
	Producer        string     `json:"producer"`
	Producers       int        `json:"producers"`
	SubscriberCount int        `json:"subscriber_count"`
	HasLastValue    bool       `json:"has_last_value"`
	LastSeq         uint64     `json:"last_seq"`
	LastPublishedAt *time.Time `json:"last_published_at,omitempty"`
}

// StreamsResponse represents the /api/streams response.
type StreamsResponse struct {
	Streams []StreamInfo `json:"streams"`
}

// SessionResponseInfo represents one running session.
type SessionResponseInfo struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Kind      string    `json:"kind"`
	Producer  string    `json:"producer"`
	StartedAt time.Time `json:"started_at"`
}

// SessionsResponse represents the /api/sessions response.
type SessionsResponse struct {
	Sessions []SessionResponseInfo `json:"sessions"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleServer handles GET /api/server.
// Returns server version, uptime, and enabled services.
func (s *Service) handleServer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	response := ServerResponse{
		Version:         s.version,
		Uptime:          int64(time.Since(s.startTime).Seconds()),
		GoVersion:       runtime.Version(),
		EnabledServices: s.services,
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleStreams handles GET /api/streams.
// Returns every channel in the registry ordered by stream key.
// Allocation: one StreamInfo per channel plus JSON encoding.
func (s *Service) handleStreams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	keys := s.registry.List()
	streams := make([]StreamInfo, 0, len(keys))

	for _, key := range keys {
		channel := s.registry.Get(key)
		if channel == nil {
			// Evicted between List and Get
			continue
		}

		stats := channel.Stats()
		info := StreamInfo{
			Kind:            key.Kind.String(),
			Producer:        key.ProducerID,
			Producers:       stats.Producers,
			SubscriberCount: stats.Subscriptions,
			HasLastValue:    stats.HasLastValue,
			LastSeq:         stats.LastSeq,
		}
		if stats.HasLastValue {
			published := stats.LastPublishedAt
			info.LastPublishedAt = &published
		}
		streams = append(streams, info)
	}

	sort.Slice(streams, func(i, j int) bool {
		if streams[i].Kind != streams[j].Kind {
			return streams[i].Kind < streams[j].Kind
		}
		return streams[i].Producer < streams[j].Producer
	})

	s.writeJSON(w, http.StatusOK, StreamsResponse{Streams: streams})
}

// handleSessions handles GET /api/sessions.
// Returns the running ingest and subscribe sessions.
func (s *Service) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	running := s.sessions.Sessions()
	sessions := make([]SessionResponseInfo, 0, len(running))
	for _, info := range running {
		sessions = append(sessions, SessionResponseInfo{
			ID:        info.ID,
			Role:      info.Role.String(),
			Kind:      info.Key.Kind.String(),
			Producer:  info.Key.ProducerID,
			StartedAt: info.StartedAt,
		})
	}

	s.writeJSON(w, http.StatusOK, SessionsResponse{Sessions: sessions})
}

// writeJSON writes a JSON response.
func (s *Service) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Service) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
