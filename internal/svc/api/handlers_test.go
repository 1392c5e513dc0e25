// If you are AI: This file contains unit tests for API handlers.
// Tests verify JSON responses and error handling.

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"telemetryrelay/internal/core/bus"
	"telemetryrelay/internal/svc/relay"
)

// staticSessions is a fixed SessionLister.
type staticSessions []relay.SessionInfo

func (s staticSessions) Sessions() []relay.SessionInfo {
	return s
}

func newTestService(registry bus.Registry, sessions SessionLister) *Service {
	return NewService(registry, sessions, "test", []string{"relay", "api"})
}

func TestHandleServer(t *testing.T) {
	service := newTestService(bus.NewRegistry(), staticSessions(nil))

	req := httptest.NewRequest("GET", "/api/server", nil)
	w := httptest.NewRecorder()

	service.handleServer(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response ServerResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.Version != "test" {
		t.Errorf("Expected version 'test', got '%s'", response.Version)
	}
	if response.Uptime < 0 {
		t.Error("Uptime should be non-negative")
	}
	if response.GoVersion == "" {
		t.Error("GoVersion should not be empty")
	}
	if len(response.EnabledServices) != 2 {
		t.Errorf("Expected 2 enabled services, got %v", response.EnabledServices)
	}
}

func TestHandleStreams(t *testing.T) {
	registry := bus.NewRegistry()
	service := newTestService(registry, staticSessions(nil))

	// Test empty streams
	req := httptest.NewRequest("GET", "/api/streams", nil)
	w := httptest.NewRecorder()

	service.handleStreams(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response StreamsResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(response.Streams) != 0 {
		t.Errorf("Expected 0 streams, got %d", len(response.Streams))
	}

	// Test with streams
	motion, _ := registry.GetOrCreate(bus.NewStreamKey("device-7", bus.KindCoreMotion))
	motion.Attach(bus.RoleProducer)
	motion.Publish("{x:1}")
	motion.Subscribe()
	registry.GetOrCreate(bus.NewStreamKey("device-7", bus.KindPadCoordinates))

	req2 := httptest.NewRequest("GET", "/api/streams", nil)
	w2 := httptest.NewRecorder()

	service.handleStreams(w2, req2)

	var response2 StreamsResponse
	if err := json.NewDecoder(w2.Body).Decode(&response2); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(response2.Streams) != 2 {
		t.Fatalf("Expected 2 streams, got %d", len(response2.Streams))
	}

	first := response2.Streams[0]
	if first.Kind != "core-motion" || first.Producer != "device-7" {
		t.Errorf("Stream info incorrect: %+v", first)
	}
	if first.Producers != 1 || first.SubscriberCount != 1 {
		t.Errorf("Expected 1 producer and 1 subscriber, got %+v", first)
	}
	if !first.HasLastValue || first.LastSeq != 1 || first.LastPublishedAt == nil {
		t.Errorf("Expected last value with seq 1, got %+v", first)
	}

	second := response2.Streams[1]
	if second.HasLastValue || second.LastPublishedAt != nil {
		t.Errorf("Unpublished stream should report no last value, got %+v", second)
	}
}

func TestHandleSessions(t *testing.T) {
	started := time.Now()
	sessions := staticSessions{{
		ID:        "abc",
		Role:      bus.RoleConsumer,
		Key:       bus.NewStreamKey("device-7", bus.KindPadCoordinates),
		StartedAt: started,
	}}
	service := newTestService(bus.NewRegistry(), sessions)

	req := httptest.NewRequest("GET", "/api/sessions", nil)
	w := httptest.NewRecorder()

	service.handleSessions(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response SessionsResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(response.Sessions) != 1 {
		t.Fatalf("Expected 1 session, got %d", len(response.Sessions))
	}
	got := response.Sessions[0]
	if got.ID != "abc" || got.Role != "consumer" || got.Kind != "pad-coordinates" || got.Producer != "device-7" {
		t.Errorf("Session info incorrect: %+v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("Expected started_at %v, got %v", started, got.StartedAt)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	service := newTestService(bus.NewRegistry(), staticSessions(nil))
	mux := http.NewServeMux()
	service.RegisterRoutes(mux)

	for _, path := range []string{"/api/server", "/api/streams", "/api/sessions"} {
		req := httptest.NewRequest("POST", path, nil)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected status 405, got %d", path, w.Code)
		}

		var response ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}
		if response.Error == "" {
			t.Errorf("%s: error message should not be empty", path)
		}
	}
}
