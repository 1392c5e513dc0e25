// If you are AI: This file defines the session contract shared by ingest and subscribe sessions.
// A session owns one transport connection and talks to other sessions only through a bus channel.

package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"telemetryrelay/internal/core/bus"
	"telemetryrelay/internal/core/transport"
	"telemetryrelay/internal/logging"
	"telemetryrelay/internal/metrics"
)

// DefaultKeepaliveInterval is the producer idle time before a liveness probe is sent.
const DefaultKeepaliveInterval = 30 * time.Second

// ErrLivenessProbe wraps the transport error of a keepalive ping that could not be sent.
var ErrLivenessProbe = errors.New("liveness probe failed")

// Session is one connection's state machine.
// Run blocks until the connection ends or ctx is cancelled and returns the
// terminating error, nil for an orderly close.
type Session interface {
	Info() SessionInfo
	Run(ctx context.Context) error
}

// SessionInfo describes a running session for logs and the API.
type SessionInfo struct {
	ID        string
	Role      bus.Role
	Key       bus.StreamKey
	StartedAt time.Time
}

// Options holds the tunables and collaborators shared by all sessions.
type Options struct {
	KeepaliveInterval time.Duration
	Logger            *slog.Logger
	Metrics           *metrics.Metrics
}

// withDefaults fills unset options.
func (o Options) withDefaults() Options {
	if o.KeepaliveInterval <= 0 {
		o.KeepaliveInterval = DefaultKeepaliveInterval
	}
	o.Logger = logging.OrDiscard(o.Logger)
	return o
}

// newSessionInfo assigns a fresh id to a session for key.
func newSessionInfo(role bus.Role, key bus.StreamKey) SessionInfo {
	return SessionInfo{
		ID:        uuid.NewString(),
		Role:      role,
		Key:       key,
		StartedAt: time.Now(),
	}
}

// sessionLogger tags a logger with the session's identity.
func sessionLogger(base *slog.Logger, info SessionInfo) *slog.Logger {
	return base.With(
		slog.String("session_id", info.ID),
		slog.String("role", info.Role.String()),
		slog.String("kind", info.Key.Kind.String()),
		slog.String("producer", info.Key.ProducerID),
	)
}

// attach resolves key and registers a session of role on the resulting channel.
// If idle eviction retired the channel between lookup and attach, the key is resolved again.
func attach(registry bus.Registry, key bus.StreamKey, role bus.Role) (*bus.Channel, bool) {
	for {
		channel, created := registry.GetOrCreate(key)
		if channel.Attach(role) {
			return channel, created
		}
	}
}

// receiveEnded converts a closed frame stream into the session's result.
func receiveEnded(conn transport.Conn) error {
	if err := conn.Err(); err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	return nil
}
