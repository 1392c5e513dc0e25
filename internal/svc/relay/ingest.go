// If you are AI: This file implements the ingest session that publishes producer frames.
// The session multiplexes inbound frames, an inactivity timer and shutdown in one select loop.

package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"telemetryrelay/internal/core/bus"
	"telemetryrelay/internal/core/transport"
	"telemetryrelay/internal/metrics"
)

// IngestSession reads frames from one producer connection and publishes them.
// States: Connected -> Active -> Closed. The channel outlives the session.
type IngestSession struct {
	info      SessionInfo
	conn      transport.Conn
	registry  bus.Registry
	keepalive time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewIngestSession creates an ingest session for key over conn.
func NewIngestSession(conn transport.Conn, registry bus.Registry, key bus.StreamKey, opts Options) *IngestSession {
	opts = opts.withDefaults()
	info := newSessionInfo(bus.RoleProducer, key)
	return &IngestSession{
		info:      info,
		conn:      conn,
		registry:  registry,
		keepalive: opts.KeepaliveInterval,
		logger:    sessionLogger(opts.Logger, info),
		metrics:   opts.Metrics,
	}
}

// Info returns the session description.
func (s *IngestSession) Info() SessionInfo {
	return s.info
}

// Run attaches to the stream's channel and processes frames until the connection ends.
// A ping is sent after every keepalive interval without inbound frames; failing to
// send it ends the session with ErrLivenessProbe.
func (s *IngestSession) Run(ctx context.Context) error {
	channel, created := attach(s.registry, s.info.Key, bus.RoleProducer)
	defer channel.Detach(bus.RoleProducer)
	defer s.conn.Close()

	s.logger.Info("ingest connected", slog.Bool("channel_created", created))

	kind := s.info.Key.Kind.String()
	inactivity := time.NewTimer(s.keepalive)
	defer inactivity.Stop()

	frames := s.conn.Frames()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("ingest stopped by shutdown")
			return nil

		case frame, ok := <-frames:
			if !ok {
				return receiveEnded(s.conn)
			}
			inactivity.Reset(s.keepalive)

			done, err := s.handleFrame(channel, kind, frame)
			if err != nil || done {
				return err
			}

		case <-inactivity.C:
			s.metrics.Probed(kind)
			if err := s.conn.Send(transport.Ping(nil)); err != nil {
				return fmt.Errorf("%w: %w", ErrLivenessProbe, err)
			}
			inactivity.Reset(s.keepalive)
		}
	}
}

// handleFrame applies one inbound frame. It reports done when the peer closed.
func (s *IngestSession) handleFrame(channel *bus.Channel, kind string, frame transport.Frame) (bool, error) {
	switch frame.Type {
	case transport.FrameText:
		s.metrics.FrameReceived(kind, "text")
		s.publish(channel, kind, frame.Payload)

	case transport.FrameBinary:
		s.metrics.FrameReceived(kind, "binary")
		// Binary frames are only an alternate encoding of text payloads
		if !utf8.Valid(frame.Payload) {
			s.metrics.FrameDropped(kind, "invalid_utf8")
			s.logger.Debug("dropped binary frame with invalid utf-8", slog.Int("bytes", len(frame.Payload)))
			return false, nil
		}
		s.publish(channel, kind, frame.Payload)

	case transport.FramePing:
		if err := s.conn.Send(transport.Pong(frame.Payload)); err != nil {
			return true, fmt.Errorf("send pong: %w", err)
		}

	case transport.FramePong:
		s.logger.Debug("keepalive acknowledged")

	case transport.FrameClose:
		s.logger.Info("ingest closed")
		return true, nil
	}
	return false, nil
}

// publish hands a decoded payload to the channel.
func (s *IngestSession) publish(channel *bus.Channel, kind string, payload []byte) {
	msg := channel.Publish(string(payload))
	s.metrics.Published(kind)
	s.logger.Debug("ingest frame", slog.Int("payload_len", len(payload)), slog.Uint64("seq", msg.Seq))
}
