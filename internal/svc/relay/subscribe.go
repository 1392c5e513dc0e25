// If you are AI: This file implements the subscribe session that forwards channel messages to a consumer.
// The warm-start value is sent first; live messages already covered by it are skipped.

package relay

import (
	"context"
	"fmt"
	"log/slog"

	"telemetryrelay/internal/core/bus"
	"telemetryrelay/internal/core/transport"
	"telemetryrelay/internal/metrics"
)

// SubscribeSession delivers a channel's values to one consumer connection.
// States: Connected -> WarmStarted -> Active -> Closed.
type SubscribeSession struct {
	info     SessionInfo
	conn     transport.Conn
	registry bus.Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewSubscribeSession creates a subscribe session for key over conn.
func NewSubscribeSession(conn transport.Conn, registry bus.Registry, key bus.StreamKey, opts Options) *SubscribeSession {
	opts = opts.withDefaults()
	info := newSessionInfo(bus.RoleConsumer, key)
	return &SubscribeSession{
		info:     info,
		conn:     conn,
		registry: registry,
		logger:   sessionLogger(opts.Logger, info),
		metrics:  opts.Metrics,
	}
}

// Info returns the session description.
func (s *SubscribeSession) Info() SessionInfo {
	return s.info
}

// Run subscribes, emits the warm-start snapshot if one exists, then forwards
// every later publish until the consumer disconnects or a write fails.
// The subscription is registered before the snapshot is read so that a
// concurrent publish is seen by at least one of the two.
func (s *SubscribeSession) Run(ctx context.Context) error {
	channel, _ := attach(s.registry, s.info.Key, bus.RoleConsumer)
	defer channel.Detach(bus.RoleConsumer)

	sub := channel.Subscribe()
	defer sub.Close()
	defer s.conn.Close()

	s.logger.Info("subscriber connected")

	kind := s.info.Key.Kind.String()

	// Highest sequence number already written to the consumer
	var delivered uint64
	if snapshot, ok := channel.Snapshot(); ok {
		if err := s.conn.Send(transport.Text(snapshot.Payload)); err != nil {
			return fmt.Errorf("send warm start: %w", err)
		}
		delivered = snapshot.Seq
		s.metrics.Delivered(kind)
	}

	frames := s.conn.Frames()
	wake := sub.Ready()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("subscriber stopped by shutdown")
			return nil

		case frame, ok := <-frames:
			if !ok {
				return receiveEnded(s.conn)
			}
			switch frame.Type {
			case transport.FramePing:
				if err := s.conn.Send(transport.Pong(frame.Payload)); err != nil {
					return fmt.Errorf("send pong: %w", err)
				}
			case transport.FrameClose:
				s.logger.Info("subscriber closed")
				return nil
			}

		case <-wake:
			if missed := sub.Lagged(); missed > 0 {
				s.metrics.Lagged(kind, missed)
				s.logger.Warn("subscriber lagged", slog.Uint64("missed", missed))
			}

			// One batch per wakeup: only what was queued when the wakeup was handled
			for batch := sub.Pending(); batch > 0; batch-- {
				msg, ok := sub.Next()
				if !ok {
					break
				}
				if msg.Seq <= delivered {
					continue
				}
				if err := s.conn.Send(transport.Text(msg.Payload)); err != nil {
					return fmt.Errorf("send: %w", err)
				}
				delivered = msg.Seq
				s.metrics.Delivered(kind)
			}

			wake = sub.Ready()
			if sub.Pending() > 0 {
				wake = alwaysReady
			}
		}
	}
}

// alwaysReady is a closed channel used to come back for queued messages
// after the other select branches had a turn.
var alwaysReady = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()
