// If you are AI: This file defines the frame model and connection contract shared by all sessions.
// Sessions see data and control frames uniformly so that every event can be selected on.

package transport

import (
	"errors"
)

// ErrClosed is returned when operating on a connection that has been closed locally.
var ErrClosed = errors.New("transport: connection closed")

// FrameType identifies the kind of a websocket-style message.
type FrameType uint8

const (
	// FrameText carries a UTF-8 payload.
	FrameText FrameType = iota + 1
	// FrameBinary carries arbitrary bytes.
	FrameBinary
	// FramePing is a liveness probe; the payload is an opaque token.
	FramePing
	// FramePong answers a ping and echoes its token.
	FramePong
	// FrameClose signals the peer is closing the connection.
	FrameClose
)

// String returns a human-readable frame type.
func (t FrameType) String() string {
	switch t {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FramePing:
		return "ping"
	case FramePong:
		return "pong"
	case FrameClose:
		return "close"
	default:
		return "unknown"
	}
}

// Frame is one inbound or outbound message.
type Frame struct {
	Type    FrameType
	Payload []byte
}

// Text builds a text frame.
func Text(s string) Frame {
	return Frame{Type: FrameText, Payload: []byte(s)}
}

// Ping builds a ping frame carrying token.
func Ping(token []byte) Frame {
	return Frame{Type: FramePing, Payload: token}
}

// Pong builds a pong frame echoing token.
func Pong(token []byte) Frame {
	return Frame{Type: FramePong, Payload: token}
}

// Conn is a message-framed, full-duplex client connection.
// Frames delivers inbound frames, data and control alike, in arrival order. The
// channel is closed once the connection stops reading; Err then reports why
// (nil after a clean close). Send must not be called concurrently with itself.
type Conn interface {
	Frames() <-chan Frame
	Err() error
	Send(f Frame) error
	Close() error
}
