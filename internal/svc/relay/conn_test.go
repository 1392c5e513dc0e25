// If you are AI: This file provides an in-memory transport.Conn for session tests.

package relay

import (
	"sync"
	"testing"
	"time"

	"telemetryrelay/internal/core/transport"
)

// fakeConn is a scripted connection. Tests push inbound frames and read what the session sent.
type fakeConn struct {
	inbound chan transport.Frame
	sent    chan transport.Frame

	mu      sync.Mutex
	closed  bool
	err     error
	sendErr error
	ended   bool
	gate    chan struct{} // when set, Send waits for it to close
	held    chan struct{} // signalled when a Send starts waiting on gate
}

// newFakeConn creates a connection with room for a burst of frames in each direction.
func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan transport.Frame, 64),
		sent:    make(chan transport.Frame, 1024),
	}
}

func (c *fakeConn) Frames() <-chan transport.Frame {
	return c.inbound
}

func (c *fakeConn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *fakeConn) Send(f transport.Frame) error {
	c.mu.Lock()
	gate, held := c.gate, c.held
	c.mu.Unlock()
	if gate != nil {
		select {
		case held <- struct{}{}:
		default:
		}
		<-gate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return transport.ErrClosed
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent <- f
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return transport.ErrClosed
	}
	c.closed = true
	return nil
}

// push delivers one inbound frame to the session.
func (c *fakeConn) push(f transport.Frame) {
	c.inbound <- f
}

// hangUp ends the inbound stream, optionally with a transport error.
func (c *fakeConn) hangUp(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended {
		return
	}
	c.ended = true
	c.err = err
	close(c.inbound)
}

// failSends makes every later Send return err.
func (c *fakeConn) failSends(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

// holdSends makes later Sends wait until release is called.
// held receives a value each time a Send starts waiting.
func (c *fakeConn) holdSends() (held <-chan struct{}, release func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gate := make(chan struct{})
	c.gate = gate
	c.held = make(chan struct{}, 1)
	return c.held, func() { close(gate) }
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// expectSent waits for the next outbound frame.
func (c *fakeConn) expectSent(t *testing.T) transport.Frame {
	t.Helper()
	select {
	case f := <-c.sent:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for an outbound frame")
		return transport.Frame{}
	}
}

// expectText waits for a text frame carrying payload.
func (c *fakeConn) expectText(t *testing.T, payload string) {
	t.Helper()
	f := c.expectSent(t)
	if f.Type != transport.FrameText {
		t.Fatalf("Expected text frame, got %s", f.Type)
	}
	if string(f.Payload) != payload {
		t.Fatalf("Expected payload '%s', got '%s'", payload, f.Payload)
	}
}

// expectQuiet asserts nothing is sent for d.
func (c *fakeConn) expectQuiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case f := <-c.sent:
		t.Fatalf("Expected no outbound frame, got %s '%s'", f.Type, f.Payload)
	case <-time.After(d):
	}
}
