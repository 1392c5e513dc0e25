// If you are AI: This file adapts gorilla/websocket connections to the Conn contract.
// A read pump surfaces pings, pongs and close frames so sessions answer them explicitly.

package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultWriteTimeout bounds every write when Options leaves it unset.
const DefaultWriteTimeout = 10 * time.Second

// Options tunes a websocket connection.
type Options struct {
	WriteTimeout  time.Duration // Deadline applied to each write
	MaxFrameBytes int64         // Inbound frames larger than this fail the connection (0 = unlimited)
}

// WSConn is a Conn backed by a gorilla websocket.
// Lock expectations: Send is single-writer; Close is safe from any goroutine.
type WSConn struct {
	ws           *websocket.Conn
	frames       chan Frame
	done         chan struct{}
	writeTimeout time.Duration
	closeOnce    sync.Once

	mu  sync.Mutex
	err error
}

// NewWSConn wraps ws and starts its read pump.
// The default gorilla ping and close handlers are replaced: control frames are
// surfaced through Frames and answering them is the caller's job.
func NewWSConn(ws *websocket.Conn, opts Options) *WSConn {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.MaxFrameBytes > 0 {
		ws.SetReadLimit(opts.MaxFrameBytes)
	}

	c := &WSConn{
		ws:           ws,
		frames:       make(chan Frame),
		done:         make(chan struct{}),
		writeTimeout: opts.WriteTimeout,
	}

	ws.SetPingHandler(func(appData string) error {
		return c.push(Frame{Type: FramePing, Payload: []byte(appData)})
	})
	ws.SetPongHandler(func(appData string) error {
		return c.push(Frame{Type: FramePong, Payload: []byte(appData)})
	})
	ws.SetCloseHandler(func(code int, text string) error {
		_ = c.push(Frame{Type: FrameClose, Payload: websocket.FormatCloseMessage(code, text)})
		return nil
	})

	go c.readPump()
	return c
}

// Dial opens a client websocket connection to url.
func Dial(ctx context.Context, url string, opts Options) (*WSConn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewWSConn(ws, opts), nil
}

// readPump reads until the connection fails and forwards every frame.
func (c *WSConn) readPump() {
	defer close(c.frames)

	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			c.setErr(err)
			return
		}

		var frame Frame
		switch messageType {
		case websocket.TextMessage:
			frame = Frame{Type: FrameText, Payload: data}
		case websocket.BinaryMessage:
			frame = Frame{Type: FrameBinary, Payload: data}
		default:
			continue
		}

		if err := c.push(frame); err != nil {
			return
		}
	}
}

// push hands a frame to the reader, giving up once the connection is closed.
func (c *WSConn) push(f Frame) error {
	select {
	case c.frames <- f:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// setErr records the read error that ended the pump.
// Normal closures and reads failing after a local Close are recorded as nil.
func (c *WSConn) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
	}
	if IsClosure(err) {
		return
	}
	c.err = err
}

// Frames returns the inbound frame channel.
func (c *WSConn) Frames() <-chan Frame {
	return c.frames
}

// Err returns the error that stopped the read pump, or nil after a clean close.
func (c *WSConn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Send writes one frame with the configured write deadline.
func (c *WSConn) Send(f Frame) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	deadline := time.Now().Add(c.writeTimeout)
	switch f.Type {
	case FramePing:
		return c.ws.WriteControl(websocket.PingMessage, f.Payload, deadline)
	case FramePong:
		return c.ws.WriteControl(websocket.PongMessage, f.Payload, deadline)
	case FrameClose:
		payload := f.Payload
		if payload == nil {
			payload = websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		}
		return c.ws.WriteControl(websocket.CloseMessage, payload, deadline)
	case FrameText, FrameBinary:
		if err := c.ws.SetWriteDeadline(deadline); err != nil {
			return err
		}
		messageType := websocket.TextMessage
		if f.Type == FrameBinary {
			messageType = websocket.BinaryMessage
		}
		return c.ws.WriteMessage(messageType, f.Payload)
	default:
		return fmt.Errorf("transport: cannot send frame type %s", f.Type)
	}
}

// Close sends a best-effort close frame and releases the connection.
func (c *WSConn) Close() error {
	err := ErrClosed
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

// IsClosure reports whether err marks an orderly end of a connection rather than a failure.
func IsClosure(err error) bool {
	if err == nil || errors.Is(err, ErrClosed) || errors.Is(err, http.ErrServerClosed) {
		return true
	}
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}

// NewUpgrader returns the upgrader used for inbound connections.
func NewUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// Producers are native apps and consumers are arbitrary dashboards
			return true
		},
	}
}
