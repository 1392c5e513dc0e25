// If you are AI: This file implements the relay client used by the publish and tail commands.
// Both directions answer relay pings so long-lived client sessions stay healthy.

package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"telemetryrelay/internal/core/bus"
	"telemetryrelay/internal/core/transport"
)

// Route selects the relay endpoint.
type Route string

const (
	RouteIngest    Route = "ingest"
	RouteSubscribe Route = "subscribe"
)

// DefaultMaxLineBytes is the longest publishable line when transport options set no frame limit.
// It matches the relay's default max_frame_bytes.
const DefaultMaxLineBytes = 1 << 20

// maxLineBytes returns the longest line Publish accepts for opts.
func maxLineBytes(opts transport.Options) int {
	if opts.MaxFrameBytes > 0 {
		return int(opts.MaxFrameBytes)
	}
	return DefaultMaxLineBytes
}

// StreamURL builds the websocket URL of a stream on the relay at base.
// base may use http(s) or ws(s); http schemes are mapped to their websocket equivalents.
func StreamURL(base string, route Route, kind, producer string) (string, error) {
	key, err := bus.ParseStreamKey(kind, producer)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse relay url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported relay url scheme %q", u.Scheme)
	}

	// The producer id is one path segment even when it contains '/'
	stream := "/" + string(route) + "/" + key.Kind.String() + "/"
	rawBase := strings.TrimSuffix(u.EscapedPath(), "/")
	u.Path = strings.TrimSuffix(u.Path, "/") + stream + key.ProducerID
	u.RawPath = rawBase + stream + url.PathEscape(key.ProducerID)
	return u.String(), nil
}

// Publish sends every line read from r as a text frame to the ingest stream at streamURL.
// limiter paces the frames; nil sends as fast as the connection allows.
// Returns the number of frames sent. Reaching the end of r closes the connection cleanly.
func Publish(ctx context.Context, streamURL string, r io.Reader, limiter *rate.Limiter, opts transport.Options) (int, error) {
	conn, err := transport.Dial(ctx, streamURL, opts)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes(opts))
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	sent := 0
	frames := conn.Frames()
	for {
		select {
		case <-ctx.Done():
			return sent, ctx.Err()

		case frame, ok := <-frames:
			if !ok {
				if err := conn.Err(); err != nil {
					return sent, fmt.Errorf("receive: %w", err)
				}
				return sent, fmt.Errorf("relay closed the connection")
			}
			if frame.Type == transport.FramePing {
				if err := conn.Send(transport.Pong(frame.Payload)); err != nil {
					return sent, fmt.Errorf("send pong: %w", err)
				}
			}

		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return sent, fmt.Errorf("read input: %w", err)
					}
				default:
				}
				return sent, nil
			}
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return sent, err
				}
			}
			if err := conn.Send(transport.Text(line)); err != nil {
				return sent, fmt.Errorf("send: %w", err)
			}
			sent++
		}
	}
}

// Tail writes every payload received from the subscribe stream at streamURL to w, one per line.
// Returns nil when the relay closes the stream or ctx is cancelled.
func Tail(ctx context.Context, streamURL string, w io.Writer, opts transport.Options) error {
	conn, err := transport.Dial(ctx, streamURL, opts)
	if err != nil {
		return err
	}
	defer conn.Close()

	frames := conn.Frames()
	for {
		select {
		case <-ctx.Done():
			return nil

		case frame, ok := <-frames:
			if !ok {
				if err := conn.Err(); err != nil {
					return fmt.Errorf("receive: %w", err)
				}
				return nil
			}
			switch frame.Type {
			case transport.FrameText, transport.FrameBinary:
				if _, err := fmt.Fprintf(w, "%s\n", frame.Payload); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
			case transport.FramePing:
				if err := conn.Send(transport.Pong(frame.Payload)); err != nil {
					return fmt.Errorf("send pong: %w", err)
				}
			case transport.FrameClose:
				return nil
			}
		}
	}
}
