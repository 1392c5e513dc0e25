// If you are AI: This file implements the websocket handlers for ingest and subscribe routes.
// Handles GET /ingest/{kind}/{producer} and GET /subscribe/{kind}/{producer}.

package relay

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"telemetryrelay/internal/core/bus"
	"telemetryrelay/internal/core/transport"
)

const (
	ingestPrefix    = "/ingest/"
	subscribePrefix = "/subscribe/"
)

// HandlerOptions configures the websocket handlers.
type HandlerOptions struct {
	Session   Options
	Transport transport.Options
}

// Handler upgrades relay requests and runs a session per connection.
type Handler struct {
	registry  bus.Registry
	manager   *Manager
	upgrader  websocket.Upgrader
	session   Options
	transport transport.Options
	logger    *slog.Logger
}

// NewHandler creates the relay websocket handler.
func NewHandler(registry bus.Registry, manager *Manager, opts HandlerOptions) *Handler {
	session := opts.Session.withDefaults()
	return &Handler{
		registry:  registry,
		manager:   manager,
		upgrader:  transport.NewUpgrader(),
		session:   session,
		transport: opts.Transport,
		logger:    session.Logger.With(slog.String("component", "relay")),
	}
}

// ServeIngest handles producer connections.
// Endpoint: GET /ingest/{kind}/{producer}
func (h *Handler) ServeIngest(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, ingestPrefix, func(conn transport.Conn, key bus.StreamKey) Session {
		return NewIngestSession(conn, h.registry, key, h.session)
	})
}

// ServeSubscribe handles consumer connections.
// Endpoint: GET /subscribe/{kind}/{producer}
func (h *Handler) ServeSubscribe(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, subscribePrefix, func(conn transport.Conn, key bus.StreamKey) Session {
		return NewSubscribeSession(conn, h.registry, key, h.session)
	})
}

// serve validates the request, upgrades it and runs the session until it ends.
// Validation failures are answered before the upgrade.
func (h *Handler) serve(w http.ResponseWriter, r *http.Request, prefix string, newSession func(transport.Conn, bus.StreamKey) Session) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key, err := parseStreamPath(r.URL.EscapedPath(), prefix)
	if err != nil {
		http.Error(w, requestError(err), http.StatusBadRequest)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade failed, response already sent
		h.logger.Debug("upgrade failed", slog.String("stream", key.String()), slog.Any("error", err))
		return
	}

	conn := transport.NewWSConn(ws, h.transport)
	defer conn.Close()

	session := newSession(conn, key)
	if err := h.manager.Run(session); err != nil {
		info := session.Info()
		h.logger.Info("session ended",
			slog.String("session_id", info.ID),
			slog.String("role", info.Role.String()),
			slog.String("stream", key.String()),
			slog.Any("error", err),
		)
	}
}

// errMalformedPath reports a path that is not {prefix}{kind}/{producer}.
var errMalformedPath = errors.New("malformed stream path")

// parseStreamPath extracts the stream key from the escaped path {prefix}{kind}/{producer}.
// The producer segment may not contain further unescaped slashes; "%2F" is allowed.
func parseStreamPath(escapedPath, prefix string) (bus.StreamKey, error) {
	rest, ok := strings.CutPrefix(escapedPath, prefix)
	if !ok {
		return bus.StreamKey{}, errMalformedPath
	}

	rawKind, rawProducer, ok := strings.Cut(rest, "/")
	if !ok || strings.Contains(rawProducer, "/") {
		return bus.StreamKey{}, errMalformedPath
	}

	kind, err := url.PathUnescape(rawKind)
	if err != nil {
		return bus.StreamKey{}, errMalformedPath
	}
	producer, err := url.PathUnescape(rawProducer)
	if err != nil {
		return bus.StreamKey{}, errMalformedPath
	}
	return bus.ParseStreamKey(kind, producer)
}

// requestError maps a path error to the response body.
func requestError(err error) string {
	switch {
	case errors.Is(err, bus.ErrUnknownStreamKind):
		return "unknown stream kind"
	case errors.Is(err, bus.ErrEmptyProducer):
		return "missing producer id"
	default:
		return "malformed stream path"
	}
}

// RegisterRoutes registers the relay routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(ingestPrefix, h.ServeIngest)
	mux.HandleFunc(subscribePrefix, h.ServeSubscribe)
}
