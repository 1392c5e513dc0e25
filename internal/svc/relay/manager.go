// If you are AI: This file implements the session manager.
// Tracks every running session, derives its context and cancels all of them on shutdown.

package relay

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"telemetryrelay/internal/logging"
	"telemetryrelay/internal/metrics"
)

// ErrManagerStopped is returned by Run once Stop has been called.
var ErrManagerStopped = errors.New("session manager stopped")

// Manager runs sessions and stops them together.
type Manager struct {
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	sessions map[string]Session
	stopped  bool
	wg       sync.WaitGroup
}

// NewManager creates a session manager. logger and m may be nil.
func NewManager(logger *slog.Logger, m *metrics.Metrics) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		ctx:      ctx,
		cancel:   cancel,
		logger:   logging.OrDiscard(logger).With(slog.String("component", "sessions")),
		metrics:  m,
		sessions: make(map[string]Session),
	}
}

// Run executes s on the calling goroutine and returns its terminating error.
// The session's context is cancelled when Stop is called.
// Lock expectations: takes mu only to register and unregister s.
func (m *Manager) Run(s Session) error {
	info := s.Info()

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return ErrManagerStopped
	}
	m.sessions[info.ID] = s
	m.wg.Add(1)
	m.mu.Unlock()

	role := info.Role.String()
	m.metrics.SessionStarted(role)

	defer func() {
		m.mu.Lock()
		delete(m.sessions, info.ID)
		m.mu.Unlock()
		m.metrics.SessionEnded(role, time.Since(info.StartedAt))
		m.wg.Done()
	}()

	return s.Run(m.ctx)
}

// Sessions returns a snapshot of running sessions ordered by start time.
// Allocation: one slice per call.
func (m *Manager) Sessions() []SessionInfo {
	m.mu.Lock()
	infos := make([]SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, s.Info())
	}
	m.mu.Unlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].StartedAt.Before(infos[j].StartedAt)
	})
	return infos
}

// SessionCount returns the number of running sessions.
func (m *Manager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Stop cancels every session and waits for them to return or for ctx to expire.
// Later calls to Run fail with ErrManagerStopped.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	m.stopped = true
	remaining := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("stopping sessions", slog.Int("count", remaining))
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
