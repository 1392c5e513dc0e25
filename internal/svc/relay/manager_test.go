// If you are AI: This file contains unit tests for the session manager.

package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"telemetryrelay/internal/core/bus"
	"telemetryrelay/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// blockingSession runs until its context is cancelled.
type blockingSession struct {
	info    SessionInfo
	started chan struct{}
	release chan struct{} // when set, Run ignores ctx and waits for release
}

func newBlockingSession(role bus.Role) *blockingSession {
	return &blockingSession{
		info:    newSessionInfo(role, testKey),
		started: make(chan struct{}),
	}
}

func (s *blockingSession) Info() SessionInfo {
	return s.info
}

func (s *blockingSession) Run(ctx context.Context) error {
	close(s.started)
	if s.release != nil {
		<-s.release
		return nil
	}
	<-ctx.Done()
	return nil
}

func TestManagerTracksSessions(t *testing.T) {
	m := metrics.New()
	mgr := NewManager(nil, m)

	a := newBlockingSession(bus.RoleProducer)
	b := newBlockingSession(bus.RoleConsumer)
	results := make(chan error, 2)
	go func() { results <- mgr.Run(a) }()
	<-a.started
	go func() { results <- mgr.Run(b) }()
	<-b.started

	if mgr.SessionCount() != 2 {
		t.Fatalf("Expected 2 sessions, got %d", mgr.SessionCount())
	}
	infos := mgr.Sessions()
	if len(infos) != 2 || infos[0].ID != a.info.ID {
		t.Errorf("Expected sessions ordered by start time, got %+v", infos)
	}
	if got := testutil.ToFloat64(m.ActiveSessions.WithLabelValues("producer")); got != 1 {
		t.Errorf("Expected 1 active producer, got %v", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := mgr.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			t.Errorf("Session returned %v", err)
		}
	}
	if mgr.SessionCount() != 0 {
		t.Errorf("Expected no sessions after stop, got %d", mgr.SessionCount())
	}
	if got := testutil.ToFloat64(m.ActiveSessions.WithLabelValues("consumer")); got != 0 {
		t.Errorf("Expected 0 active consumers, got %v", got)
	}
}

func TestManagerRejectsAfterStop(t *testing.T) {
	mgr := NewManager(nil, nil)
	if err := mgr.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := mgr.Run(newBlockingSession(bus.RoleConsumer)); !errors.Is(err, ErrManagerStopped) {
		t.Errorf("Expected ErrManagerStopped, got %v", err)
	}
}

func TestManagerStopHonoursDeadline(t *testing.T) {
	mgr := NewManager(nil, nil)
	stuck := newBlockingSession(bus.RoleProducer)
	stuck.release = make(chan struct{})
	defer close(stuck.release)
	go mgr.Run(stuck)
	<-stuck.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := mgr.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}
