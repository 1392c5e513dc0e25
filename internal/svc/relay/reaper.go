// If you are AI: This file implements optional idle channel eviction.
// Disabled unless an idle threshold is configured.

package relay

import (
	"context"
	"log/slog"
	"time"

	"telemetryrelay/internal/core/bus"
	"telemetryrelay/internal/logging"
)

// Reaper removes channels that have had no sessions for longer than idleFor.
type Reaper struct {
	registry bus.Registry
	idleFor  time.Duration
	interval time.Duration
	logger   *slog.Logger
}

// NewReaper creates a reaper. The sweep interval is half the idle threshold, at least one second.
func NewReaper(registry bus.Registry, idleFor time.Duration, logger *slog.Logger) *Reaper {
	interval := idleFor / 2
	if interval < time.Second {
		interval = time.Second
	}
	return &Reaper{
		registry: registry,
		idleFor:  idleFor,
		interval: interval,
		logger:   logging.OrDiscard(logger).With(slog.String("component", "reaper")),
	}
}

// Sweep evicts every idle channel once and returns how many were removed.
func (r *Reaper) Sweep() int {
	removed := 0
	for _, key := range r.registry.List() {
		if r.registry.RemoveIfIdle(key, r.idleFor) {
			removed++
			r.logger.Debug("evicted idle channel", slog.String("stream", key.String()))
		}
	}
	return removed
}

// Run sweeps on every interval tick until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("evicted idle channels", slog.Int("count", n))
			}
		}
	}
}
