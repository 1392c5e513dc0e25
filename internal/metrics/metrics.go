// If you are AI: This file defines the Prometheus metrics exported by the relay.
// Every recording method is nil-safe so components can run without metrics in tests.

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "telemetryrelay"

// Metrics contains all Prometheus metrics for the relay.
type Metrics struct {
	registry *prometheus.Registry

	// Ingest metrics
	FramesReceived    *prometheus.CounterVec
	FramesDropped     *prometheus.CounterVec
	MessagesPublished *prometheus.CounterVec
	KeepaliveProbes   *prometheus.CounterVec

	// Delivery metrics
	MessagesDelivered *prometheus.CounterVec
	LagDropped        *prometheus.CounterVec

	// Session metrics
	ActiveSessions  *prometheus.GaugeVec
	SessionDuration *prometheus.HistogramVec
}

// New creates and registers all relay metrics on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		FramesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Frames received from producers, by stream kind and frame type",
		}, []string{"kind", "type"}),
		FramesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Producer frames discarded before publish, by reason",
		}, []string{"kind", "reason"}),
		MessagesPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_published_total",
			Help:      "Messages published into channels",
		}, []string{"kind"}),
		KeepaliveProbes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keepalive_probes_total",
			Help:      "Liveness pings sent to idle producers",
		}, []string{"kind"}),

		MessagesDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_delivered_total",
			Help:      "Messages written to consumers, including warm starts",
		}, []string{"kind"}),
		LagDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriber_lag_dropped_total",
			Help:      "Messages dropped because a consumer fell behind",
		}, []string{"kind"}),

		ActiveSessions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Currently running sessions by role",
		}, []string{"role"}),
		SessionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Lifetime of finished sessions",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8), // 1s to ~4.5h
		}, []string{"role"}),
	}
}

// RegisterChannelGauge exposes the registry size, sampled at scrape time.
func (m *Metrics) RegisterChannelGauge(count func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "channels",
		Help:      "Channels currently held by the registry",
	}, func() float64 {
		return float64(count())
	}))
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// FrameReceived counts one inbound producer frame.
func (m *Metrics) FrameReceived(kind, frameType string) {
	if m == nil {
		return
	}
	m.FramesReceived.WithLabelValues(kind, frameType).Inc()
}

// FrameDropped counts one producer frame discarded for reason.
func (m *Metrics) FrameDropped(kind, reason string) {
	if m == nil {
		return
	}
	m.FramesDropped.WithLabelValues(kind, reason).Inc()
}

// Published counts one message published into a channel.
func (m *Metrics) Published(kind string) {
	if m == nil {
		return
	}
	m.MessagesPublished.WithLabelValues(kind).Inc()
}

// Probed counts one keepalive ping.
func (m *Metrics) Probed(kind string) {
	if m == nil {
		return
	}
	m.KeepaliveProbes.WithLabelValues(kind).Inc()
}

// Delivered counts one message written to a consumer.
func (m *Metrics) Delivered(kind string) {
	if m == nil {
		return
	}
	m.MessagesDelivered.WithLabelValues(kind).Inc()
}

// Lagged counts messages a consumer missed.
func (m *Metrics) Lagged(kind string, n uint64) {
	if m == nil || n == 0 {
		return
	}
	m.LagDropped.WithLabelValues(kind).Add(float64(n))
}

// SessionStarted increments the active gauge for role.
func (m *Metrics) SessionStarted(role string) {
	if m == nil {
		return
	}
	m.ActiveSessions.WithLabelValues(role).Inc()
}

// SessionEnded decrements the active gauge and records the session lifetime.
func (m *Metrics) SessionEnded(role string, lifetime time.Duration) {
	if m == nil {
		return
	}
	m.ActiveSessions.WithLabelValues(role).Dec()
	m.SessionDuration.WithLabelValues(role).Observe(lifetime.Seconds())
}
