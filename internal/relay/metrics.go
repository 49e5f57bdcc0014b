package relay

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/1ureka/castlink/internal/negotiation"
	"github.com/1ureka/castlink/internal/protocol"
	"github.com/1ureka/castlink/internal/util"
)

type metrics struct {
	registry  *prometheus.Registry
	sessions  prometheus.Counter
	envelopes *prometheus.CounterVec
	errors    *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "castlink",
			Subsystem: "relay",
			Name:      "sessions_total",
			Help:      "Signaling sessions opened.",
		}),
		envelopes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "castlink",
			Subsystem: "relay",
			Name:      "envelopes_total",
			Help:      "Signaling envelopes received, by type.",
		}, []string{"type"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "castlink",
			Subsystem: "relay",
			Name:      "negotiation_errors_total",
			Help:      "Discarded signaling messages, by error class.",
		}, []string{"class"}),
	}
	m.registry.MustRegister(m.sessions, m.envelopes, m.errors)
	m.registry.MustRegister(trafficCounters()...)
	return m
}

// trafficCounters exposes the process-wide RTP counters kept in util.Stats.
func trafficCounters() []prometheus.Collector {
	counter := func(name, help string, v *atomic.Int64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "castlink",
			Subsystem: "relay",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(v.Load()) })
	}
	return []prometheus.Collector{
		counter("rtp_packets_received_total", "RTP packets read from streamer tracks.", &util.Stats.PacketsRecv),
		counter("rtp_bytes_received_total", "RTP payload bytes read from streamer tracks.", &util.Stats.BytesRecv),
		counter("rtp_packets_forwarded_total", "RTP packets forwarded to the viewer.", &util.Stats.PacketsSent),
		counter("rtp_bytes_forwarded_total", "RTP payload bytes forwarded to the viewer.", &util.Stats.BytesSent),
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// observe is installed as the router's Observe hook.
func (m *metrics) observe(kind protocol.Kind, err error) {
	label := string(kind)
	if !kind.Known() {
		label = "unknown"
	}
	m.envelopes.WithLabelValues(label).Inc()

	if err != nil {
		m.errors.WithLabelValues(errorClass(err)).Inc()
	}
}

// decodeFailed counts envelopes that never reached the router's dispatch.
func (m *metrics) decodeFailed() {
	m.errors.WithLabelValues(errorClass(protocol.ErrDecode)).Inc()
}

func errorClass(err error) string {
	switch {
	case errors.Is(err, protocol.ErrDecode):
		return "decode"
	case errors.Is(err, negotiation.ErrUnexpectedMessage):
		return "unexpected_message"
	case errors.Is(err, negotiation.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrRoleTaken):
		return "role_taken"
	}
	return "media"
}
