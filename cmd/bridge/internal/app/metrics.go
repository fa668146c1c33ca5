package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values for the origin and destination of frames.
const (
	peerClient  = "client"
	peerAdapter = "adapter"
)

type metrics struct {
	registry *prometheus.Registry

	framesReceived   *prometheus.CounterVec
	framesSent       *prometheus.CounterVec
	framesRejected   *prometheus.CounterVec
	bytesDiscarded   prometheus.Counter
	clients          prometheus.Gauge
	adapterReconnect prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		framesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cbus",
				Subsystem: "bridge",
				Name:      "frames_received_total",
				Help:      "CBUS frames decoded, by origin.",
			},
			[]string{"origin"},
		),
		framesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cbus",
				Subsystem: "bridge",
				Name:      "frames_sent_total",
				Help:      "CBUS frames written, by destination.",
			},
			[]string{"destination"},
		),
		framesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cbus",
				Subsystem: "bridge",
				Name:      "frames_rejected_total",
				Help:      "Well-shaped frames whose contents failed to decode, by origin.",
			},
			[]string{"origin"},
		),
		bytesDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cbus",
			Subsystem: "bridge",
			Name:      "pending_bytes_discarded_total",
			Help:      "Unframed client bytes dropped when the pending buffer overflowed.",
		}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cbus",
			Subsystem: "bridge",
			Name:      "clients",
			Help:      "Connected clients.",
		}),
		adapterReconnect: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cbus",
			Subsystem: "adapter",
			Name:      "reconnects_total",
			Help:      "Failed adapter sessions followed by a reconnect.",
		}),
	}
	m.registry.MustRegister(
		m.framesReceived,
		m.framesSent,
		m.framesRejected,
		m.bytesDiscarded,
		m.clients,
		m.adapterReconnect,
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
