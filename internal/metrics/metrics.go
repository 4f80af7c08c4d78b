// Package metrics exposes the signaling server's Prometheus instruments.
// Every method is safe to call on a nil *Metrics, which records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "paraclete"

type Metrics struct {
	Connections prometheus.Gauge
	Rooms       prometheus.Gauge
	Commands    *prometheus.CounterVec
	Rejections  *prometheus.CounterVec
	Relayed     *prometheus.CounterVec
	Dropped     prometheus.Counter
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Signaling connections currently open.",
		}),
		Rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Rooms currently held in the registry.",
		}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Client messages processed, by message type.",
		}, []string{"type"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Requests answered with an error, by error code.",
		}, []string{"code"}),
		Relayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relayed_total",
			Help:      "Handshake payloads delivered to a peer, by kind.",
		}, []string{"kind"}),
		Dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_total",
			Help:      "Outbound messages dropped because a connection's buffer was full.",
		}),
	}

	reg.MustRegister(m.Connections, m.Rooms, m.Commands, m.Rejections, m.Relayed, m.Dropped)
	return m
}

func (m *Metrics) SetConnections(n int) {
	if m == nil {
		return
	}
	m.Connections.Set(float64(n))
}

func (m *Metrics) SetRooms(n int) {
	if m == nil {
		return
	}
	m.Rooms.Set(float64(n))
}

func (m *Metrics) Command(msgType string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(msgType).Inc()
}

func (m *Metrics) Rejected(code string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(code).Inc()
}

func (m *Metrics) Relay(kind string) {
	if m == nil {
		return
	}
	m.Relayed.WithLabelValues(kind).Inc()
}

func (m *Metrics) Drop() {
	if m == nil {
		return
	}
	m.Dropped.Inc()
}
