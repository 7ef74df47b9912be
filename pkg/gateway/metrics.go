package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectedClients = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "realtime_connected_clients",
		Help: "Number of currently connected clients per application surface.",
	}, []string{"app_type"})

	emittedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_emitted_total",
		Help: "Total number of events emitted to rooms, per event name.",
	}, []string{"event"})

	handshakeRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_handshake_rejections_total",
		Help: "Total number of rejected handshakes, per reason.",
	}, []string{"reason"})

	slowConsumerDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "realtime_slow_consumer_disconnects_total",
		Help: "Total number of connections dropped because their send buffer was full.",
	})
)
