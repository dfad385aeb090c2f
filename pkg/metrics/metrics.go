package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsActive counts open websocket connections.
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collab_connections_active",
		Help: "Open websocket connections.",
	})

	// RoomsActive counts live rooms (rooms with at least one participant).
	RoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collab_rooms_active",
		Help: "Rooms with at least one participant.",
	})

	// EventsTotal counts dispatched protocol events by name. Only known
	// event names are recorded, so label cardinality stays bounded.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collab_events_total",
		Help: "Protocol events dispatched, by event name.",
	}, []string{"event"})
)

// Handler exposes Prometheus metrics at /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
