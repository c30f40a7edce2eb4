// Package metrics exposes tunnel counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Directions and drop reasons used as label values.
const (
	DirectionOutbound = "outbound" // device -> peer
	DirectionInbound  = "inbound"  // peer -> device

	ReasonNotConnected = "not_connected"
	ReasonOversize     = "oversize"
	ReasonWriteError   = "write_error"
)

var (
	// Packets counts packets forwarded by direction.
	Packets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thingify_tunnel_packets_total",
		Help: "Packets forwarded through the tunnel",
	}, []string{"direction"})

	// Bytes counts payload bytes forwarded by direction.
	Bytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thingify_tunnel_bytes_total",
		Help: "Bytes forwarded through the tunnel",
	}, []string{"direction"})

	// Drops counts packets that were not forwarded.
	Drops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thingify_tunnel_dropped_packets_total",
		Help: "Packets dropped by direction and reason",
	}, []string{"direction", "reason"})

	// PeerState is 0 disconnected, 1 connecting, 2 connected.
	PeerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "thingify_peer_connection_state",
		Help: "Peer connection state (0 disconnected, 1 connecting, 2 connected)",
	})
)

// ObserveForwarded records one forwarded packet of n bytes.
func ObserveForwarded(direction string, n int) {
	Packets.WithLabelValues(direction).Inc()
	Bytes.WithLabelValues(direction).Add(float64(n))
}

// ObserveDrop records one dropped packet.
func ObserveDrop(direction, reason string) {
	Drops.WithLabelValues(direction, reason).Inc()
}

// SetPeerState records the current connection state.
func SetPeerState(state int) {
	PeerState.Set(float64(state))
}

// Handler serves /metrics and /healthz.
func Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}
