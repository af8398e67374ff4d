// Package metrics exposes the server's Prometheus collectors. The
// registry is private so a server can run more than one Collector in
// tests without clashing with prometheus.DefaultRegisterer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is the arena's Metrics implementation. The zero value is
// not usable; construct with New.
type Collector struct {
	registry *prometheus.Registry

	clientsConnected prometheus.Gauge
	clientsByState   *prometheus.GaugeVec
	roomsByState     *prometheus.GaugeVec

	matchesStarted     prometheus.Counter
	matchesFinished    prometheus.Counter
	roundsResolved     *prometheus.CounterVec
	reconnects         prometheus.Counter
	reconnectsRejected prometheus.Counter
	hardDisconnects    prometheus.Counter
}

// New creates a Collector with its own registry and registers every
// game-server collector.
func New() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		clientsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rps_clients_connected",
			Help: "Number of currently registered clients.",
		}),
		clientsByState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rps_clients_by_state",
			Help: "Number of clients in each lifecycle state.",
		}, []string{"state"}),
		roomsByState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rps_rooms_by_state",
			Help: "Number of rooms in each lifecycle state.",
		}, []string{"state"}),
		matchesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rps_matches_started_total",
			Help: "Total matches started.",
		}),
		matchesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rps_matches_finished_total",
			Help: "Total matches finished.",
		}),
		roundsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rps_rounds_resolved_total",
			Help: "Total rounds resolved, by outcome.",
		}, []string{"outcome"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rps_reconnects_total",
			Help: "Total accepted RECONNECT adoptions.",
		}),
		reconnectsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rps_reconnects_rejected_total",
			Help: "Total refused RECONNECT attempts.",
		}),
		hardDisconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rps_hard_disconnects_total",
			Help: "Total hard-disconnect cleanups performed.",
		}),
	}

	reg.MustRegister(
		c.clientsConnected,
		c.clientsByState,
		c.roomsByState,
		c.matchesStarted,
		c.matchesFinished,
		c.roundsResolved,
		c.reconnects,
		c.reconnectsRejected,
		c.hardDisconnects,
	)

	return c
}

// Handler serves the collected metrics in the Prometheus exposition
// format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) MatchStarted()  { c.matchesStarted.Inc() }
func (c *Collector) MatchFinished() { c.matchesFinished.Inc() }

func (c *Collector) RoundResolved(outcome string) {
	c.roundsResolved.WithLabelValues(outcome).Inc()
}

func (c *Collector) ReconnectAccepted() { c.reconnects.Inc() }
func (c *Collector) ReconnectRejected() { c.reconnectsRejected.Inc() }
func (c *Collector) HardDisconnect()    { c.hardDisconnects.Inc() }

// Observe refreshes the point-in-time gauges. Called once per
// supervisor tick.
func (c *Collector) Observe(totalClients int, clientsByState map[string]int, roomsByState map[string]int) {
	c.clientsConnected.Set(float64(totalClients))
	for _, state := range []string{"CONNECTED", "AUTH", "IN_LOBBY", "READY", "PLAYING"} {
		c.clientsByState.WithLabelValues(state).Set(float64(clientsByState[state]))
	}
	for _, state := range []string{"OPEN", "FULL", "PLAYING", "PAUSED"} {
		c.roomsByState.WithLabelValues(state).Set(float64(roomsByState[state]))
	}
}
