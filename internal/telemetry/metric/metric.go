// Package metric provides Prometheus metrics for MistKV.
//
// It exposes connection, command, and store metrics for monitoring a
// running server. All metrics live under the "mistkv" namespace.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mistkv"

// Registry holds all application metrics.
type Registry struct {
	// Connection metrics
	ConnectionsActive prometheus.Gauge
	ConnectionsTotal  prometheus.Counter

	// Command metrics, labeled by verb (ping, echo, get, set).
	CommandsTotal *prometheus.CounterVec

	// Requests abandoned without a reply, labeled by failure kind
	// (protocol, argument, conversion).
	RequestsDropped *prometheus.CounterVec

	// Sweeper metrics
	SweepPasses prometheus.Counter
	KeysExpired prometheus.Counter

	reg *prometheus.Registry
}

// New creates a registry with all MistKV metrics registered, alongside
// the standard Go runtime and process collectors.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of currently open client connections.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted client connections.",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of executed commands by verb.",
		}, []string{"verb"}),
		RequestsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_dropped_total",
			Help:      "Requests abandoned without a reply, by failure kind.",
		}, []string{"kind"}),
		SweepPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_passes_total",
			Help:      "Total number of completed expiry sweep passes.",
		}),
		KeysExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keys_expired_total",
			Help:      "Total number of keys removed by the sweeper.",
		}),
		reg: reg,
	}

	reg.MustRegister(
		r.ConnectionsActive,
		r.ConnectionsTotal,
		r.CommandsTotal,
		r.RequestsDropped,
		r.SweepPasses,
		r.KeysExpired,
	)

	return r
}

// Register adds an additional collector (e.g. the store size collector).
func (r *Registry) Register(c prometheus.Collector) error {
	return r.reg.Register(c)
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
