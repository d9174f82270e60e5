package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks monitor health counters on a private registry so tests
// can create independent instances.
type Metrics struct {
	registry *prometheus.Registry

	EventsReceived prometheus.Counter
	ParseErrors    prometheus.Counter
	CommandsSent   prometheus.Counter
	CommandErrors  prometheus.Counter
	Rebinds        prometheus.Counter
	NodesSeen      prometheus.Gauge
}

func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	return &Metrics{
		registry: r,
		EventsReceived: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "meshscope_events_received_total",
			Help: "Datagrams decoded into event records.",
		}),
		ParseErrors: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "meshscope_parse_errors_total",
			Help: "Datagrams rejected by the wire decoder.",
		}),
		CommandsSent: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "meshscope_commands_sent_total",
			Help: "Commands dispatched to nodes.",
		}),
		CommandErrors: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "meshscope_command_errors_total",
			Help: "Command sends that failed.",
		}),
		Rebinds: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Name: "meshscope_socket_rebinds_total",
			Help: "UDP socket rebind attempts after a receive error.",
		}),
		NodesSeen: promauto.With(r).NewGauge(prometheus.GaugeOpts{
			Name: "meshscope_nodes_seen",
			Help: "Distinct node ids observed in the event stream.",
		}),
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
