// Package metrics exposes game and transport counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scribbly"

// Collector records game events and connection activity. It satisfies
// game.Recorder. A nil *Collector discards everything.
type Collector struct {
	registry *prometheus.Registry

	gamesStarted    prometheus.Counter
	roundsEnded     *prometheus.CounterVec
	guesses         *prometheus.CounterVec
	connections     prometheus.Gauge
	messagesIn      *prometheus.CounterVec
	messagesDropped prometheus.Counter
}

// New creates a collector on its own registry, with Go runtime and process
// collectors included.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		gamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Games started across all rooms.",
		}),
		roundsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_ended_total",
			Help:      "Rounds ended, by reason.",
		}, []string{"reason"}),
		guesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guesses_total",
			Help:      "Guesses evaluated, by result.",
		}, []string{"result"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections",
			Help:      "Open websocket connections.",
		}),
		messagesIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Inbound messages, by event.",
		}, []string{"event"}),
		messagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Outbound messages dropped because a client's buffer was full.",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.gamesStarted,
		c.roundsEnded,
		c.guesses,
		c.connections,
		c.messagesIn,
		c.messagesDropped,
	)
	return c
}

// TrackRooms exposes the live room count through f
func (c *Collector) TrackRooms(f func() int) {
	if c == nil {
		return
	}
	c.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rooms_active",
		Help:      "Rooms currently held by the registry.",
	}, func() float64 { return float64(f()) }))
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) GameStarted(string) {
	if c == nil {
		return
	}
	c.gamesStarted.Inc()
}

func (c *Collector) RoundEnded(_, reason string) {
	if c == nil {
		return
	}
	c.roundsEnded.WithLabelValues(reason).Inc()
}

func (c *Collector) GuessEvaluated(_ string, correct bool) {
	if c == nil {
		return
	}
	result := "wrong"
	if correct {
		result = "correct"
	}
	c.guesses.WithLabelValues(result).Inc()
}

func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connections.Inc()
}

func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connections.Dec()
}

func (c *Collector) MessageReceived(event string) {
	if c == nil {
		return
	}
	c.messagesIn.WithLabelValues(event).Inc()
}

func (c *Collector) MessageDropped() {
	if c == nil {
		return
	}
	c.messagesDropped.Inc()
}
