package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	connectionsActive  prometheus.Gauge
	roomsSubscribed    prometheus.Gauge
	commandsTotal      *prometheus.CounterVec
	commandDuration    *prometheus.HistogramVec
	eventsPublished    *prometheus.CounterVec
	eventsDelivered    prometheus.Counter
	busEventsForwarded prometheus.Counter
	busEventsReceived  prometheus.Counter
	socketWriteErrors  prometheus.Counter
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		connectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "reelsync_connections_active",
			Help: "Number of websocket connections on this instance",
		}),

		roomsSubscribed: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "reelsync_rooms_subscribed",
			Help: "Number of rooms with at least one local connection",
		}),

		commandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reelsync_commands_total",
			Help: "Commands processed, by action and outcome",
		}, []string{"action", "outcome"}),

		commandDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reelsync_command_duration_seconds",
			Help:    "Command handling duration",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"action"}),

		eventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "reelsync_events_published_total",
			Help: "Events published, by type",
		}, []string{"type"}),

		eventsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reelsync_events_delivered_total",
			Help: "Events delivered to local sockets",
		}),

		busEventsForwarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reelsync_bus_events_forwarded_total",
			Help: "Events forwarded to other instances through the bus",
		}),

		busEventsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reelsync_bus_events_received_total",
			Help: "Events received from other instances through the bus",
		}),

		socketWriteErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reelsync_socket_write_errors_total",
			Help: "Local socket writes that failed and evicted a connection",
		}),
	}
}

func (c *PrometheusCollector) ConnectionOpened() { c.connectionsActive.Inc() }

func (c *PrometheusCollector) ConnectionClosed() { c.connectionsActive.Dec() }

func (c *PrometheusCollector) SetRoomCount(n int) { c.roomsSubscribed.Set(float64(n)) }

func (c *PrometheusCollector) RecordCommand(action, outcome string, d time.Duration) {
	c.commandsTotal.WithLabelValues(action, outcome).Inc()
	c.commandDuration.WithLabelValues(action).Observe(d.Seconds())
}

func (c *PrometheusCollector) EventPublished(eventType string) {
	c.eventsPublished.WithLabelValues(eventType).Inc()
}

func (c *PrometheusCollector) EventDelivered() { c.eventsDelivered.Inc() }

func (c *PrometheusCollector) BusEventForwarded() { c.busEventsForwarded.Inc() }

func (c *PrometheusCollector) BusEventReceived() { c.busEventsReceived.Inc() }

func (c *PrometheusCollector) SocketWriteFailed() { c.socketWriteErrors.Inc() }
