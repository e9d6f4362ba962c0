// Package observability provides logging, metrics, and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebSocketConnectionsTotal is the gauge of active WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ideaboard_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideaboard_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// BoardEventsPublished counts board events published to the event channel by type.
	BoardEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ideaboard_board_events_published_total",
		Help: "Total number of board events published by event type",
	}, []string{"event_type"})
)
