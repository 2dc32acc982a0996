// internal/messaging/metrics.go

package messaging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "messaging_active_connections",
		Help: "Number of open websocket connections",
	})

	onlineUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "messaging_online_users",
		Help: "Number of distinct users with at least one open connection",
	})

	messagesRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messaging_messages_relayed_total",
		Help: "Messages accepted and broadcast, by origin (socket or rest)",
	}, []string{"origin"})

	eventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messaging_events_dropped_total",
		Help: "Events dropped because a connection's send queue was full",
	}, []string{"event"})

	persistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messaging_persist_failures_total",
		Help: "Message persistence failures on the socket path",
	})
)

func recordEventDropped(event string) {
	eventsDropped.WithLabelValues(event).Inc()
}

func recordMessageRelayed(origin string) {
	messagesRelayed.WithLabelValues(origin).Inc()
}

func recordPersistFailure() {
	persistFailures.Inc()
}
