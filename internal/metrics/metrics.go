package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roomhub_active_sessions",
			Help: "Currently registered sessions",
		},
	)

	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomhub_events_processed_total",
			Help: "Inbound events handled by the router",
		},
		[]string{"type"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomhub_events_dropped_total",
			Help: "Inbound events silently dropped",
		},
		[]string{"reason"},
	)

	FanoutDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomhub_fanout_deliveries_total",
			Help: "Per-recipient outbound event deliveries",
		},
	)

	DispatchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomhub_dispatch_errors_total",
			Help: "Failed outbound dispatches",
		},
	)
)
