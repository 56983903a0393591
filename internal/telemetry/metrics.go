// Package telemetry exposes Prometheus metrics for the chat core.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsConnected tracks currently joined sessions.
	SessionsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pairchat_sessions_connected",
		Help: "Number of sessions currently joined to the broadcast group",
	})

	// MessagesPersisted counts chat messages written to the message log.
	MessagesPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pairchat_messages_persisted_total",
		Help: "Number of chat messages persisted and broadcast",
	})

	// EventsPublished counts group publishes (one per event, not per member).
	EventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pairchat_events_published_total",
		Help: "Number of events published to the broadcast group",
	})

	// EventsDropped counts member deliveries skipped due to full queues.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pairchat_events_dropped_total",
		Help: "Number of per-member deliveries dropped because the member queue was full",
	})
)
