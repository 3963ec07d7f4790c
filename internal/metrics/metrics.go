// Package metrics declares the prometheus collectors of the reminder engine.
// Everything is registered on the default registry and served by promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemindersSent counts successfully delivered reminders per offset.
	RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reminders_sent_total",
		Help: "Reminders delivered and committed to the ledger, per offset.",
	}, []string{"offset"})

	// RemindersFailed counts reminders that produced no ledger row, per
	// offset and failure reason (render, delivery, ledger, data).
	RemindersFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reminders_failed_total",
		Help: "Reminder candidates that failed before a ledger row was written.",
	}, []string{"offset", "reason"})

	// TrackingEvents counts accepted tracking events per kind.
	TrackingEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_events_total",
		Help: "Tracking events applied to the attempt ledger, per kind.",
	}, []string{"kind"})
)
