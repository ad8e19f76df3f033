/*
Package metrics registers the server's Prometheus collectors and exposes the scrape
handler.
*/
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gmpro"

var (
	// WebhookEvents counts push notifications by event type and outcome.
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Workspace event push notifications received.",
		},
		[]string{"type", "outcome"},
	)

	// ChatMessages counts stored chat changes by kind (added, updated, reaction).
	ChatMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Chat messages stored, by kind of change.",
		},
		[]string{"kind"},
	)

	// Shuffles counts shuffler publications by mode.
	Shuffles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shuffles_total",
			Help:      "Shuffler lists published, by mode.",
		},
		[]string{"mode"},
	)

	// RosterFetches counts Meet participant fetches by result.
	RosterFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roster_fetches_total",
			Help:      "Participant fetches against the Meet API, by result.",
		},
		[]string{"result"},
	)

	// ActiveSessions tracks open meeting sessions.
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Meeting sessions currently open.",
		},
	)
)

func init() {
	prometheus.MustRegister(WebhookEvents, ChatMessages, Shuffles, RosterFetches, ActiveSessions)
}

// Result maps an error to the "ok" / "error" label value.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
