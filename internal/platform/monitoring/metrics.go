package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	offerAccepts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_offer_accepts_total",
			Help: "Offer acceptance attempts by outcome",
		},
		[]string{"outcome"},
	)

	transactionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_transaction_transitions_total",
			Help: "Transaction state transitions applied",
		},
		[]string{"to"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_webhook_events_total",
			Help: "Webhook events received by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	gatewayLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_gateway_request_duration_seconds",
			Help:    "Latency of outbound payment gateway calls",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "status"},
	)
)

func TrackOfferAccept(outcome string) {
	offerAccepts.WithLabelValues(outcome).Inc()
}

func TrackTransition(to string) {
	transactionTransitions.WithLabelValues(to).Inc()
}

func TrackWebhookEvent(eventType, outcome string) {
	webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func TrackGatewayCall(operation, status string, d time.Duration) {
	gatewayLatency.WithLabelValues(operation, status).Observe(d.Seconds())
}
