package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		webhooksTotal,
		webhookRejectedTotal,
		webhookDuplicateTotal,
	)
}

var (
	webhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhooks_total",
			Help: "Inbound provider webhooks by gateway and normalized type.",
		},
		[]string{"gateway", "type"},
	)

	webhookRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_rejected_total",
			Help: "Webhooks rejected for invalid signatures, by gateway.",
		},
		[]string{"gateway"},
	)

	webhookDuplicateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_duplicate_total",
			Help: "Duplicate webhook deliveries skipped by the dedup set.",
		},
		[]string{"gateway"},
	)
)

func IncWebhook(gateway, typ string) {
	webhooksTotal.WithLabelValues(norm(gateway), norm(typ)).Inc()
}

func IncWebhookRejected(gateway string) {
	webhookRejectedTotal.WithLabelValues(norm(gateway)).Inc()
}

func IncWebhookDuplicate(gateway string) {
	webhookDuplicateTotal.WithLabelValues(norm(gateway)).Inc()
}
