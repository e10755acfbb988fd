package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentInitTotal,
		paymentVerifyTotal,
		transferTotal,
	)
}

var (
	paymentInitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_init_total",
			Help: "Payment initializations by gateway and outcome.",
		},
		[]string{"gateway", "outcome"},
	)

	paymentVerifyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verify_total",
			Help: "Payment verifications by gateway and resolved status.",
		},
		[]string{"gateway", "status"},
	)

	transferTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transfer_total",
			Help: "Payout transfer initiations by gateway and outcome.",
		},
		[]string{"gateway", "outcome"},
	)
)

func IncPaymentInit(gateway, outcome string) {
	paymentInitTotal.WithLabelValues(norm(gateway), norm(outcome)).Inc()
}

func IncPaymentVerify(gateway, status string) {
	paymentVerifyTotal.WithLabelValues(norm(gateway), norm(status)).Inc()
}

func IncTransfer(gateway, outcome string) {
	transferTotal.WithLabelValues(norm(gateway), norm(outcome)).Inc()
}
