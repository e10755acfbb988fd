package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		payoutsTotal,
	)
}

var payoutsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "payouts_total",
		Help: "Payout status transitions.",
	},
	[]string{"status"},
)

func IncPayout(status string) {
	payoutsTotal.WithLabelValues(norm(status)).Inc()
}
