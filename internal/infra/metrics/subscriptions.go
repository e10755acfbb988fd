package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionsTotal,
		renewalSweepDue,
		renewalSweepRenewed,
	)
}

var subscriptionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "subscriptions_total",
		Help: "Subscription lifecycle events (created/activated/renewed/cancelled).",
	},
	[]string{"event"},
)

func IncSubscription(event string) {
	subscriptionsTotal.WithLabelValues(norm(event)).Inc()
}

var renewalSweepDue = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "renewal_sweep_due_total",
		Help: "Subscriptions found due during renewal sweeps.",
	},
)

var renewalSweepRenewed = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "renewal_sweep_renewed_total",
		Help: "Subscriptions successfully renewed by the sweep.",
	},
)

func IncRenewalSweep(due, renewed int) {
	renewalSweepDue.Add(float64(due))
	renewalSweepRenewed.Add(float64(renewed))
}
