package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		paymentChecksTotal,
		paymentCheckDuration,
		paymentCallbacksTotal,
	)
}

var (
	// result: paid|unpaid|timeout
	paymentChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_checks_total",
			Help: "Payment confirmation checks by gateway and result.",
		},
		[]string{"gateway", "result"},
	)

	paymentCheckDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_check_duration_seconds",
			Help:    "Duration of payment gateway checks in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"gateway"},
	)

	// result: ok|unauthorized|bad_request|error
	paymentCallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_callbacks_total",
			Help: "Calls to /api/v1/payment/callback by result.",
		},
		[]string{"result"},
	)
)

func ObservePaymentCheck(gateway, result string, d time.Duration) {
	paymentChecksTotal.WithLabelValues(norm(gateway), norm(result)).Inc()
	paymentCheckDuration.WithLabelValues(norm(gateway)).Observe(d.Seconds())
}

func IncPaymentCallback(result string) {
	paymentCallbacksTotal.WithLabelValues(norm(result)).Inc()
}
