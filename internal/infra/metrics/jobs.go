package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		dispatchMessagesTotal,
		dispatchRunsTotal,
		adsShownTotal,
		workerQueueRejectedTotal,
	)
}

var (
	dispatchMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_messages_total",
			Help: "Daily dispatch messages by status.",
		},
		[]string{"status"}, // 'sent', 'failed'
	)

	dispatchRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_runs_total",
			Help: "Daily dispatch runs by trigger.",
		},
		[]string{"trigger"}, // 'schedule', 'admin'
	)

	adsShownTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ads_shown_total",
			Help: "Ad notifications by status.",
		},
		[]string{"status"}, // 'ok', 'failed', 'dropped'
	)

	workerQueueRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_queue_rejected_total",
			Help: "Jobs rejected because a worker queue was full.",
		},
		[]string{"pool"},
	)
)

func IncDispatchMessage(status string) {
	dispatchMessagesTotal.WithLabelValues(norm(status)).Inc()
}

func IncDispatchRun(trigger string) {
	dispatchRunsTotal.WithLabelValues(norm(trigger)).Inc()
}

func IncAdShown(status string) {
	adsShownTotal.WithLabelValues(norm(status)).Inc()
}

func IncQueueRejected(pool string) {
	workerQueueRejectedTotal.WithLabelValues(norm(pool)).Inc()
}
