package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		usersCreatedTotal,
		telegramUpdatesReceivedTotal,
		telegramRateLimitTriggeredTotal,
		telegramSendErrorsTotal,
	)
}

var (
	usersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_created_total",
			Help: "Total number of user records created on first interaction.",
		},
	)

	telegramUpdatesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_received_total",
			Help: "Counts incoming updates by kind (text, callback, command).",
		},
		[]string{"kind"},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)

	telegramSendErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_send_errors_total",
			Help: "Outbound Telegram messages that failed to send.",
		},
	)
)

func IncUsersCreated() {
	usersCreatedTotal.Inc()
}

func IncTelegramUpdate(kind string) {
	telegramUpdatesReceivedTotal.WithLabelValues(norm(kind)).Inc()
}

func IncRateLimitTriggered() {
	telegramRateLimitTriggeredTotal.Inc()
}

func IncSendError() {
	telegramSendErrorsTotal.Inc()
}
