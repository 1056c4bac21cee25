package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		conversationEventsTotal,
		horoscopesDeliveredTotal,
		quotaExhaustedTotal,
		storeErrorsTotal,
		cacheRequestsTotal,
	)
}

var (
	// result: accepted|rejected|invalid_date|error
	conversationEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_events_total",
			Help: "Inbound conversation events by state and result.",
		},
		[]string{"state", "result"},
	)

	horoscopesDeliveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horoscopes_delivered_total",
			Help: "Horoscopes delivered to users by period and category.",
		},
		[]string{"period", "category"},
	)

	quotaExhaustedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quota_exhausted_total",
			Help: "Requests that hit the daily free limit and were sent to payment.",
		},
	)

	storeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_errors_total",
			Help: "User/session store failures by operation.",
		},
		[]string{"op"},
	)

	cacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Tracks cache hits and misses for the user cache.",
		},
		[]string{"cache", "result"}, // e.g., cache="user", result="hit"
	)
)

func IncConversationEvent(state, result string) {
	conversationEventsTotal.WithLabelValues(norm(state), norm(result)).Inc()
}

func IncHoroscopeDelivered(period, category string) {
	horoscopesDeliveredTotal.WithLabelValues(norm(period), norm(category)).Inc()
}

func IncQuotaExhausted() {
	quotaExhaustedTotal.Inc()
}

func IncStoreError(op string) {
	storeErrorsTotal.WithLabelValues(norm(op)).Inc()
}

func IncCacheRequest(cacheName, result string) {
	cacheRequestsTotal.WithLabelValues(norm(cacheName), norm(result)).Inc()
}
