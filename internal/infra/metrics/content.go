package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		contentCallsLatencyMs,
		contentFallbacksTotal,
		contentTokensOut,
	)
}

var (
	contentCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "content_calls_latency_ms",
			Help:    "AI content call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 200, 400, 800, 1600, 3000, 5000, 10000},
		},
		[]string{"provider", "model", "success"},
	)

	contentFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_fallbacks_total",
			Help: "Horoscope requests served from the static table after a provider failure.",
		},
		[]string{"provider"},
	)

	contentTokensOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_tokens_out",
			Help: "Sum of delivered completion tokens per provider/model.",
		},
		[]string{"provider", "model"},
	)
)

func ObserveContentCall(provider, model string, latencyMs int64, tokensOut int, success bool) {
	contentCallsLatencyMs.WithLabelValues(norm(provider), norm(model), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
	if success {
		contentTokensOut.WithLabelValues(norm(provider), norm(model)).Add(float64(tokensOut))
	}
}

func IncContentFallback(provider string) {
	contentFallbacksTotal.WithLabelValues(norm(provider)).Inc()
}
