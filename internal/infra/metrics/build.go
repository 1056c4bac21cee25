package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(buildInfo, activeSessions) }

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "horoscope_bot_build_info",
			Help: "A constant metric with labels for version, commit and Go runtime.",
		},
		[]string{"version", "commit", "go_version"},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatcher_active_users",
			Help: "Users with a live per-user event queue.",
		},
	)
)

func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
}

func SetActiveUsers(n int) {
	activeSessions.Set(float64(n))
}
