package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		aiGenerateLatencyMs,
		aiFailuresTotal,
	)
}

var (
	aiGenerateLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_generate_latency_ms",
			Help:    "Inference call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000},
		},
		[]string{"model", "success"},
	)

	aiFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_failures_total",
			Help: "Inference failures by error kind.",
		},
		[]string{"kind"},
	)
)

func ObserveGenerate(model string, latencyMs int64, success bool) {
	aiGenerateLatencyMs.WithLabelValues(norm(model), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func IncAIFailure(kind string) {
	aiFailuresTotal.WithLabelValues(norm(kind)).Inc()
}
