package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		flowsStartedTotal,
		flowsFinishedTotal,
		flowValidationFailuresTotal,
		flowTurnLatencyMs,
	)
}

var (
	flowsStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flows_started_total",
			Help: "Conversation flows started, by flow name.",
		},
		[]string{"flow"},
	)

	flowsFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flows_finished_total",
			Help: "Conversation flows finished, by flow name and outcome.",
		},
		[]string{"flow", "outcome"}, // 'completed', 'cancelled', 'switched'
	)

	flowValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_validation_failures_total",
			Help: "Step inputs rejected by validation, by flow and step.",
		},
		[]string{"flow", "step"},
	)

	flowTurnLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flow_turn_latency_ms",
			Help:    "Latency of one conversation turn in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3000},
		},
	)
)

func IncFlowStarted(flow string) {
	flowsStartedTotal.WithLabelValues(norm(flow)).Inc()
}

func IncFlowFinished(flow, outcome string) {
	flowsFinishedTotal.WithLabelValues(norm(flow), norm(outcome)).Inc()
}

func IncFlowValidationFailure(flow, step string) {
	flowValidationFailuresTotal.WithLabelValues(norm(flow), norm(step)).Inc()
}

func ObserveTurnLatency(ms float64) {
	flowTurnLatencyMs.Observe(ms)
}
