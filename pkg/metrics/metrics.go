// Package metrics exposes Prometheus instruments for runs, nodes and AI calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_workflow_runs_total",
			Help: "Total number of workflow runs by terminal status",
		},
		[]string{"status"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "automation_workflow_run_duration_seconds",
			Help:    "Workflow run duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
		},
		[]string{"status"},
	)

	runsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "automation_workflow_runs_in_flight",
			Help: "Number of workflow runs currently executing",
		},
	)

	nodeEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_node_evaluations_total",
			Help: "Total number of node evaluations",
		},
		[]string{"type", "status"},
	)

	nodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "automation_node_evaluation_duration_seconds",
			Help:    "Node evaluation duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"type"},
	)

	aiCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_ai_calls_total",
			Help: "Total number of calls to the AI backend",
		},
		[]string{"endpoint", "status"},
	)

	aiTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_ai_tokens_total",
			Help: "Total number of tokens reported by the AI backend",
		},
		[]string{"endpoint", "type"},
	)

	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "automation_executions_rate_limited_total",
			Help: "Execution requests rejected by the organization rate limit",
		},
	)
)

func RunStarted() {
	runsInFlight.Inc()
}

func RunFinished(status string, elapsed time.Duration) {
	runsInFlight.Dec()
	runsTotal.WithLabelValues(status).Inc()
	runDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

func NodeEvaluated(nodeType string, err error, elapsed time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}

	nodeEvaluationsTotal.WithLabelValues(nodeType, status).Inc()
	nodeDuration.WithLabelValues(nodeType).Observe(elapsed.Seconds())
}

func AICall(endpoint string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	aiCallsTotal.WithLabelValues(endpoint, status).Inc()
}

func AITokens(endpoint string, usage map[string]int) {
	for kind, count := range usage {
		if count <= 0 {
			continue
		}

		aiTokensTotal.WithLabelValues(endpoint, kind).Add(float64(count))
	}
}

func RateLimited() {
	rateLimitedTotal.Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
