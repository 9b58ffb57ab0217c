// Package observability is component H: a structured-logging status
// sink, Prometheus metrics, and an OpenTelemetry-instrumented Step
// decorator. Grounded on dshills-langgraph-go's graph.PrometheusMetrics
// (promauto factory, namespaced gauge/histogram/counter set) and
// graph/emit.OTelEmitter (span-per-event tracing), narrowed from that
// engine's generic node/run vocabulary to this engine's workflow/node/
// step vocabulary.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors, namespaced
// "workflowengine".
type Metrics struct {
	executionsTotal *prometheus.CounterVec
	stepDuration    *prometheus.HistogramVec
	stepRetries     *prometheus.CounterVec
}

// NewMetrics registers the engine's collectors against registerer. Use
// prometheus.DefaultRegisterer for the global registry, or a fresh
// prometheus.NewRegistry() to isolate a test or a single process
// instance.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		executionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workflowengine",
			Name:      "executions_total",
			Help:      "Total workflow executions, labeled by final outcome",
		}, []string{"status"}), // status: success, retriable_error, config_error

		stepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "workflowengine",
			Name:      "step_duration_ms",
			Help:      "Duration of a single durable step.Run invocation, in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000},
		}, []string{"step", "outcome"}), // outcome: success, error

		stepRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workflowengine",
			Name:      "step_retries_total",
			Help:      "Count of step.Run invocations that found an existing checkpoint and skipped re-running",
		}, []string{"step"}),
	}
}

// RecordExecution records a completed workflow execution's final
// status.
func (m *Metrics) RecordExecution(status string) {
	m.executionsTotal.WithLabelValues(status).Inc()
}

// RecordStepDuration records how long a named step took and whether
// it succeeded.
func (m *Metrics) RecordStepDuration(step, outcome string, d time.Duration) {
	m.stepDuration.WithLabelValues(step, outcome).Observe(float64(d.Milliseconds()))
}

// RecordStepResume records that name's checkpoint already existed, so
// its thunk was skipped.
func (m *Metrics) RecordStepResume(step string) {
	m.stepRetries.WithLabelValues(step).Inc()
}
