package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements ports.MetricsCollector using Prometheus.
type Collector struct {
	instructionsSubmitted *prometheus.CounterVec
	workflowsCompleted    *prometheus.CounterVec
	workflowDuration      *prometheus.HistogramVec
	stageExecutions       *prometheus.CounterVec
	stageDuration         *prometheus.HistogramVec
	reserveChecks         *prometheus.CounterVec
	workerPoolIdle        prometheus.Gauge
	workerPoolBusy        prometheus.Gauge
	workerPoolStopped     prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector.
func NewCollector() *Collector {
	return &Collector{
		instructionsSubmitted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "porflow_instructions_submitted_total",
				Help: "Total number of instructions submitted",
			},
			[]string{"status"},
		),
		workflowsCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "porflow_workflows_completed_total",
				Help: "Total number of workflows reaching a terminal outcome",
			},
			[]string{"outcome"},
		),
		workflowDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "porflow_workflow_duration_seconds",
				Help:    "Workflow execution duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		stageExecutions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "porflow_stage_executions_total",
				Help: "Total number of stage executions",
			},
			[]string{"stage", "status"},
		),
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "porflow_stage_duration_seconds",
				Help:    "Stage execution duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		reserveChecks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "porflow_reserve_checks_total",
				Help: "Total number of reserve sufficiency checks",
			},
			[]string{"decision"},
		),
		workerPoolIdle: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "porflow_worker_pool_idle",
				Help: "Number of idle workers",
			},
		),
		workerPoolBusy: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "porflow_worker_pool_busy",
				Help: "Number of busy workers",
			},
		),
		workerPoolStopped: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "porflow_worker_pool_stopped",
				Help: "Number of stopped workers",
			},
		),
	}
}

// RecordInstructionSubmitted records an instruction submission.
func (c *Collector) RecordInstructionSubmitted(status string) {
	c.instructionsSubmitted.WithLabelValues(status).Inc()
}

// RecordWorkflowCompleted records a terminal workflow outcome.
func (c *Collector) RecordWorkflowCompleted(outcome string, duration time.Duration) {
	c.workflowsCompleted.WithLabelValues(outcome).Inc()
	c.workflowDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordStageExecuted records a stage execution.
func (c *Collector) RecordStageExecuted(stage, status string, duration time.Duration) {
	c.stageExecutions.WithLabelValues(stage, status).Inc()
	c.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordReserveCheck records a reserve sufficiency decision.
func (c *Collector) RecordReserveCheck(decision string) {
	c.reserveChecks.WithLabelValues(decision).Inc()
}

// RecordWorkerPoolStatus records worker pool gauges.
func (c *Collector) RecordWorkerPoolStatus(idle, busy, stopped int) {
	c.workerPoolIdle.Set(float64(idle))
	c.workerPoolBusy.Set(float64(busy))
	c.workerPoolStopped.Set(float64(stopped))
}
