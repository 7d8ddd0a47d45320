// Package metrics exposes queue and decomposition metrics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ShayCichocki/taskforge/internal/queue"
	"github.com/ShayCichocki/taskforge/pkg/models"
)

// Metrics holds all Prometheus metrics for taskforge.
type Metrics struct {
	// Queue metrics
	TasksEnqueued *prometheus.CounterVec
	TasksFinished *prometheus.CounterVec
	TaskRetries   *prometheus.CounterVec
	TasksRunning  prometheus.Gauge
	TaskDuration  *prometheus.HistogramVec

	// Decomposition metrics
	Decompositions *prometheus.CounterVec
	PlanTaskCount  prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		TasksEnqueued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskforge_tasks_enqueued_total",
				Help: "Total number of tasks enqueued",
			},
			[]string{"role"},
		),
		TasksFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskforge_tasks_finished_total",
				Help: "Total number of tasks reaching a terminal status",
			},
			[]string{"role", "status"},
		),
		TaskRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskforge_task_retries_total",
				Help: "Total number of failed attempts that were retried",
			},
			[]string{"role"},
		),
		TasksRunning: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskforge_tasks_running",
				Help: "Number of tasks currently running",
			},
		),
		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskforge_task_duration_seconds",
				Help:    "Task duration from dispatch to terminal status in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
			},
			[]string{"role", "status"},
		),
		Decompositions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskforge_decompositions_total",
				Help: "Total number of goal decompositions",
			},
			[]string{"category", "complexity"},
		),
		PlanTaskCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "taskforge_plan_task_count",
				Help:    "Number of subtasks per decomposition",
				Buckets: []float64{1, 2, 3, 5, 8, 13},
			},
		),
	}
}

// TaskEnqueued implements queue.Recorder.
func (m *Metrics) TaskEnqueued(role string) {
	m.TasksEnqueued.WithLabelValues(role).Inc()
}

// TaskStarted implements queue.Recorder.
func (m *Metrics) TaskStarted(string) {
	m.TasksRunning.Inc()
}

// TaskRetried implements queue.Recorder.
func (m *Metrics) TaskRetried(role string) {
	m.TaskRetries.WithLabelValues(role).Inc()
}

// TaskFinished implements queue.Recorder.
func (m *Metrics) TaskFinished(role string, status models.TaskStatus, d time.Duration) {
	m.TasksRunning.Dec()
	m.TasksFinished.WithLabelValues(role, string(status)).Inc()
	m.TaskDuration.WithLabelValues(role, string(status)).Observe(d.Seconds())
}

// DecompositionRecorded counts one decomposition.
func (m *Metrics) DecompositionRecorded(category, complexity string, subtasks int) {
	m.Decompositions.WithLabelValues(category, complexity).Inc()
	m.PlanTaskCount.Observe(float64(subtasks))
}

var _ queue.Recorder = (*Metrics)(nil)
