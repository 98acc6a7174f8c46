// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StagesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_stages_completed_total",
			Help: "Total number of workflow stages completed",
		},
		[]string{"stage"},
	)

	StagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_stages_failed_total",
			Help: "Total number of workflow stages failed",
		},
		[]string{"stage", "fault_code"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "orchestrator_stage_duration_seconds",
			Help: "Duration of workflow stage processing in seconds",
		},
		[]string{"stage"},
	)

	ApplicationsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orchestrator_applications_processed_total",
			Help: "Total number of loan applications processed",
		},
		[]string{"status"},
	)

	ApplicationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orchestrator_applications_active",
			Help: "Number of loan applications currently in flight",
		},
	)

	RemoteCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "orchestrator_remote_call_duration_seconds",
			Help: "Duration of remote collaborator calls in seconds",
		},
		[]string{"collaborator", "operation", "outcome"},
	)
)
