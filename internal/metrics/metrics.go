package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ItemsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prospector_items_processed_total",
		Help: "Records written by each stage.",
	}, []string{"stage"})

	ItemsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prospector_items_failed_total",
		Help: "Per-item external lookups skipped after failure, labelled by stage.",
	}, []string{"stage"})

	StageRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "prospector_stage_runs_total",
		Help: "Stage executions, labelled by stage and terminal status.",
	}, []string{"stage", "status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prospector_stage_duration_seconds",
		Help:    "Wall-clock duration of each stage execution.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})
)
