// Package metrics holds the Prometheus collectors for the import pipeline
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ImportRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruitops_import_runs_total",
			Help: "Total number of import runs by trigger and final status",
		},
		[]string{"trigger", "status"},
	)

	ImportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recruitops_import_duration_seconds",
			Help:    "Duration of import runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"trigger"},
	)

	TabFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruitops_tab_fetches_total",
			Help: "Tab fetch attempts by strategy and outcome (ok, unavailable, error)",
		},
		[]string{"strategy", "outcome"},
	)

	RecordsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruitops_records_imported_total",
			Help: "Records written by replace-all, per entity kind",
		},
		[]string{"kind"},
	)

	PersistFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruitops_persist_failures_total",
			Help: "Failed replace-all operations per entity kind",
		},
		[]string{"kind"},
	)

	SchedulerSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recruitops_scheduler_skips_total",
			Help: "Scheduled ticks skipped, by reason (rate_limited, in_flight)",
		},
		[]string{"reason"},
	)

	SchedulerJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recruitops_scheduler_jobs",
			Help: "Number of sources with an armed refresh timer",
		},
	)
)
