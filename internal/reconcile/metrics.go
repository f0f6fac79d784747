package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sdmx_reconcile_runs_total",
		Help: "Total reconciliation runs by outcome",
	}, []string{"outcome"})

	discrepanciesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sdmx_reconcile_discrepancies_total",
		Help: "Total flagged groups by dataset",
	}, []string{"dataset"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sdmx_reconcile_duration_seconds",
		Help:    "Reconciliation latency including both retrievals",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30},
	})
)

const (
	outcomeClean       = "clean"
	outcomeDiscrepancy = "discrepancy"
	outcomeError       = "error"
)
