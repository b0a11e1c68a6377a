package generator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stwalsh4118/lineup/internal/models"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lineup_generator_runs_total",
		Help: "Generation runs by result (ok, noop, error, canceled)",
	}, []string{"result"})

	itemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lineup_generator_items_total",
		Help: "Generated schedule items committed, by item type",
	}, []string{"kind"})

	fallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lineup_generator_fallback_total",
		Help: "Fallback items emitted because no slot was eligible",
	})

	resolutionWarnings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lineup_generator_resolution_warnings_total",
		Help: "Slots skipped for a draw because their content could not be resolved",
	})

	commitFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lineup_generator_commit_failures_total",
		Help: "Batch commits rolled back",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lineup_generator_run_duration_seconds",
		Help:    "Wall time of generation runs",
		Buckets: prometheus.DefBuckets,
	})
)

// Result labels for runsTotal
const (
	resultOK       = "ok"
	resultNoop     = "noop"
	resultError    = "error"
	resultCanceled = "canceled"
)

func recordFailure(kind FailureKind) {
	switch kind {
	case FailureResolution:
		resolutionWarnings.Inc()
	case FailureExhaustion:
		fallbackTotal.Inc()
	case FailureTransaction:
		commitFailures.Inc()
	}
}

func recordItems(items []*models.GeneratedScheduleItem) {
	for _, item := range items {
		itemsTotal.WithLabelValues(string(item.ItemType)).Inc()
	}
}
