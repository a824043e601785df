package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "searchd",
		Name:      "search_requests_total",
		Help:      "Total search requests by type filter and ranking mode.",
	}, []string{"type", "mode"})

	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "searchd",
		Name:      "search_duration_seconds",
		Help:      "End-to-end search coordinator duration in seconds.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
	}, []string{"type"})

	IndexErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "searchd",
		Name:      "index_errors_total",
		Help:      "Entity index lookups that failed or timed out, by kind.",
	}, []string{"kind"})

	SuggestionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "searchd",
		Name:      "suggestions_total",
		Help:      "Suggestions served, by source.",
	}, []string{"source"})

	HistoryAppendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "searchd",
		Name:      "history_appends_total",
		Help:      "History append attempts by outcome.",
	}, []string{"status"})

	SnapshotRebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "searchd",
		Name:      "snapshot_rebuilds_total",
		Help:      "Index snapshot rebuilds by outcome.",
	}, []string{"status"})

	SnapshotDocs = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "searchd",
		Name:      "snapshot_docs",
		Help:      "Documents in the live index snapshot, by kind.",
	}, []string{"kind"})
)
