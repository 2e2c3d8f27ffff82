package search

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments the search engine.
type Metrics struct {
	SearchDuration prometheus.Histogram
	Commits        prometheus.Counter
	RemoteErrors   *prometheus.CounterVec
	IndexDocs      prometheus.Gauge
	IndexRebuilds  prometheus.Counter
}

// NewMetrics creates and registers the engine's metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chrome",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Time spent computing grouped results for a committed query.",
			Buckets:   prometheus.DefBuckets,
		}),
		Commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chrome",
			Subsystem: "search",
			Name:      "commits_total",
			Help:      "Committed search queries.",
		}),
		RemoteErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chrome",
			Subsystem: "search",
			Name:      "remote_errors_total",
			Help:      "Remote result source failures, by source.",
		}, []string{"source"}),
		IndexDocs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "chrome",
			Subsystem: "search",
			Name:      "index_documents",
			Help:      "Documents in the navigation index.",
		}),
		IndexRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chrome",
			Subsystem: "search",
			Name:      "index_rebuilds_total",
			Help:      "Navigation index rebuilds.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.SearchDuration, m.Commits, m.RemoteErrors, m.IndexDocs, m.IndexRebuilds)
	}
	return m
}
