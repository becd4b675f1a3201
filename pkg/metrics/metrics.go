// Package metrics exposes the Prometheus counters and histograms the
// scheduler and path composer update while a run is in flight.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PathsEmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "raypath_paths_emitted_total",
		Help: "Total propagation paths emitted, by kind (direct, diffh, difv, reflection)",
	}, []string{"kind"})

	ReflectionDepth = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "raypath_reflection_depth",
		Help:    "Reflection order of accepted reflection paths",
		Buckets: []float64{1, 2, 3, 4, 5, 6},
	})

	ReceiverDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "raypath_receiver_duration_ms",
		Help:    "Wall-clock time to compute all paths for one receiver, in milliseconds",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
	})

	ReceiversProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "raypath_receivers_processed_total",
		Help: "Total receivers fully processed across all workers",
	})

	ValidationWarningsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "raypath_validation_warnings_total",
		Help: "Non-fatal validation findings, by level",
	}, []string{"level"})
)

func init() {
	prometheus.MustRegister(PathsEmittedTotal)
	prometheus.MustRegister(ReflectionDepth)
	prometheus.MustRegister(ReceiverDurationMs)
	prometheus.MustRegister(ReceiversProcessedTotal)
	prometheus.MustRegister(ValidationWarningsTotal)
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler { return promhttp.Handler() }
