// Package telemetry exposes simulation counters to Prometheus.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mdsim_steps_total",
		Help: "Completed integration steps.",
	})

	ForceUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mdsim_force_updates_total",
		Help: "Force recomputation passes.",
	})

	AuxUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mdsim_aux_updates_total",
		Help: "Force passes that also computed auxiliary variables.",
	})

	SortsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mdsim_sorts_total",
		Help: "Particle storage reorderings.",
	})

	StepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mdsim_step_duration_seconds",
		Help:    "Wall time per integration step.",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
	})
)

// Handler returns the metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes the metrics endpoint on addr until the listener fails.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
