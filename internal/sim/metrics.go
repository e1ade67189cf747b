package sim

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	jobsFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radiosim_jobs_finished_total",
			Help: "Total number of jobs driven to a terminal state.",
		},
		[]string{"status"},
	)

	stepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "radiosim_steps_total",
			Help: "Total number of simulation steps executed.",
		},
	)

	stepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "radiosim_step_duration_seconds",
			Help:    "Duration of a single simulation step in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
	)
)

func init() {
	prometheus.MustRegister(jobsFinishedTotal)
	prometheus.MustRegister(stepsTotal)
	prometheus.MustRegister(stepDuration)
}
