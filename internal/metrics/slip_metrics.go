// Package metrics defines slip optimizer metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Slip counter vectors
var (
	SlipBuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slip_builds_total",
		Help:      "Total number of slip optimizer runs by book, mode and outcome",
	}, []string{"book", "mode", "outcome"})

	SlipCandidatesEvaluatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slip_candidates_evaluated_total",
		Help:      "Total number of leg combinations priced",
	})

	UnavailableLegsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unavailable_legs_total",
		Help:      "Total number of legs rejected as unavailable on the target book",
	}, []string{"book"})
)

// Slip histograms
var (
	SlipBuildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "slip_build_duration_seconds",
		Help:      "Duration of slip optimizer runs in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	SlipExpectedValue = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "slip_expected_value",
		Help:      "Expected value per unit stake of returned slips",
		Buckets:   []float64{-0.5, -0.25, -0.1, 0, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"book", "mode"})
)

// RecordSlipBuild records an optimizer run and the EV of each returned slip.
func RecordSlipBuild(book, mode string, evaluated int, evs []float64, durationSeconds float64) {
	outcome := "success"
	if len(evs) == 0 {
		outcome = "empty"
	}
	SlipBuildsTotal.WithLabelValues(book, mode, outcome).Inc()
	SlipCandidatesEvaluatedTotal.Add(float64(evaluated))
	SlipBuildDuration.Observe(durationSeconds)
	for _, ev := range evs {
		SlipExpectedValue.WithLabelValues(book, mode).Observe(ev)
	}
}

// RecordSlipRejected records an optimizer run refused before enumeration.
func RecordSlipRejected(book, mode string, unavailable int) {
	SlipBuildsTotal.WithLabelValues(book, mode, "rejected").Inc()
	if unavailable > 0 {
		UnavailableLegsTotal.WithLabelValues(book).Add(float64(unavailable))
	}
}
