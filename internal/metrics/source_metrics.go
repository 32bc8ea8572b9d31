// Package metrics defines upstream data source metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Source metrics
var (
	SourceRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_requests_total",
		Help:      "Total number of upstream requests by source and status class",
	}, []string{"source", "status"})

	SourceErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_errors_total",
		Help:      "Total number of upstream errors by source and code",
	}, []string{"source", "code"})

	QuotesFetchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quotes_fetched_total",
		Help:      "Total number of sportsbook quotes fetched",
	}, []string{"source"})

	CircuitBreakerTripsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of circuit breaker trips by source",
	}, []string{"source"})

	SourceLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "source_latency_seconds",
		Help:      "Latency of upstream requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})

	OddsAPIRequestsRemaining = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "odds_api_requests_remaining",
		Help:      "Remaining request quota reported by the odds API",
	})
)

// RecordSourceRequest records one upstream request.
func RecordSourceRequest(source, status string, durationSeconds float64) {
	SourceRequestsTotal.WithLabelValues(source, status).Inc()
	SourceLatency.WithLabelValues(source).Observe(durationSeconds)
}

// RecordSourceError records an upstream failure.
func RecordSourceError(source, code string) {
	SourceErrorsTotal.WithLabelValues(source, code).Inc()
}

// RecordQuotesFetched records the number of quotes a source produced.
func RecordQuotesFetched(source string, count int) {
	QuotesFetchedTotal.WithLabelValues(source).Add(float64(count))
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip(source string) {
	CircuitBreakerTripsTotal.WithLabelValues(source).Inc()
}

// UpdateOddsAPIRemaining updates the remaining quota gauge.
func UpdateOddsAPIRemaining(remaining float64) {
	OddsAPIRequestsRemaining.Set(remaining)
}
