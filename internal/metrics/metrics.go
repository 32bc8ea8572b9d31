// Package metrics provides centralized Prometheus metrics registry for the prop scanner.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "prop_edge"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	ScansTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scans_total",
		Help:      "Total number of edge scans by sport, scope and outcome",
	}, []string{"sport", "scope", "outcome"})
	ScanCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scan_cache_hits_total",
		Help:      "Total number of scans served from cache",
	})
	OpportunitiesFoundTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "opportunities_found_total",
		Help:      "Total number of props clearing the edge threshold",
	}, []string{"sport"})
	ConsensusRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consensus_rows_total",
		Help:      "Total number of consensus rows built",
	}, []string{"sport"})
	TrendRelaxationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trend_relaxations_total",
		Help:      "Total number of consensus builds rerun without the trend filter",
	})
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total number of HTTP API requests by route and status",
	}, []string{"route", "status"})
)

// Gauge metrics
var (
	LastScanOpportunities = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_scan_opportunities",
		Help:      "Number of opportunities in the latest scan per sport",
	}, []string{"sport"})
	BestEdgePercent = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "best_edge_percent",
		Help:      "Largest edge in the latest scan per sport",
	}, []string{"sport"})
)

// Histogram metrics
var (
	ScanDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scan_duration_seconds",
		Help:      "Duration of edge scans in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"scope"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register scan metrics
		registry.MustRegister(ScansTotal)
		registry.MustRegister(ScanCacheHitsTotal)
		registry.MustRegister(OpportunitiesFoundTotal)
		registry.MustRegister(ConsensusRowsTotal)
		registry.MustRegister(TrendRelaxationsTotal)
		registry.MustRegister(APIRequestsTotal)
		registry.MustRegister(LastScanOpportunities)
		registry.MustRegister(BestEdgePercent)
		registry.MustRegister(ScanDuration)

		// Register slip metrics
		registry.MustRegister(SlipBuildsTotal)
		registry.MustRegister(SlipCandidatesEvaluatedTotal)
		registry.MustRegister(SlipBuildDuration)
		registry.MustRegister(SlipExpectedValue)
		registry.MustRegister(UnavailableLegsTotal)

		// Register source metrics
		registry.MustRegister(SourceRequestsTotal)
		registry.MustRegister(SourceErrorsTotal)
		registry.MustRegister(SourceLatency)
		registry.MustRegister(QuotesFetchedTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)
		registry.MustRegister(OddsAPIRequestsRemaining)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordScan records a completed scan.
func RecordScan(sport, scope string, rows, opportunities int, bestEdge, durationSeconds float64) {
	ScansTotal.WithLabelValues(sport, scope, "success").Inc()
	ConsensusRowsTotal.WithLabelValues(sport).Add(float64(rows))
	OpportunitiesFoundTotal.WithLabelValues(sport).Add(float64(opportunities))
	LastScanOpportunities.WithLabelValues(sport).Set(float64(opportunities))
	BestEdgePercent.WithLabelValues(sport).Set(bestEdge)
	ScanDuration.WithLabelValues(scope).Observe(durationSeconds)
}

// RecordScanFailure records a scan that returned an error.
func RecordScanFailure(sport, scope string) {
	ScansTotal.WithLabelValues(sport, scope, "error").Inc()
}

// RecordScanCacheHit records a scan served from cache.
func RecordScanCacheHit() {
	ScanCacheHitsTotal.Inc()
}

// RecordTrendRelaxation records a consensus rebuild without the trend filter.
func RecordTrendRelaxation() {
	TrendRelaxationsTotal.Inc()
}

// RecordAPIRequest records an HTTP API request.
func RecordAPIRequest(route, status string) {
	APIRequestsTotal.WithLabelValues(route, status).Inc()
}
