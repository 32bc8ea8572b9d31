package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	// Initialize the registry
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordScan(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(ScansTotal.WithLabelValues("nfl", "full", "success"))

	RecordScan("nfl", "full", 12, 3, 7.5, 0.8)

	assert.Equal(t, before+1, testutil.ToFloat64(ScansTotal.WithLabelValues("nfl", "full", "success")))
	assert.Equal(t, float64(3), testutil.ToFloat64(LastScanOpportunities.WithLabelValues("nfl")))
	assert.Equal(t, 7.5, testutil.ToFloat64(BestEdgePercent.WithLabelValues("nfl")))
}

func TestRecordScanFailure(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(ScansTotal.WithLabelValues("mlb", "smart", "error"))

	RecordScanFailure("mlb", "smart")

	assert.Equal(t, before+1, testutil.ToFloat64(ScansTotal.WithLabelValues("mlb", "smart", "error")))
}

func TestRecordSlipBuild(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name    string
		evs     []float64
		outcome string
	}{
		{name: "with slips", evs: []float64{0.12, -0.03}, outcome: "success"},
		{name: "no slips", evs: nil, outcome: "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := SlipBuildsTotal.WithLabelValues("sleeper", "power", tt.outcome)
			before := testutil.ToFloat64(counter)

			assert.NotPanics(t, func() {
				RecordSlipBuild("sleeper", "power", 56, tt.evs, 0.01)
			})
			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}

func TestRecordSlipRejected(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(UnavailableLegsTotal.WithLabelValues("underdog"))

	RecordSlipRejected("underdog", "standard", 2)
	RecordSlipRejected("underdog", "standard", 0)

	assert.Equal(t, before+2, testutil.ToFloat64(UnavailableLegsTotal.WithLabelValues("underdog")))
}

func TestSourceMetrics(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordSourceRequest("odds_api", "2xx", 0.2)
		RecordSourceError("odds_api", "rate_limited")
		RecordQuotesFetched("odds_api", 40)
		RecordCircuitBreakerTrip("sleeper")
	})

	UpdateOddsAPIRemaining(480)
	assert.Equal(t, float64(480), testutil.ToFloat64(OddsAPIRequestsRemaining))
}

func TestHandlerServesMetrics(t *testing.T) {
	InitRegistry()
	RecordScanCacheHit()
	RecordTrendRelaxation()
	RecordAPIRequest("/v1/scan", "200")

	server := httptest.NewServer(Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "prop_edge_scan_cache_hits_total")
	assert.Contains(t, string(body), "prop_edge_api_requests_total")
}
