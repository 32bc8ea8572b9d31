package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/prop-edge/internal/datasource"
	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/oddsmath"
	"github.com/yourusername/prop-edge/internal/repository"
	"github.com/yourusername/prop-edge/internal/service"
)

type staticQuotes struct {
	quotes []models.Quote
	err    error
}

func (s staticQuotes) FetchQuotes(ctx context.Context, req datasource.QuoteRequest) ([]models.Quote, error) {
	return s.quotes, s.err
}

func (s staticQuotes) Name() string { return "static" }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func tatumQuotes() []models.Quote {
	q := func(side models.Side, book string, odds int) models.Quote {
		return models.Quote{
			EventID:    "e1",
			HomeTeam:   "Boston Celtics",
			AwayTeam:   "Denver Nuggets",
			PlayerName: "Jayson Tatum",
			Market:     "player_points",
			Line:       27.5,
			Side:       side,
			Book:       book,
			Odds:       odds,
		}
	}
	return []models.Quote{
		q(models.SideOver, "FanDuel", -170),
		q(models.SideOver, "DraftKings", -160),
		q(models.SideOver, "Sleeper", -110),
		q(models.SideUnder, "FanDuel", 140),
		q(models.SideUnder, "DraftKings", 135),
	}
}

func newTestHandler(src datasource.QuoteSource, history bool) http.Handler {
	var versions repository.ScanVersionRepository
	if history {
		versions = repository.NewInMemoryScanVersionRepository()
	}
	svc := service.NewScanService(service.DefaultSettings(), src, nil, versions, quietLogger())
	return NewServer(NewHandlers(svc, time.Second, quietLogger()), ServerConfig{}, quietLogger()).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestScanAndHistory(t *testing.T) {
	metrics.InitRegistry()
	h := newTestHandler(staticQuotes{quotes: tatumQuotes()}, true)

	rec := do(t, h, http.MethodPost, "/v1/scan", map[string]any{"scope": "full", "save": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var scan struct {
		Sport         string               `json:"sport"`
		Opportunities []models.Opportunity `json:"opportunities"`
		VersionID     string               `json:"version_id"`
	}
	decode(t, rec, &scan)
	assert.Equal(t, "nba", scan.Sport)
	require.Len(t, scan.Opportunities, 2)
	assert.Equal(t, "Jayson Tatum", scan.Opportunities[0].PlayerName)
	require.NotEmpty(t, scan.VersionID)

	rec = do(t, h, http.MethodGet, "/v1/history?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Versions []models.ScanVersion `json:"versions"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Versions, 1)
	assert.Equal(t, scan.VersionID, list.Versions[0].ID.String())

	rec = do(t, h, http.MethodGet, "/v1/history/"+scan.VersionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var version models.ScanVersion
	decode(t, rec, &version)
	assert.Len(t, version.Results, 2)

	rec = do(t, h, http.MethodDelete, "/v1/history/"+scan.VersionID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/history/"+scan.VersionID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/history/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/history?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanErrors(t *testing.T) {
	metrics.InitRegistry()

	rec := do(t, newTestHandler(staticQuotes{}, false), http.MethodPost, "/v1/scan", map[string]any{"scope": "everything"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	srcErr := &datasource.SourceError{Source: "odds_api", Code: datasource.ErrCodePlanLimit, Message: "quota"}
	rec = do(t, newTestHandler(staticQuotes{err: srcErr}, false), http.MethodPost, "/v1/scan", map[string]any{"scope": "full"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body errorResponse
	decode(t, rec, &body)
	assert.Equal(t, datasource.ErrCodePlanLimit, body.Code)

	rec = httptest.NewRecorder()
	newTestHandler(staticQuotes{}, false).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/scan", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryDisabled(t *testing.T) {
	metrics.InitRegistry()
	h := newTestHandler(staticQuotes{quotes: tatumQuotes()}, false)

	rec := do(t, h, http.MethodGet, "/v1/history", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/scan", map[string]any{"scope": "full", "save": true})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, h, http.MethodDelete, "/v1/history/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func testLegs() []models.Leg {
	avail := map[string]bool{"sleeper": true}
	opposing := 120
	return []models.Leg{
		{PlayerName: "Jayson Tatum", Market: "player_points", Line: 27.5, Side: models.SideOver, SharpOdds: -150, OpposingOdds: &opposing, EdgePct: 6, BooksUsed: 3, Availability: avail},
		{PlayerName: "Nikola Jokic", Market: "player_assists", Line: 9.5, Side: models.SideOver, SharpOdds: -140, EdgePct: 4, BooksUsed: 2, Availability: avail},
		{PlayerName: "Luka Doncic", Market: "player_rebounds", Line: 8.5, Side: models.SideUnder, SharpOdds: -130, EdgePct: 3, BooksUsed: 2, Availability: avail},
	}
}

func TestSlips(t *testing.T) {
	metrics.InitRegistry()
	h := newTestHandler(staticQuotes{}, false)

	rec := do(t, h, http.MethodPost, "/v1/slips", service.SlipRequest{Legs: testLegs(), Sizes: []int{2}, TopN: 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res service.SlipResult
	decode(t, rec, &res)
	assert.Equal(t, "sleeper", res.Book)
	require.Len(t, res.Slips, 1)
	assert.InDelta(t, 3.06, res.Slips[0].PayoutMultiplier, 1e-9)

	rec = do(t, h, http.MethodPost, "/v1/slips", service.SlipRequest{})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/slips", service.SlipRequest{Legs: testLegs(), Sizes: []int{9}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPriceSlip(t *testing.T) {
	metrics.InitRegistry()
	h := newTestHandler(staticQuotes{}, false)

	rec := do(t, h, http.MethodPost, "/v1/slips/price", service.PriceRequest{Legs: testLegs()[:2]})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var priced service.PricedSlip
	decode(t, rec, &priced)
	assert.Equal(t, 2, priced.SlipSize)
	assert.InDelta(t, 32.68, priced.BreakevenPct, 0.01)

	legs := testLegs()[:2]
	legs[1].Availability = map[string]bool{"sleeper": false}
	rec = do(t, h, http.MethodPost, "/v1/slips/price", service.PriceRequest{Legs: legs})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorResponse
	decode(t, rec, &body)
	assert.Equal(t, []string{"Nikola Jokic player_assists"}, body.Unavailable)

	rec = do(t, h, http.MethodPost, "/v1/slips/price", service.PriceRequest{Legs: testLegs()[:1]})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEdge(t *testing.T) {
	metrics.InitRegistry()
	h := newTestHandler(staticQuotes{}, false)

	rec := do(t, h, http.MethodPost, "/v1/edge", map[string]any{"sharp_odds": -150, "opposing_odds": 130})
	require.Equal(t, http.StatusOK, rec.Code)
	var res edgeResponse
	decode(t, rec, &res)
	assert.True(t, res.IsPlay)
	assert.InDelta(t, 0.579832, res.FairProbability, 1e-5)
	assert.InDelta(t, 3.48, res.EdgePct, 0.01)

	rec = do(t, h, http.MethodPost, "/v1/edge", map[string]any{"sharp_odds": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEV(t *testing.T) {
	metrics.InitRegistry()
	h := newTestHandler(staticQuotes{}, false)

	rec := do(t, h, http.MethodPost, "/v1/ev", map[string]any{"odds": 100, "probability": 0.55})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res oddsmath.BetEV
	decode(t, rec, &res)
	assert.InDelta(t, 10.0, res.EV, 1e-9)
	assert.InDelta(t, 0.1, res.KellyFraction, 1e-9)
	assert.InDelta(t, 10.0, res.KellyStake, 1e-9)

	rec = do(t, h, http.MethodPost, "/v1/ev", map[string]any{"odds": 100, "probability": 0.55, "stake": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/ev", map[string]any{"odds": 100, "probability": 0.55, "probability_confidence": 2})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnmatchedRoute(t *testing.T) {
	metrics.InitRegistry()
	h := newTestHandler(staticQuotes{}, false)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/v1/nothing", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/v1/scan", nil).Code)
}

func TestMiddle(t *testing.T) {
	metrics.InitRegistry()
	h := newTestHandler(staticQuotes{}, false)

	rec := do(t, h, http.MethodPost, "/v1/middle", map[string]any{
		"player_name": "Jayson Tatum",
		"stat":        "player_points",
		"dfs_line":    24.5,
		"sharp_line":  26.5,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res oddsmath.Middle
	decode(t, rec, &res)
	assert.True(t, res.IsMiddle)
	assert.Equal(t, oddsmath.MiddleOverDFS, res.Direction)
	assert.Equal(t, "prizepicks", res.DFSPlatform)
	assert.Equal(t, "pinnacle", res.SharpBook)
	assert.InDelta(t, 0.7, res.ConfidenceWeight, 1e-9)
	assert.InDelta(t, 0.0986, res.Probability, 1e-4)

	rec = do(t, h, http.MethodPost, "/v1/middle", map[string]any{"stat": "points", "dfs_line": 24.5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/middle", map[string]any{"dfs_line": 24.5, "sharp_line": 26.5, "market_confidence": 1.5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/middle", map[string]any{"dfs_line": 24.5, "sharp_line": 26.5, "sharp_odds": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type staticTrends struct {
	players []datasource.TrendingPlayer
	err     error
}

func (s staticTrends) Trending(ctx context.Context, sport string, limit int) ([]datasource.TrendingPlayer, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.players[:min(limit, len(s.players))], nil
}

func (s staticTrends) Name() string { return "static_trends" }

func TestTrending(t *testing.T) {
	metrics.InitRegistry()
	trends := staticTrends{players: []datasource.TrendingPlayer{
		{PlayerID: "4017", Count: 1200, Name: "Jayson Tatum", Team: "BOS"},
		{PlayerID: "4881", Count: 800, Name: "Nikola Jokic", Team: "DEN"},
	}}
	svc := service.NewScanService(service.DefaultSettings(), staticQuotes{}, trends, nil, quietLogger())
	h := NewServer(NewHandlers(svc, time.Second, quietLogger()), ServerConfig{}, quietLogger()).Handler()

	rec := do(t, h, http.MethodGet, "/v1/trending?sport=nba&limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res service.TrendingResult
	decode(t, rec, &res)
	assert.Equal(t, "nba", res.Sport)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, "Jayson Tatum", res.Trending[0].Name)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/v1/trending?limit=x", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/v1/trending?sport=curling", nil).Code)

	// no trend source configured
	rec = do(t, newTestHandler(staticQuotes{}, false), http.MethodGet, "/v1/trending", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	srcErr := &datasource.SourceError{Source: "sleeper", Code: datasource.ErrCodeServerError, Message: "down"}
	svc = service.NewScanService(service.DefaultSettings(), staticQuotes{}, staticTrends{err: srcErr}, nil, quietLogger())
	h = NewServer(NewHandlers(svc, time.Second, quietLogger()), ServerConfig{}, quietLogger()).Handler()
	assert.Equal(t, http.StatusBadGateway, do(t, h, http.MethodGet, "/v1/trending", nil).Code)
}

func TestSettings(t *testing.T) {
	metrics.InitRegistry()
	h := newTestHandler(staticQuotes{}, false)

	rec := do(t, h, http.MethodGet, "/v1/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view service.SettingsView
	decode(t, rec, &view)
	assert.InDelta(t, 3.0, view.EdgeThresholdPct, 1e-9)
	assert.InDelta(t, 54.5, view.FixedImpliedProbPct, 1e-9)
	assert.Equal(t, "sleeper", view.SlipBook)
	assert.Contains(t, view.PayoutBooks, "prizepicks")
}
