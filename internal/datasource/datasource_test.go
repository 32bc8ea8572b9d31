package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/prop-edge/internal/models"
)

const eventsJSON = `[
	{"id":"e1","sport_key":"basketball_nba","commence_time":"2025-01-10T00:00:00Z","home_team":"Boston Celtics","away_team":"Miami Heat"},
	{"id":"e2","sport_key":"basketball_nba","commence_time":"2025-01-10T01:00:00Z","home_team":"Los Angeles Lakers","away_team":"Denver Nuggets"},
	{"id":"e3","sport_key":"basketball_nba","commence_time":"2025-01-10T02:00:00Z","home_team":"Golden State Warriors","away_team":"Los Angeles Lakers"}
]`

func eventOddsJSON(eventID string) string {
	return fmt.Sprintf(`{
	"id":%q,
	"bookmakers":[
		{"key":"fanduel","markets":[{"key":"player_points","outcomes":[
			{"name":"Over","description":"Jayson Tatum","price":-120,"point":27.5},
			{"name":"Under","description":"Jayson Tatum","price":100,"point":27.5}
		]}]},
		{"key":"draftkings","markets":[{"key":"player_double_double","outcomes":[
			{"name":"Yes","description":"Jayson Tatum","price":150}
		]}]}
	]}`, eventID)
}

func testHTTPClient(breakerMax int) *RateLimitedHTTPClient {
	return NewRateLimitedHTTPClient(HTTPClientConfig{
		Name:              "test",
		Timeout:           2 * time.Second,
		MaxRetries:        0,
		RateLimit:         0,
		CircuitBreakerMax: breakerMax,
	}, nil)
}

func newOddsServer(t *testing.T, failEvent string) (*httptest.Server, *int32) {
	t.Helper()
	var propCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v4/sports/basketball_nba/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("apiKey"))
		w.Header().Set("x-requests-remaining", "499")
		fmt.Fprint(w, eventsJSON)
	})
	mux.HandleFunc("/v4/sports/basketball_nba/events/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&propCalls, 1)
		assert.Equal(t, "american", r.URL.Query().Get("oddsFormat"))
		assert.Contains(t, r.URL.Query().Get("markets"), "player_points")
		var id string
		fmt.Sscanf(r.URL.Path, "/v4/sports/basketball_nba/events/%2s", &id)
		if id == failEvent {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, eventOddsJSON(id))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &propCalls
}

func TestOddsAPIClientEvents(t *testing.T) {
	server, _ := newOddsServer(t, "")
	client := NewOddsAPIClient(testHTTPClient(5), server.URL, "secret", "", nil)

	events, err := client.Events(context.Background(), "nba")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "e1", events[0].ID)
	assert.Equal(t, "Miami Heat", events[0].AwayTeam)
}

func TestOddsAPIClientEventProps(t *testing.T) {
	server, _ := newOddsServer(t, "")
	client := NewOddsAPIClient(testHTTPClient(5), server.URL, "secret", "us", nil)

	event := Event{ID: "e1", HomeTeam: "Boston Celtics", AwayTeam: "Miami Heat", CommenceTime: "2025-01-10T00:00:00Z"}
	quotes, err := client.EventProps(context.Background(), "nba", event, nil)
	require.NoError(t, err)

	// The yes/no double-double outcome is dropped
	require.Len(t, quotes, 2)
	assert.Equal(t, models.Quote{
		EventID:      "e1",
		CommenceTime: "2025-01-10T00:00:00Z",
		HomeTeam:     "Boston Celtics",
		AwayTeam:     "Miami Heat",
		PlayerName:   "Jayson Tatum",
		Market:       "player_points",
		Line:         27.5,
		Side:         models.SideOver,
		Book:         "fanduel",
		Odds:         -120,
	}, quotes[0])
	assert.Equal(t, models.SideUnder, quotes[1].Side)
	assert.Equal(t, 100, quotes[1].Odds)
}

func TestOddsAPIClientStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
		fatal  bool
	}{
		{"unauthorized", http.StatusUnauthorized, ErrCodeAuthenticationFailed, true},
		{"payment required", http.StatusPaymentRequired, ErrCodePlanLimit, true},
		{"too many requests", http.StatusTooManyRequests, ErrCodePlanLimit, true},
		{"not found", http.StatusNotFound, ErrCodeNotFound, false},
		{"bad request", http.StatusBadRequest, ErrCodeServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewOddsAPIClient(testHTTPClient(5), server.URL, "secret", "", nil)
			_, err := client.Events(context.Background(), "nba")
			require.Error(t, err)

			var se *SourceError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, tt.fatal, IsFatal(err))
		})
	}
}

func TestOddsAPIClientInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{not json")
	}))
	defer server.Close()

	client := NewOddsAPIClient(testHTTPClient(5), server.URL, "secret", "", nil)
	_, err := client.Events(context.Background(), "nba")
	assert.Equal(t, ErrCodeInvalidData, ErrorCode(err))
}

func TestOddsAPIClientRequiresKeyAndSport(t *testing.T) {
	client := NewOddsAPIClient(testHTTPClient(5), "http://127.0.0.1:1", "  ", "", nil)
	_, err := client.Events(context.Background(), "nba")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.True(t, IsFatal(err))

	client = NewOddsAPIClient(testHTTPClient(5), "http://127.0.0.1:1", "secret", "", nil)
	_, err = client.Events(context.Background(), "cricket")
	assert.Equal(t, ErrCodeUnsupportedSport, ErrorCode(err))
}

func TestOddsAPISourceSmartScope(t *testing.T) {
	server, propCalls := newOddsServer(t, "e2")
	client := NewOddsAPIClient(testHTTPClient(5), server.URL, "secret", "", nil)
	source := NewOddsAPISource(client, nil)

	quotes, err := source.FetchQuotes(context.Background(), QuoteRequest{
		Sport:    "nba",
		Scope:    ScopeSmart,
		MaxGames: 2,
		Trending: []TrendingPlayer{
			{Name: "LeBron James", Team: "LAL", Count: 900},
			{Name: "Nikola Jokic", Team: "DEN", Count: 400},
			{Name: "Nobody", Team: "", Count: 1},
		},
	})
	require.NoError(t, err)

	// e2 scores 2 and is fetched first but fails; e3 scores 1 and succeeds
	assert.Equal(t, int32(2), atomic.LoadInt32(propCalls))
	require.Len(t, quotes, 2)
	assert.Equal(t, "e3", quotes[0].EventID)
}

func TestOddsAPISourceSmartScopeNoTrendingTeams(t *testing.T) {
	server, propCalls := newOddsServer(t, "")
	client := NewOddsAPIClient(testHTTPClient(5), server.URL, "secret", "", nil)
	source := NewOddsAPISource(client, nil)

	quotes, err := source.FetchQuotes(context.Background(), QuoteRequest{
		Sport:    "nba",
		Scope:    ScopeSmart,
		MaxGames: 3,
		Trending: []TrendingPlayer{{Name: "X", Team: "ZZZ"}},
	})
	require.NoError(t, err)
	assert.Empty(t, quotes)
	assert.Zero(t, atomic.LoadInt32(propCalls))
}

func TestOddsAPISourceFullScope(t *testing.T) {
	server, propCalls := newOddsServer(t, "")
	client := NewOddsAPIClient(testHTTPClient(5), server.URL, "secret", "", nil)
	source := NewOddsAPISource(client, nil)

	quotes, err := source.FetchQuotes(context.Background(), QuoteRequest{Sport: "nba", Scope: ScopeFull, MaxGames: 2})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(propCalls))
	require.Len(t, quotes, 4)
	assert.Equal(t, "e1", quotes[0].EventID)
	assert.Equal(t, "e2", quotes[2].EventID)
}

func TestOddsAPISourceAbortsOnPlanLimit(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v4/sports/basketball_nba/events", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, eventsJSON)
	})
	mux.HandleFunc("/v4/sports/basketball_nba/events/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewOddsAPIClient(testHTTPClient(5), server.URL, "secret", "", nil)
	source := NewOddsAPISource(client, nil)

	_, err := source.FetchQuotes(context.Background(), QuoteRequest{Sport: "nba", Scope: ScopeFull, MaxGames: 3})
	require.Error(t, err)
	assert.Equal(t, ErrCodePlanLimit, ErrorCode(err))
}

func TestSleeperClientTrending(t *testing.T) {
	var metadataCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/players/nba/trending/add", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12", r.URL.Query().Get("lookback_hours"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `[{"player_id":"p1","count":900},{"player_id":"p9","count":5}]`)
	})
	mux.HandleFunc("/players/nba", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&metadataCalls, 1)
		fmt.Fprint(w, `{"p1":{"first_name":"LeBron","last_name":"James","team":"LAL","position":"SF"}}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewSleeperClient(testHTTPClient(5), server.URL, 12, nil)

	players, err := client.Trending(context.Background(), "NBA", 2)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, TrendingPlayer{PlayerID: "p1", Count: 900, Name: "LeBron James", Team: "LAL", Position: "SF"}, players[0])
	assert.Equal(t, "", players[1].Name)

	_, err = client.Trending(context.Background(), "nba", 2)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&metadataCalls))
}

func TestSleeperClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewSleeperClient(testHTTPClient(5), server.URL, 0, nil)
	_, err := client.Trending(context.Background(), "nfl", 10)
	assert.Equal(t, ErrCodeServerError, ErrorCode(err))
	assert.False(t, IsFatal(err))
}

func TestCircuitBreakerOpens(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	httpClient := testHTTPClient(2)
	var trips int32
	httpClient.OnCircuitTrip(func(source string, failures int) {
		assert.Equal(t, "test", source)
		assert.Equal(t, 2, failures)
		atomic.AddInt32(&trips, 1)
	})

	for i := 0; i < 2; i++ {
		resp, err := httpClient.Get(context.Background(), server.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.True(t, httpClient.IsOpen())

	_, err := httpClient.Get(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&trips))

	httpClient.Reset()
	assert.False(t, httpClient.IsOpen())
}

func TestFileQuoteSource(t *testing.T) {
	dir := t.TempDir()
	bare := filepath.Join(dir, "bare.json")
	wrapped := filepath.Join(dir, "wrapped.json")

	quotesJSON := `[
		{"event_id":"g1","player_name":"A","market":"player_points","line":20.5,"side":"over","book":"fanduel","odds":-115},
		{"event_id":"g2","player_name":"B","market":"player_points","line":10.5,"side":"under","book":"pinnacle","odds":105},
		{"event_id":"g1","player_name":"A","market":"player_points","line":20.5,"side":"under","book":"fanduel","odds":-105}
	]`
	require.NoError(t, os.WriteFile(bare, []byte(quotesJSON), 0o600))
	require.NoError(t, os.WriteFile(wrapped, []byte(`{"quotes":`+quotesJSON+`}`), 0o600))

	for _, path := range []string{bare, wrapped} {
		quotes, err := NewFileQuoteSource(path).FetchQuotes(context.Background(), QuoteRequest{})
		require.NoError(t, err)
		require.Len(t, quotes, 3)
		assert.Equal(t, models.SideUnder, quotes[1].Side)
	}

	quotes, err := NewFileQuoteSource(bare).FetchQuotes(context.Background(), QuoteRequest{MaxGames: 1})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "g1", quotes[1].EventID)

	_, err = NewFileQuoteSource(filepath.Join(dir, "missing.json")).FetchQuotes(context.Background(), QuoteRequest{})
	assert.Equal(t, ErrCodeNotFound, ErrorCode(err))
}

func TestTrendCounts(t *testing.T) {
	counts := TrendCounts([]TrendingPlayer{
		{Name: "LeBron James", Count: 10},
		{Name: " lebron james ", Count: 5},
		{Name: "", Count: 99},
	})
	assert.Equal(t, map[string]int{"lebron james": 15}, counts)
}

func TestTeamAndSportLookups(t *testing.T) {
	name, ok := TeamName("NBA", "lal")
	assert.True(t, ok)
	assert.Equal(t, "Los Angeles Lakers", name)

	_, ok = TeamName("soccer", "LAFC")
	assert.False(t, ok)

	key, ok := SportKey("mlb")
	assert.True(t, ok)
	assert.Equal(t, "baseball_mlb", key)
}

func TestSourceErrorUnwrap(t *testing.T) {
	inner := errors.New("dial tcp: refused")
	err := NewSourceError("odds_api", ErrCodeNetworkError, "request failed", inner)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "odds_api: network_error: request failed (dial tcp: refused)", err.Error())
}
