package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
)

const oddsAPISourceName = "odds_api"

// OddsAPIClient reads events and player prop odds from The Odds API v4
type OddsAPIClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	regions    string
	logger     *logrus.Entry
}

// Event is an upcoming game as listed by the odds API
type Event struct {
	ID           string `json:"id"`
	SportKey     string `json:"sport_key"`
	CommenceTime string `json:"commence_time"`
	HomeTeam     string `json:"home_team"`
	AwayTeam     string `json:"away_team"`
}

type eventOdds struct {
	ID         string          `json:"id"`
	Bookmakers []oddsBookmaker `json:"bookmakers"`
}

type oddsBookmaker struct {
	Key     string       `json:"key"`
	Markets []oddsMarket `json:"markets"`
}

type oddsMarket struct {
	Key      string        `json:"key"`
	Outcomes []oddsOutcome `json:"outcomes"`
}

type oddsOutcome struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Point       *float64 `json:"point"`
}

// NewOddsAPIClient creates a new odds API client
func NewOddsAPIClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey, regions string, logger *logrus.Logger) *OddsAPIClient {
	if logger == nil {
		logger = logrus.New()
	}
	if regions == "" {
		// us2 carries the DFS books
		regions = "us,us2"
	}
	return &OddsAPIClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		regions:    regions,
		logger:     logger.WithField("source", oddsAPISourceName),
	}
}

// Name returns the name of the data source
func (c *OddsAPIClient) Name() string {
	return oddsAPISourceName
}

// Events lists upcoming events for a sport
func (c *OddsAPIClient) Events(ctx context.Context, sport string) ([]Event, error) {
	sportKey, ok := SportKey(sport)
	if !ok {
		return nil, NewSourceError(oddsAPISourceName, ErrCodeUnsupportedSport, fmt.Sprintf("unsupported sport %q", sport), nil)
	}

	endpoint := fmt.Sprintf("%s/v4/sports/%s/events", c.baseURL, sportKey)
	var events []Event
	if err := c.getJSON(ctx, endpoint, url.Values{}, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// EventProps fetches player prop odds for one event and flattens them into quotes.
// A nil markets slice requests the default market list for the sport.
func (c *OddsAPIClient) EventProps(ctx context.Context, sport string, event Event, markets []string) ([]models.Quote, error) {
	sportKey, ok := SportKey(sport)
	if !ok {
		return nil, NewSourceError(oddsAPISourceName, ErrCodeUnsupportedSport, fmt.Sprintf("unsupported sport %q", sport), nil)
	}
	if markets == nil {
		markets = PropMarkets[toLowerTrim(sport)]
	}

	endpoint := fmt.Sprintf("%s/v4/sports/%s/events/%s/odds", c.baseURL, sportKey, url.PathEscape(event.ID))
	params := url.Values{}
	params.Set("regions", c.regions)
	params.Set("markets", strings.Join(markets, ","))
	params.Set("oddsFormat", "american")

	var odds eventOdds
	if err := c.getJSON(ctx, endpoint, params, &odds); err != nil {
		return nil, err
	}

	quotes := flattenEventOdds(event, odds)
	metrics.RecordQuotesFetched(oddsAPISourceName, len(quotes))
	return quotes, nil
}

func (c *OddsAPIClient) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}
	params.Set("apiKey", c.apiKey)

	resp, err := c.httpClient.Get(ctx, endpoint+"?"+params.Encode())
	if err != nil {
		return NewSourceError(oddsAPISourceName, ErrCodeNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	if remaining := resp.Header.Get("x-requests-remaining"); remaining != "" {
		if n, err := strconv.ParseFloat(remaining, 64); err == nil {
			metrics.UpdateOddsAPIRemaining(n)
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return NewSourceError(oddsAPISourceName, ErrCodeAuthenticationFailed, "odds provider rejected API credentials (401)", nil)
	case resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusTooManyRequests:
		return NewSourceError(oddsAPISourceName, ErrCodePlanLimit,
			fmt.Sprintf("odds provider quota or plan limit hit (%d)", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusNotFound:
		return NewSourceError(oddsAPISourceName, ErrCodeNotFound, "resource not found", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return NewSourceError(oddsAPISourceName, ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewSourceError(oddsAPISourceName, ErrCodeInvalidData, "failed to parse response", err)
	}
	return nil
}

// flattenEventOdds walks bookmakers, markets and outcomes into one quote per priced side.
// Outcomes that are not over or under (yes/no scorer markets) are dropped.
func flattenEventOdds(event Event, odds eventOdds) []models.Quote {
	var quotes []models.Quote
	for _, bm := range odds.Bookmakers {
		book := bm.Key
		if book == "" {
			book = "unknown"
		}
		for _, m := range bm.Markets {
			for _, o := range m.Outcomes {
				side, ok := models.ParseSide(o.Name)
				if !ok {
					continue
				}
				var line float64
				if o.Point != nil {
					line = *o.Point
				}
				player := strings.TrimSpace(o.Description)
				if player == "" {
					player = "Unknown"
				}
				quotes = append(quotes, models.Quote{
					EventID:      event.ID,
					CommenceTime: event.CommenceTime,
					HomeTeam:     event.HomeTeam,
					AwayTeam:     event.AwayTeam,
					PlayerName:   player,
					Market:       m.Key,
					Line:         line,
					Side:         side,
					Book:         book,
					Odds:         int(math.Round(o.Price)),
				})
			}
		}
	}
	return quotes
}
