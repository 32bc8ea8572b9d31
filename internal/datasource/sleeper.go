package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const (
	sleeperSourceName = "sleeper"
	playerMetadataTTL = 24 * time.Hour
)

// SleeperClient reads trending players from the Sleeper API
type SleeperClient struct {
	httpClient    *RateLimitedHTTPClient
	baseURL       string
	lookbackHours int
	players       *cache.Cache
	logger        *logrus.Entry
}

type sleeperTrend struct {
	PlayerID string `json:"player_id"`
	Count    int    `json:"count"`
}

type sleeperPlayer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Team      string `json:"team"`
	Position  string `json:"position"`
}

// NewSleeperClient creates a Sleeper client. Player metadata is cached per sport for a day.
func NewSleeperClient(httpClient *RateLimitedHTTPClient, baseURL string, lookbackHours int, logger *logrus.Logger) *SleeperClient {
	if logger == nil {
		logger = logrus.New()
	}
	if lookbackHours <= 0 {
		lookbackHours = 24
	}
	return &SleeperClient{
		httpClient:    httpClient,
		baseURL:       strings.TrimRight(baseURL, "/"),
		lookbackHours: lookbackHours,
		players:       cache.New(playerMetadataTTL, time.Hour),
		logger:        logger.WithField("source", sleeperSourceName),
	}
}

// Name returns the name of the data source
func (c *SleeperClient) Name() string {
	return sleeperSourceName
}

// Trending returns the most-added players enriched with name and team
func (c *SleeperClient) Trending(ctx context.Context, sport string, limit int) ([]TrendingPlayer, error) {
	sport = toLowerTrim(sport)

	params := url.Values{}
	params.Set("lookback_hours", fmt.Sprint(c.lookbackHours))
	params.Set("limit", fmt.Sprint(limit))
	endpoint := fmt.Sprintf("%s/players/%s/trending/add?%s", c.baseURL, url.PathEscape(sport), params.Encode())

	var trends []sleeperTrend
	if err := c.getJSON(ctx, endpoint, &trends); err != nil {
		return nil, err
	}

	players, err := c.playerMetadata(ctx, sport)
	if err != nil {
		return nil, err
	}

	enriched := make([]TrendingPlayer, 0, len(trends))
	for _, t := range trends {
		p := players[t.PlayerID]
		enriched = append(enriched, TrendingPlayer{
			PlayerID: t.PlayerID,
			Count:    t.Count,
			Name:     strings.TrimSpace(p.FirstName + " " + p.LastName),
			Team:     p.Team,
			Position: p.Position,
		})
	}
	return enriched, nil
}

func (c *SleeperClient) playerMetadata(ctx context.Context, sport string) (map[string]sleeperPlayer, error) {
	if cached, found := c.players.Get(sport); found {
		if players, ok := cached.(map[string]sleeperPlayer); ok {
			return players, nil
		}
	}

	var players map[string]sleeperPlayer
	endpoint := fmt.Sprintf("%s/players/%s", c.baseURL, url.PathEscape(sport))
	if err := c.getJSON(ctx, endpoint, &players); err != nil {
		return nil, err
	}

	c.players.SetDefault(sport, players)
	c.logger.WithFields(logrus.Fields{"sport": sport, "players": len(players)}).Debug("Cached player metadata")
	return players, nil
}

func (c *SleeperClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return NewSourceError(sleeperSourceName, ErrCodeNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return NewSourceError(sleeperSourceName, ErrCodeNotFound, "resource not found", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return NewSourceError(sleeperSourceName, ErrCodeServerError, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewSourceError(sleeperSourceName, ErrCodeInvalidData, "failed to parse response", err)
	}
	return nil
}
