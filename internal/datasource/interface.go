package datasource

import (
	"context"

	"github.com/yourusername/prop-edge/internal/models"
)

// Scan scopes
const (
	ScopeSmart = "smart"
	ScopeFull  = "full"
)

// QuoteRequest selects which events a QuoteSource reads
type QuoteRequest struct {
	Sport    string
	Scope    string
	MaxGames int
	// Trending players steer event selection in smart scope
	Trending []TrendingPlayer
}

// QuoteSource produces sportsbook quotes for player props
type QuoteSource interface {
	// FetchQuotes retrieves flattened quotes for the requested events
	FetchQuotes(ctx context.Context, req QuoteRequest) ([]models.Quote, error)

	// Name returns the name of the data source
	Name() string
}

// TrendSource reports which players are being added on a fantasy platform
type TrendSource interface {
	Trending(ctx context.Context, sport string, limit int) ([]TrendingPlayer, error)
	Name() string
}

// TrendingPlayer is one trending player enriched with name and team
type TrendingPlayer struct {
	PlayerID string `json:"player_id"`
	Count    int    `json:"count"`
	Name     string `json:"name"`
	Team     string `json:"team"`
	Position string `json:"position,omitempty"`
}

// TrendCounts maps lowercased player names to their trend counts
func TrendCounts(players []TrendingPlayer) map[string]int {
	counts := make(map[string]int, len(players))
	for _, p := range players {
		if p.Name == "" {
			continue
		}
		key := toLowerTrim(p.Name)
		counts[key] += p.Count
	}
	return counts
}
