package markets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/prop-edge/internal/models"
)

func TestDefaultCatalogPermits(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		name    string
		book    string
		sport   string
		market  string
		allowed bool
		known   bool
	}{
		{"sleeper points", "sleeper", "nba", "player_points", true, true},
		{"sleeper case insensitive", "Sleeper", "NBA", "Player_Points", true, true},
		{"sleeper missing market", "sleeper", "nba", "player_first_basket", false, true},
		{"sleeper no walks", "sleeper", "mlb", "pitcher_walks", false, true},
		{"prizepicks walks", "prizepicks", "mlb", "pitcher_walks", true, true},
		{"underdog hits allowed", "underdog", "mlb", "pitcher_hits_allowed", true, true},
		{"unknown sport", "sleeper", "nhl", "player_points", true, false},
		{"unknown book", "betr", "nba", "anything", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, known := c.Permits(tt.book, tt.sport, tt.market)
			assert.Equal(t, tt.allowed, allowed)
			assert.Equal(t, tt.known, known)
		})
	}
}

func TestDefaultMarketsNotShared(t *testing.T) {
	m := DefaultMarkets()
	assert.Len(t, m["sleeper"]["mlb"], 9)
	assert.Len(t, m["prizepicks"]["mlb"], 11)
	assert.Len(t, m["sleeper"]["nba"], 14)
	assert.Len(t, m["sleeper"]["nfl"], 15)
}

func TestCatalogAccessors(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, []string{"prizepicks", "sleeper", "underdog"}, c.Books())
	assert.Equal(t, []string{"player_goal_scorer_anytime", "player_shots", "player_shots_on_target"}, c.Markets("sleeper", "soccer"))
	assert.Nil(t, c.Markets("sleeper", "cricket"))
}

func TestNewCatalogValidation(t *testing.T) {
	_, err := NewCatalog(map[string]map[string][]string{" ": {"nba": {"player_points"}}})
	assert.ErrorIs(t, err, models.ErrConfiguration)

	_, err = NewCatalog(map[string]map[string][]string{"sleeper": {"": {"player_points"}}})
	assert.ErrorIs(t, err, models.ErrConfiguration)

	c, err := NewCatalog(map[string]map[string][]string{"Betr": {"NBA": {" Player_Points ", ""}}})
	require.NoError(t, err)
	allowed, known := c.Permits("betr", "nba", "player_points")
	assert.True(t, allowed)
	assert.True(t, known)
	assert.Equal(t, []string{"player_points"}, c.Markets("betr", "nba"))
}
