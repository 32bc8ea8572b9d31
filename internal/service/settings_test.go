package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/models"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	return cfg
}

func TestNewSettingsDefaults(t *testing.T) {
	st, err := NewSettings(defaultConfig(t))
	require.NoError(t, err)

	assert.Equal(t, 0.545, st.Evaluator.FixedProbability)
	assert.Equal(t, 0.03, st.Evaluator.EdgeThreshold)
	assert.Equal(t, 6.0, st.Registry.Weight("fanduel"))
	assert.Equal(t, []string{"prizepicks", "sleeper", "underdog"}, st.Payouts.Books())
	assert.Equal(t, 1, st.Consensus.MinBooks)
	assert.True(t, st.Consensus.MainLineOnly)
	assert.Equal(t, []int{3, 4, 5, 6}, st.Slips.Sizes)
	assert.Equal(t, 45*time.Second, st.CacheTTL(ScopeSmart))
	assert.Equal(t, 120*time.Second, st.CacheTTL(ScopeFull))
}

func TestNewSettingsOverrides(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Consensus.Weights = map[string]float64{"Pinnacle": 10}
	cfg.Consensus.Aliases = map[string]string{"pin": "pinnacle"}
	cfg.Payouts = map[string][]config.PayoutModeConfig{
		"PrizePicks": {
			{Mode: "power", Power: map[string]float64{"2": 3.5, "3": 6}},
		},
		"chalkboard": {
			{Mode: "flex", Flex: map[string]map[string]float64{"3": {"3": 2.5, "2": 1.2}}},
		},
	}
	cfg.Markets = map[string]map[string][]string{
		"sleeper": {"nba": {"player_points"}},
	}

	st, err := NewSettings(cfg)
	require.NoError(t, err)

	assert.Equal(t, 10.0, st.Registry.Weight("pinnacle"))
	assert.Equal(t, "pinnacle", st.Registry.Canonical("PIN"))
	assert.Equal(t, 4.0, st.Registry.Weight("bookmaker"))

	// Configured books replace the stock schedule; other stock books remain.
	assert.Equal(t, []string{"chalkboard", "prizepicks", "sleeper", "underdog"}, st.Payouts.Books())
	assert.Equal(t, 3.5, st.Payouts.Lookup("prizepicks", models.ModePower, 2).Multiplier)
	assert.Equal(t, models.ModePower, st.Payouts.ResolveMode("prizepicks", models.ModeFlex))
	assert.Equal(t, 2.5, st.Payouts.Lookup("chalkboard", models.ModeFlex, 3).Hits[3])

	allowed, known := st.Catalog.Permits("sleeper", "nba", "player_assists")
	assert.True(t, known)
	assert.False(t, allowed)
	allowed, _ = st.Catalog.Permits("prizepicks", "nba", "player_assists")
	assert.True(t, allowed)
	allowed, _ = st.Catalog.Permits("sleeper", "nfl", "player_pass_yds")
	assert.True(t, allowed)
}

func TestNewSettingsErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
	}{
		{"negative weight", func(cfg *config.Config) {
			cfg.Consensus.Weights = map[string]float64{"fanduel": -1}
		}},
		{"no positive weight", func(cfg *config.Config) {
			cfg.Consensus.Weights = map[string]float64{"bookmaker": 0, "pinnacle": 0, "fanduel": 0, "draftkings": 0}
		}},
		{"bad leg key", func(cfg *config.Config) {
			cfg.Payouts = map[string][]config.PayoutModeConfig{
				"prizepicks": {{Mode: "power", Power: map[string]float64{"two": 3}}},
			}
		}},
		{"bad hit key", func(cfg *config.Config) {
			cfg.Payouts = map[string][]config.PayoutModeConfig{
				"prizepicks": {{Mode: "flex", Flex: map[string]map[string]float64{"3": {"all": 2}}}},
			}
		}},
		{"fixed probability out of range", func(cfg *config.Config) {
			cfg.Scanner.FixedImpliedProb = 1.5
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tt.mutate(cfg)
			_, err := NewSettings(cfg)
			assert.Error(t, err)
		})
	}
}

func TestDefaultSettings(t *testing.T) {
	st := DefaultSettings()
	assert.Equal(t, "nba", st.Scanner.Sport)
	assert.Equal(t, "sleeper", st.Slips.Book)
	assert.Equal(t, 5, st.Slips.TopN)
	assert.NotNil(t, st.Optimizer)
	assert.NotNil(t, st.Aggregator)
}
