// Package markets lists which prop markets each pick'em platform offers per sport.
package markets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yourusername/prop-edge/internal/models"
)

var sleeperNBA = []string{
	"player_points", "player_rebounds", "player_assists",
	"player_threes", "player_blocks", "player_steals",
	"player_turnovers", "player_points_rebounds_assists",
	"player_points_rebounds", "player_points_assists",
	"player_rebounds_assists", "player_double_double",
	"player_blocks_steals", "player_triple_double",
}

var sleeperNFL = []string{
	"player_pass_yds", "player_pass_tds", "player_pass_completions",
	"player_pass_attempts", "player_pass_interceptions",
	"player_rush_yds", "player_rush_attempts", "player_rush_tds",
	"player_receptions", "player_reception_yds", "player_reception_tds",
	"player_rush_reception_yds", "player_rush_reception_tds",
	"player_anytime_td", "player_kicking_points",
}

var sleeperMLB = []string{
	"pitcher_strikeouts", "pitcher_outs", "batter_hits",
	"batter_total_bases", "batter_rbis", "batter_runs_scored",
	"batter_walks", "batter_stolen_bases", "batter_home_runs",
}

var sleeperSoccer = []string{"player_shots", "player_shots_on_target", "player_goal_scorer_anytime"}

// DefaultMarkets returns the stock book -> sport -> markets whitelist
func DefaultMarkets() map[string]map[string][]string {
	sleeper := map[string][]string{
		"nba":    sleeperNBA,
		"nfl":    sleeperNFL,
		"mlb":    sleeperMLB,
		"soccer": sleeperSoccer,
	}
	pickem := map[string][]string{
		"nba":    sleeperNBA,
		"nfl":    sleeperNFL,
		"mlb":    append(append([]string(nil), sleeperMLB...), "pitcher_hits_allowed", "pitcher_walks"),
		"soccer": sleeperSoccer,
	}
	return map[string]map[string][]string{
		"sleeper":    sleeper,
		"prizepicks": pickem,
		"underdog":   pickem,
	}
}

// Catalog is an immutable book -> sport -> market set
type Catalog struct {
	books map[string]map[string]map[string]struct{}
}

// NewCatalog builds a catalog. Book, sport and market keys are lowercased and trimmed.
func NewCatalog(raw map[string]map[string][]string) (*Catalog, error) {
	c := &Catalog{books: make(map[string]map[string]map[string]struct{}, len(raw))}
	for book, sports := range raw {
		bk := normalize(book)
		if bk == "" {
			return nil, fmt.Errorf("%w: market catalog has an empty book name", models.ErrConfiguration)
		}
		if c.books[bk] == nil {
			c.books[bk] = make(map[string]map[string]struct{}, len(sports))
		}
		for sport, list := range sports {
			sk := normalize(sport)
			if sk == "" {
				return nil, fmt.Errorf("%w: book %q has an empty sport name", models.ErrConfiguration, book)
			}
			set := c.books[bk][sk]
			if set == nil {
				set = make(map[string]struct{}, len(list))
				c.books[bk][sk] = set
			}
			for _, m := range list {
				if mk := normalize(m); mk != "" {
					set[mk] = struct{}{}
				}
			}
		}
	}
	return c, nil
}

// DefaultCatalog returns the stock catalog
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultMarkets())
	if err != nil {
		panic(err)
	}
	return c
}

// Permits reports whether book offers market for sport. known is false when the catalog has no
// entry for (book, sport), in which case allowed is always true.
func (c *Catalog) Permits(book, sport, market string) (allowed, known bool) {
	set, ok := c.books[normalize(book)][normalize(sport)]
	if !ok {
		return true, false
	}
	_, allowed = set[normalize(market)]
	return allowed, true
}

// Markets returns the sorted markets of (book, sport), or nil when unknown
func (c *Catalog) Markets(book, sport string) []string {
	set, ok := c.books[normalize(book)][normalize(sport)]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Books returns the catalogued books, sorted
func (c *Catalog) Books() []string {
	out := make([]string, 0, len(c.books))
	for b := range c.books {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
