package datasource

import "strings"

// Sport keys map short sport names onto odds API sport keys
var sportKeys = map[string]string{
	"nfl":    "americanfootball_nfl",
	"nba":    "basketball_nba",
	"mlb":    "baseball_mlb",
	"soccer": "soccer_usa_mls",
}

// PropMarkets lists the player prop markets requested per sport
var PropMarkets = map[string][]string{
	"nfl": {
		"player_pass_yds", "player_pass_tds", "player_pass_completions",
		"player_pass_attempts", "player_pass_interceptions",
		"player_rush_yds", "player_rush_attempts", "player_rush_tds",
		"player_receptions", "player_reception_yds", "player_reception_tds",
		"player_rush_reception_yds", "player_rush_reception_tds",
		"player_anytime_td", "player_kicking_points",
	},
	"nba": {
		"player_points", "player_rebounds", "player_assists",
		"player_threes", "player_blocks", "player_steals", "player_turnovers",
		"player_points_rebounds_assists", "player_points_rebounds",
		"player_points_assists", "player_rebounds_assists",
		"player_blocks_steals", "player_double_double", "player_triple_double",
	},
	"mlb": {
		"pitcher_strikeouts", "pitcher_hits_allowed", "pitcher_walks", "pitcher_outs",
		"batter_hits", "batter_total_bases", "batter_rbis", "batter_runs_scored",
		"batter_walks", "batter_strikeouts", "batter_stolen_bases", "batter_home_runs",
	},
	"soccer": {
		"player_shots", "player_shots_on_target", "player_goal_scorer_anytime",
	},
}

// SportKey returns the odds API sport key for a short sport name
func SportKey(sport string) (string, bool) {
	key, ok := sportKeys[toLowerTrim(sport)]
	return key, ok
}

// Team abbreviation maps: fantasy platform abbreviation to odds API team name
var teamNames = map[string]map[string]string{
	"nfl": {
		"ARI": "Arizona Cardinals", "ATL": "Atlanta Falcons", "BAL": "Baltimore Ravens",
		"BUF": "Buffalo Bills", "CAR": "Carolina Panthers", "CHI": "Chicago Bears",
		"CIN": "Cincinnati Bengals", "CLE": "Cleveland Browns", "DAL": "Dallas Cowboys",
		"DEN": "Denver Broncos", "DET": "Detroit Lions", "GB": "Green Bay Packers",
		"HOU": "Houston Texans", "IND": "Indianapolis Colts", "JAX": "Jacksonville Jaguars",
		"KC": "Kansas City Chiefs", "LAC": "Los Angeles Chargers", "LAR": "Los Angeles Rams",
		"LV": "Las Vegas Raiders", "MIA": "Miami Dolphins", "MIN": "Minnesota Vikings",
		"NE": "New England Patriots", "NO": "New Orleans Saints", "NYG": "New York Giants",
		"NYJ": "New York Jets", "PHI": "Philadelphia Eagles", "PIT": "Pittsburgh Steelers",
		"SEA": "Seattle Seahawks", "SF": "San Francisco 49ers", "TB": "Tampa Bay Buccaneers",
		"TEN": "Tennessee Titans", "WAS": "Washington Commanders",
	},
	"nba": {
		"ATL": "Atlanta Hawks", "BOS": "Boston Celtics", "BKN": "Brooklyn Nets",
		"CHA": "Charlotte Hornets", "CHI": "Chicago Bulls", "CLE": "Cleveland Cavaliers",
		"DAL": "Dallas Mavericks", "DEN": "Denver Nuggets", "DET": "Detroit Pistons",
		"GSW": "Golden State Warriors", "HOU": "Houston Rockets", "IND": "Indiana Pacers",
		"LAC": "Los Angeles Clippers", "LAL": "Los Angeles Lakers", "MEM": "Memphis Grizzlies",
		"MIA": "Miami Heat", "MIL": "Milwaukee Bucks", "MIN": "Minnesota Timberwolves",
		"NOP": "New Orleans Pelicans", "NYK": "New York Knicks", "OKC": "Oklahoma City Thunder",
		"ORL": "Orlando Magic", "PHI": "Philadelphia 76ers", "PHX": "Phoenix Suns",
		"POR": "Portland Trail Blazers", "SAC": "Sacramento Kings", "SAS": "San Antonio Spurs",
		"TOR": "Toronto Raptors", "UTA": "Utah Jazz", "WAS": "Washington Wizards",
	},
	"mlb": {
		"ARI": "Arizona Diamondbacks", "ATL": "Atlanta Braves", "BAL": "Baltimore Orioles",
		"BOS": "Boston Red Sox", "CHC": "Chicago Cubs", "CHW": "Chicago White Sox",
		"CIN": "Cincinnati Reds", "CLE": "Cleveland Guardians", "COL": "Colorado Rockies",
		"DET": "Detroit Tigers", "HOU": "Houston Astros", "KC": "Kansas City Royals",
		"LAA": "Los Angeles Angels", "LAD": "Los Angeles Dodgers", "MIA": "Miami Marlins",
		"MIL": "Milwaukee Brewers", "MIN": "Minnesota Twins", "NYM": "New York Mets",
		"NYY": "New York Yankees", "OAK": "Oakland Athletics", "PHI": "Philadelphia Phillies",
		"PIT": "Pittsburgh Pirates", "SD": "San Diego Padres", "SF": "San Francisco Giants",
		"SEA": "Seattle Mariners", "STL": "St. Louis Cardinals", "TB": "Tampa Bay Rays",
		"TEX": "Texas Rangers", "TOR": "Toronto Blue Jays", "WAS": "Washington Nationals",
	},
	// Sleeper does not publish stable MLS abbreviations
	"soccer": {},
}

// TeamName resolves a team abbreviation for a sport
func TeamName(sport, abbrev string) (string, bool) {
	name, ok := teamNames[toLowerTrim(sport)][strings.ToUpper(strings.TrimSpace(abbrev))]
	return name, ok
}

func toLowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
