package models

// ConsensusRow is the trust-weighted blend of every book quoting one (player, market, line, side) cell
type ConsensusRow struct {
	PlayerName            string      `json:"player_name"`
	Market                string      `json:"market"`
	Line                  float64     `json:"line"`
	Side                  Side        `json:"side"`
	ConsensusProbability  float64     `json:"consensus_prob"`
	ConsensusOdds         int         `json:"consensus_odds"`
	OpposingConsensusOdds *int        `json:"opposing_consensus_odds"`
	BooksUsed             int         `json:"books_used"`
	TotalWeight           float64     `json:"total_weight"`
	WeightCoveragePct     float64     `json:"weight_coverage_pct"`
	MedianLine            float64     `json:"median_line"`
	BookOdds              []BookPrice `json:"book_odds"`
	EventID               string      `json:"event_id"`
	CommenceTime          string      `json:"commence_time,omitempty"`
	HomeTeam              string      `json:"home_team,omitempty"`
	AwayTeam              string      `json:"away_team,omitempty"`
}

// ConsensusProbPct returns the consensus probability as a percentage rounded to cents
func (r ConsensusRow) ConsensusProbPct() float64 {
	return Round(r.ConsensusProbability*100, 2)
}
