package models

// PropOpportunity is the edge of one sharp price against a fixed-payout platform
type PropOpportunity struct {
	SharpOdds           int      `json:"sharp_odds"`
	OpposingOdds        *int     `json:"opposing_odds,omitempty"`
	SharpProbability    float64  `json:"sharp_implied_prob"`
	OpposingProbability *float64 `json:"opposing_implied_prob,omitempty"`
	FairProbability     float64  `json:"fair_prob"`
	FixedProbability    float64  `json:"fixed_implied_prob"`
	VigPct              float64  `json:"vig_pct"`
	Edge                float64  `json:"edge"`
	IsPlay              bool     `json:"is_play"`
}

// EdgePct returns the edge in percentage points
func (o PropOpportunity) EdgePct() float64 {
	return o.Edge * 100
}

// Leg is an edge-evaluated pick that can be placed on a slip
type Leg struct {
	PlayerName        string          `json:"player_name"`
	Market            string          `json:"market"`
	Line              float64         `json:"line"`
	Side              Side            `json:"side"`
	SharpOdds         int             `json:"sharp_odds"`
	OpposingOdds      *int            `json:"opposing_odds"`
	EdgePct           float64         `json:"edge_pct"`
	BooksUsed         int             `json:"books_used"`
	WeightCoveragePct float64         `json:"weight_coverage_pct"`
	BookOdds          []BookPrice     `json:"book_odds"`
	Availability      map[string]bool `json:"availability,omitempty"`
}

// Opportunity is one scanned prop row: a leg plus the pricing detail behind it
type Opportunity struct {
	Leg
	EventID                string   `json:"event_id"`
	CommenceTime           string   `json:"commence_time,omitempty"`
	HomeTeam               string   `json:"home_team,omitempty"`
	AwayTeam               string   `json:"away_team,omitempty"`
	SharpBook              string   `json:"sharp_book"`
	IsPlay                 bool     `json:"is_play"`
	IsCalculated           bool     `json:"is_calculated"`
	CalcReason             string   `json:"calc_reason,omitempty"`
	IsTrending             bool     `json:"is_trending"`
	SharpImpliedProbPct    float64  `json:"sharp_implied_prob"`
	OpposingImpliedProbPct *float64 `json:"opposing_implied_prob,omitempty"`
	FairProbPct            *float64 `json:"fair_prob,omitempty"`
	FixedImpliedProbPct    float64  `json:"fixed_implied_prob"`
	VigPct                 *float64 `json:"vig_pct,omitempty"`
	ConsensusProbPct       *float64 `json:"consensus_prob_pct,omitempty"`
	AvailableBooks         []string `json:"available_books"`
	EligibleForSlip        bool     `json:"eligible_for_slip"`
}

// Legs extracts the slip legs from a list of opportunities
func Legs(opps []Opportunity) []Leg {
	legs := make([]Leg, 0, len(opps))
	for _, o := range opps {
		legs = append(legs, o.Leg)
	}
	return legs
}
