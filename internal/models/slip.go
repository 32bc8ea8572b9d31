package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// Payout modes
const (
	ModePower    = "power"
	ModeFlex     = "flex"
	ModeStandard = "standard"
	ModeInsured  = "insured"
)

// SlipCandidate is a priced multi-leg combination
type SlipCandidate struct {
	Legs                 []Leg
	Book                 string
	Mode                 string
	WinProbability       float64
	PayoutMultiplier     float64
	ExpectedValue        float64
	CombinedEdge         float64
	BreakevenProbability float64
	AvgLegConfidence     float64
}

// SlipLeg is the display form of a slip leg
type SlipLeg struct {
	PlayerName string  `json:"player_name"`
	Market     string  `json:"market"`
	Line       float64 `json:"line"`
	Side       Side    `json:"side"`
	EdgePct    float64 `json:"edge_pct"`
}

// RankedSlip is the display form of a slip in an optimizer result
type RankedSlip struct {
	Rank              int       `json:"rank"`
	SlipSize          int       `json:"slip_size"`
	Book              string    `json:"book"`
	Mode              string    `json:"mode"`
	Players           []SlipLeg `json:"players"`
	CombinedEdgePct   float64   `json:"combined_edge_pct"`
	WinProbabilityPct float64   `json:"win_probability_pct"`
	PayoutMultiplier  float64   `json:"payout_multiplier"`
	ExpectedValuePct  float64   `json:"expected_value_pct"`
	AvgLegConfidence  float64   `json:"avg_leg_confidence"`
}

// Ranked converts the candidate to its display form
func (c SlipCandidate) Ranked(rank int) RankedSlip {
	players := make([]SlipLeg, 0, len(c.Legs))
	for _, l := range c.Legs {
		players = append(players, SlipLeg{
			PlayerName: l.PlayerName,
			Market:     l.Market,
			Line:       l.Line,
			Side:       l.Side,
			EdgePct:    l.EdgePct,
		})
	}
	return RankedSlip{
		Rank:              rank,
		SlipSize:          len(c.Legs),
		Book:              c.Book,
		Mode:              c.Mode,
		Players:           players,
		CombinedEdgePct:   Round(c.CombinedEdge, 2),
		WinProbabilityPct: Round(c.WinProbability*100, 2),
		PayoutMultiplier:  c.PayoutMultiplier,
		ExpectedValuePct:  Round(c.ExpectedValue*100, 2),
		AvgLegConfidence:  Round(c.AvgLegConfidence, 4),
	}
}

// Round rounds half away from zero to the given number of decimal places
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
