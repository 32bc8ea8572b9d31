package oddsmath

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/yourusername/prop-edge/internal/models"
)

// Middle defaults
const (
	DefaultMiddleOdds       = -110
	DefaultMarketConfidence = 0.7

	// MiddleGap is the smallest line gap reported as a middle; StrongMiddleGap marks a strong one
	MiddleGap       = 2.0
	StrongMiddleGap = 3.0
)

// Middle directions
const (
	MiddleOverDFS  = "over_dfs"
	MiddleUnderDFS = "under_dfs"
)

// MiddleInput pairs a fixed pick'em line with a sportsbook line on the same prop.
// LineStdDev overrides the per-stat spread when positive. MarketConfidence in [0,1] weights the
// sharp line over the pick'em line as the outcome mean.
type MiddleInput struct {
	PlayerName       string
	Stat             string
	DFSLine          float64
	SharpLine        float64
	DFSOdds          int
	SharpOdds        int
	LineStdDev       float64
	MarketConfidence float64
	DFSPlatform      string
	SharpBook        string
}

// Middle is a priced middle between two lines. EV is in units with one unit staked on each side.
type Middle struct {
	PlayerName           string  `json:"player_name"`
	Stat                 string  `json:"stat"`
	DFSLine              float64 `json:"dfs_line"`
	SharpLine            float64 `json:"sharp_line"`
	Gap                  float64 `json:"gap"`
	Direction            string  `json:"direction"`
	IsMiddle             bool    `json:"is_middle"`
	Strength             string  `json:"strength"`
	Action               string  `json:"action"`
	DFSPlatform          string  `json:"dfs_platform"`
	SharpBook            string  `json:"sharp_book"`
	Probability          float64 `json:"middle_probability_estimate"`
	EVUnits              float64 `json:"middle_ev_units"`
	BreakevenProbability float64 `json:"breakeven_middle_probability"`
	StdDev               float64 `json:"assumed_std_dev"`
	Mean                 float64 `json:"assumed_mean"`
	ConfidenceWeight     float64 `json:"confidence_weight"`
}

// statStdDev is the outcome spread assumed for a stat family when none is given
func statStdDev(stat string) float64 {
	s := strings.ToLower(stat)
	switch {
	case strings.Contains(s, "point"):
		return 7.5
	case strings.Contains(s, "yard"):
		return 18.0
	case strings.Contains(s, "assist"):
		return 3.5
	case strings.Contains(s, "rebound"):
		return 4.0
	default:
		return 6.0
	}
}

func normCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}

// FindMiddle checks whether the gap between a pick'em line and a sportsbook line is wide enough
// to win both sides, and prices the middle. The outcome is modelled as normal around a mean
// blended from both lines; lower market confidence widens the spread by up to 25%.
func FindMiddle(in MiddleInput) (Middle, error) {
	if !finite(in.DFSLine) || !finite(in.SharpLine) {
		return Middle{}, fmt.Errorf("%w: lines must be finite", models.ErrInvalidLine)
	}
	if math.IsNaN(in.MarketConfidence) || in.MarketConfidence < 0 || in.MarketConfidence > 1 {
		return Middle{}, fmt.Errorf("%w: market confidence %v", models.ErrInvalidProbability, in.MarketConfidence)
	}
	dfsDec, err := DecimalOdds(in.DFSOdds)
	if err != nil {
		return Middle{}, err
	}
	sharpDec, err := DecimalOdds(in.SharpOdds)
	if err != nil {
		return Middle{}, err
	}

	gap := math.Abs(in.SharpLine - in.DFSLine)
	out := Middle{
		PlayerName:       in.PlayerName,
		Stat:             in.Stat,
		DFSLine:          in.DFSLine,
		SharpLine:        in.SharpLine,
		Gap:              models.Round(gap, 1),
		Direction:        MiddleUnderDFS,
		IsMiddle:         gap >= MiddleGap,
		Strength:         "weak",
		DFSPlatform:      in.DFSPlatform,
		SharpBook:        in.SharpBook,
		ConfidenceWeight: models.Round(in.MarketConfidence, 4),
	}
	if in.SharpLine > in.DFSLine {
		out.Direction = MiddleOverDFS
	}
	switch {
	case gap >= StrongMiddleGap:
		out.Strength = "strong"
	case gap >= MiddleGap:
		out.Strength = "moderate"
	}
	out.Action = middleAction(in, out)

	sigma := in.LineStdDev
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		sigma = statStdDev(in.Stat)
	}
	conf := in.MarketConfidence
	mu := conf*in.SharpLine + (1-conf)*in.DFSLine
	sigma *= 1 + (1-conf)*0.25

	lo, hi := math.Min(in.DFSLine, in.SharpLine), math.Max(in.DFSLine, in.SharpLine)
	// whole-number lines can push, so the middle covers the half point either side
	if isWhole(lo) && isWhole(hi) {
		lo, hi = lo-0.5, hi+0.5
	}
	p := normCDF((hi-mu)/sigma) - normCDF((lo-mu)/sigma)
	p = math.Max(0, math.Min(1, p))

	dfsProfit, sharpProfit := dfsDec-1, sharpDec-1
	middleProfit := dfsProfit + sharpProfit
	// outside the middle one side wins and the other loses
	oneSide := (dfsProfit - 1 + sharpProfit - 1) / 2
	ev := p*middleProfit + (1-p)*oneSide

	breakeven := 1.0
	if middleProfit != oneSide {
		breakeven = -oneSide / (middleProfit - oneSide)
	}

	out.Probability = models.Round(p, 4)
	out.EVUnits = models.Round(ev, 4)
	out.BreakevenProbability = models.Round(math.Max(0, math.Min(1, breakeven)), 4)
	out.StdDev = models.Round(sigma, 2)
	out.Mean = models.Round(mu, 4)
	return out, nil
}

func middleAction(in MiddleInput, m Middle) string {
	if !m.IsMiddle {
		return "Gap too small for a profitable middle. Monitor for line movement."
	}
	dfs, sharp := formatLine(in.DFSLine), formatLine(in.SharpLine)
	if m.Direction == MiddleOverDFS {
		return fmt.Sprintf("Bet OVER %s on %s, UNDER %s on %s. Win both if the result lands between %s and %s.",
			dfs, in.DFSPlatform, sharp, in.SharpBook, dfs, sharp)
	}
	return fmt.Sprintf("Bet UNDER %s on %s, OVER %s on %s. Win both if the result lands between %s and %s.",
		dfs, in.DFSPlatform, sharp, in.SharpBook, sharp, dfs)
}

func formatLine(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func isWhole(v float64) bool {
	return math.Abs(v-math.Round(v)) < 1e-9
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
