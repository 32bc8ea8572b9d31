package slip

import (
	"math"
	"strings"

	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/oddsmath"
	"github.com/yourusername/prop-edge/internal/payout"
)

// DefaultSharpOdds prices legs that carry no sharp odds
const DefaultSharpOdds = -110

// Confidence bounds and weights
const (
	minConfidence       = 0.2
	maxConfidence       = 0.95
	baseTwoWay          = 0.55
	baseOneSided        = 0.40
	maxEdgeConfidence   = 0.35
	edgeConfidenceScale = 1.75
)

// Confidence is the weight given to a leg's market probability: higher with an opposing price
// and a larger edge.
func Confidence(leg models.Leg) float64 {
	base := baseOneSided
	if leg.OpposingOdds != nil {
		base = baseTwoWay
	}
	edgeFactor := math.Min(maxEdgeConfidence, math.Abs(leg.EdgePct)/100*edgeConfidenceScale)
	return math.Max(minConfidence, math.Min(maxConfidence, base+edgeFactor))
}

// AdjustedProbability shrinks p toward 0.5 by confidence
func AdjustedProbability(p, confidence float64) float64 {
	return 0.5 + (p-0.5)*confidence
}

// LegProbability is the no-vig probability of the leg's sharp price, or its raw implied
// probability when there is no usable opposing price.
func LegProbability(leg models.Leg) float64 {
	sharp := leg.SharpOdds
	if sharp == 0 {
		sharp = DefaultSharpOdds
	}
	if p, err := oddsmath.NoVigProbability(sharp, leg.OpposingOdds); err == nil {
		return p
	}
	p, err := oddsmath.ImpliedProbability(sharp)
	if err != nil {
		return 0.5
	}
	return p
}

type identity struct {
	player string
	market string
	side   string
	line   float64
}

func identityOf(leg models.Leg) identity {
	return identity{
		player: playerKey(leg.PlayerName),
		market: strings.ToLower(strings.TrimSpace(leg.Market)),
		side:   strings.ToLower(strings.TrimSpace(string(leg.Side))),
		line:   leg.Line,
	}
}

func (id identity) less(o identity) bool {
	if id.player != o.player {
		return id.player < o.player
	}
	if id.market != o.market {
		return id.market < o.market
	}
	if id.side != o.side {
		return id.side < o.side
	}
	return id.line < o.line
}

func playerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// pricedLeg caches per-leg values used while enumerating
type pricedLeg struct {
	leg        models.Leg
	id         identity
	player     string
	prob       float64
	confidence float64
}

func priceLeg(leg models.Leg) pricedLeg {
	conf := Confidence(leg)
	return pricedLeg{
		leg:        leg,
		id:         identityOf(leg),
		player:     playerKey(leg.PlayerName),
		prob:       AdjustedProbability(LegProbability(leg), conf),
		confidence: conf,
	}
}

// outcome is the priced result of one set of leg probabilities
type outcome struct {
	win       float64
	ev        float64
	display   float64
	breakeven float64
}

// evaluate prices independent legs under pay. Flex schedules use a binomial over the mean leg
// probability.
func evaluate(probs []float64, pay payout.Payout) outcome {
	win := 1.0
	for _, p := range probs {
		win *= p
	}

	var out outcome
	out.win = win
	if pay.IsFlex() {
		n := len(probs)
		mean := 0.5
		if n > 0 {
			sum := 0.0
			for _, p := range probs {
				sum += p
			}
			mean = sum / float64(n)
		}
		ev := -1.0
		for k := 0; k <= n; k++ {
			m := pay.Hits[k]
			if m == 0 {
				continue
			}
			ev += binomial(n, k) * math.Pow(mean, float64(k)) * math.Pow(1-mean, float64(n-k)) * m
		}
		out.ev = ev
		out.display = pay.Display(n)
	} else {
		out.ev = win*pay.Multiplier - 1
		out.display = pay.Multiplier
	}

	out.breakeven = 1.0
	if out.display > 0 {
		out.breakeven = 1 / out.display
	}
	return out
}

func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	c := 1.0
	for i := 1; i <= k; i++ {
		c = c * float64(n-k+i) / float64(i)
	}
	return math.Round(c)
}

// hasDuplicatePlayer reports whether two legs of combo share a player
func hasDuplicatePlayer(pool []pricedLeg, combo []int) bool {
	for i := 1; i < len(combo); i++ {
		for j := 0; j < i; j++ {
			if pool[combo[i]].player == pool[combo[j]].player {
				return true
			}
		}
	}
	return false
}

// candidate builds the full slip for a combination
func candidate(pool []pricedLeg, combo []int, book, mode string, pay payout.Payout) models.SlipCandidate {
	probs := make([]float64, len(combo))
	legs := make([]models.Leg, len(combo))
	confSum := 0.0
	for i, ix := range combo {
		probs[i] = pool[ix].prob
		legs[i] = pool[ix].leg
		confSum += pool[ix].confidence
	}
	o := evaluate(probs, pay)

	avg := 0.0
	if len(combo) > 0 {
		avg = confSum / float64(len(combo))
	}
	return models.SlipCandidate{
		Legs:                 legs,
		Book:                 book,
		Mode:                 mode,
		WinProbability:       o.win,
		PayoutMultiplier:     o.display,
		ExpectedValue:        o.ev,
		CombinedEdge:         (o.win - o.breakeven) * 100,
		BreakevenProbability: o.breakeven,
		AvgLegConfidence:     avg,
	}
}
