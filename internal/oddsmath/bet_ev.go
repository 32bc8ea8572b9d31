package oddsmath

import (
	"fmt"

	"github.com/yourusername/prop-edge/internal/models"
)

// BetInput describes a single straight bet to price
type BetInput struct {
	Odds         int
	Probability  float64
	Stake        float64
	OpposingOdds *int
	// Confidence in Probability; lower values pull the estimate toward the market fair price
	Confidence   float64
}

// BetEV is the expected value and Kelly sizing of a straight bet
type BetEV struct {
	EV                 float64  `json:"ev"`
	EVPercent          float64  `json:"ev_percent"`
	DecimalOdds        float64  `json:"decimal_odds"`
	ImpliedProbability float64  `json:"implied_probability"`
	Edge               float64  `json:"your_edge"`
	KellyFraction      float64  `json:"kelly_fraction"`
	KellyStake         float64  `json:"kelly_stake"`
	FairProbability    *float64 `json:"fair_prob"`
	VigPct             *float64 `json:"vig_pct"`
	OpposingImplied    *float64 `json:"opposing_implied"`
	UserProbability    float64  `json:"user_probability"`
	BlendedProbability float64  `json:"blended_probability"`
	ConfidenceWeight   float64  `json:"confidence_weight"`
	Devigged           bool     `json:"devigged"`
}

// CalculateBetEV prices a straight bet. When an opposing price is given the user probability
// is blended with the no-vig market probability by Confidence, and the Kelly fraction is
// scaled by 0.25 + 0.75*Confidence.
func CalculateBetEV(in BetInput) (BetEV, error) {
	if in.Stake <= 0 {
		return BetEV{}, fmt.Errorf("stake must be positive")
	}
	if in.Confidence < 0 || in.Confidence > 1 {
		return BetEV{}, fmt.Errorf("%w: confidence %v", models.ErrInvalidProbability, in.Confidence)
	}
	dec, err := DecimalOdds(in.Odds)
	if err != nil {
		return BetEV{}, err
	}

	implied := 1 / dec
	userProb := ClampProbability(in.Probability)
	trueProb := userProb

	out := BetEV{
		DecimalOdds:        models.Round(dec, 3),
		ImpliedProbability: models.Round(implied, 4),
		UserProbability:    models.Round(userProb, 4),
		ConfidenceWeight:   models.Round(in.Confidence, 4),
	}

	if in.OpposingOdds != nil {
		d, err := Devig(in.Odds, in.OpposingOdds, 0)
		if err != nil {
			return BetEV{}, err
		}
		fair := models.Round(d.Fair, 4)
		vig := models.Round(d.VigPct, 2)
		opp := models.Round(*d.Opposing, 4)
		out.FairProbability = &fair
		out.VigPct = &vig
		out.OpposingImplied = &opp
		out.Devigged = true
		trueProb = ClampProbability(in.Confidence*userProb + (1-in.Confidence)*d.Fair)
	}

	winProfit := in.Stake * (dec - 1)
	ev := trueProb*winProfit - (1-trueProb)*in.Stake

	b := dec - 1
	kelly := 0.0
	if b > 0 {
		kelly = (b*trueProb - (1 - trueProb)) / b
	}
	kelly *= 0.25 + 0.75*in.Confidence
	if kelly < 0 {
		kelly = 0
	}

	out.EV = models.Round(ev, 2)
	out.EVPercent = models.Round(ev/in.Stake*100, 2)
	out.Edge = models.Round(trueProb-implied, 4)
	out.KellyFraction = models.Round(kelly, 4)
	out.KellyStake = models.Round(in.Stake*kelly, 2)
	out.BlendedProbability = models.Round(trueProb, 4)
	return out, nil
}
