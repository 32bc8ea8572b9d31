package oddsmath

import "math"

// DefaultAssumedVig is the margin removed from a one-sided price
const DefaultAssumedVig = 0.05

// DevigResult is the fair probability of one price after margin removal
type DevigResult struct {
	Implied  float64
	Opposing *float64
	Fair     float64
	VigPct   float64
}

// Devig removes the bookmaker margin from main.
//
// With an opposing price both sides are normalised to sum to one (multiplicative method).
// Without one the implied probability is shrunk by assumedVig, so a vig-inclusive price is
// never compared directly against a fixed payout.
func Devig(main int, opposing *int, assumedVig float64) (DevigResult, error) {
	pm, err := ImpliedProbability(main)
	if err != nil {
		return DevigResult{}, err
	}

	if opposing != nil {
		po, err := ImpliedProbability(*opposing)
		if err != nil {
			return DevigResult{}, err
		}
		total := pm + po
		return DevigResult{
			Implied:  pm,
			Opposing: &po,
			Fair:     pm / total,
			VigPct:   (total - 1) * 100,
		}, nil
	}

	return DevigResult{
		Implied: pm,
		Fair:    pm / (1 + math.Max(0, assumedVig)),
		VigPct:  assumedVig * 100,
	}, nil
}

// NoVigProbability is the two-way fair probability, or the raw implied probability when
// there is no opposing price.
func NoVigProbability(main int, opposing *int) (float64, error) {
	pm, err := ImpliedProbability(main)
	if err != nil {
		return 0, err
	}
	if opposing == nil {
		return pm, nil
	}
	po, err := ImpliedProbability(*opposing)
	if err != nil {
		return 0, err
	}
	return pm / (pm + po), nil
}
