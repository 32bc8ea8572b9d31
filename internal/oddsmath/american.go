// Package oddsmath converts American prices to probabilities and removes bookmaker margin.
package oddsmath

import (
	"fmt"
	"math"

	"github.com/yourusername/prop-edge/internal/models"
)

// probabilityEpsilon keeps the inverse conversion finite at the edges of (0,1)
const probabilityEpsilon = 1e-6

// ImpliedProbability converts American odds to the implied win probability.
//
//	-110 -> 0.5238
//	+150 -> 0.4000
func ImpliedProbability(odds int) (float64, error) {
	if odds == 0 {
		return 0, fmt.Errorf("%w: odds cannot be zero", models.ErrInvalidOdds)
	}
	if odds < 0 {
		a := float64(-odds)
		return a / (a + 100), nil
	}
	return 100 / (float64(odds) + 100), nil
}

// AmericanFromProbability converts a probability back to American odds, rounded to the nearest integer.
func AmericanFromProbability(p float64) int {
	p = ClampProbability(p)
	if p >= 0.5 {
		return int(math.Round(-100 * p / (1 - p)))
	}
	return int(math.Round(100/p - 100))
}

// DecimalOdds converts American odds to decimal (European) odds
func DecimalOdds(odds int) (float64, error) {
	if odds == 0 {
		return 0, fmt.Errorf("%w: odds cannot be zero", models.ErrInvalidOdds)
	}
	if odds > 0 {
		return float64(odds)/100 + 1, nil
	}
	return 100/math.Abs(float64(odds)) + 1, nil
}

// ClampProbability keeps p inside [1e-6, 1-1e-6]; NaN maps to the lower bound
func ClampProbability(p float64) float64 {
	if math.IsNaN(p) {
		return probabilityEpsilon
	}
	return math.Max(probabilityEpsilon, math.Min(1-probabilityEpsilon, p))
}
