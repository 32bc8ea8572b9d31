package oddsmath

import (
	"fmt"
	"math"

	"github.com/yourusername/prop-edge/internal/models"
)

// Evaluator defaults
const (
	DefaultFixedProbability = 0.545 // roughly -119 per leg on a fixed-payout app
	DefaultEdgeThreshold    = 0.03
)

// edgeTolerance absorbs float error when an edge lands on the threshold
const edgeTolerance = 1e-9

// Evaluator prices a sharp line against a fixed-payout platform
type Evaluator struct {
	FixedProbability float64
	EdgeThreshold    float64
	AssumedVig       float64
}

// NewEvaluator creates an evaluator, rejecting probabilities outside (0,1) and a non-finite
// edge threshold
func NewEvaluator(fixedProbability, edgeThreshold, assumedVig float64) (*Evaluator, error) {
	if fixedProbability <= 0 || fixedProbability >= 1 {
		return nil, fmt.Errorf("%w: fixed probability %v", models.ErrInvalidProbability, fixedProbability)
	}
	if math.IsNaN(edgeThreshold) || math.IsInf(edgeThreshold, 0) {
		return nil, fmt.Errorf("%w: edge threshold must be finite, got %v", models.ErrConfiguration, edgeThreshold)
	}
	if assumedVig < 0 {
		return nil, fmt.Errorf("%w: assumed vig cannot be negative", models.ErrConfiguration)
	}
	return &Evaluator{
		FixedProbability: fixedProbability,
		EdgeThreshold:    edgeThreshold,
		AssumedVig:       assumedVig,
	}, nil
}

// DefaultEvaluator returns an evaluator with the stock thresholds
func DefaultEvaluator() *Evaluator {
	return &Evaluator{
		FixedProbability: DefaultFixedProbability,
		EdgeThreshold:    DefaultEdgeThreshold,
		AssumedVig:       DefaultAssumedVig,
	}
}

// Evaluate devigs sharpOdds and measures the edge over the fixed probability.
// An edge exactly equal to the threshold is a play.
func (e *Evaluator) Evaluate(sharpOdds int, opposing *int) (models.PropOpportunity, error) {
	d, err := Devig(sharpOdds, opposing, e.AssumedVig)
	if err != nil {
		return models.PropOpportunity{}, err
	}

	edge := d.Fair - e.FixedProbability
	return models.PropOpportunity{
		SharpOdds:           sharpOdds,
		OpposingOdds:        opposing,
		SharpProbability:    d.Implied,
		OpposingProbability: d.Opposing,
		FairProbability:     d.Fair,
		FixedProbability:    e.FixedProbability,
		VigPct:              d.VigPct,
		Edge:                edge,
		IsPlay:              edge >= e.EdgeThreshold-edgeTolerance,
	}, nil
}
