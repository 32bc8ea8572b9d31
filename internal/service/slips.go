package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/slip"
)

// SlipRequest asks for the best slips over a set of legs. When Legs is empty the slip-eligible
// rows of the latest scan are used.
type SlipRequest struct {
	Legs    []models.Leg `json:"legs"`
	Book    string       `json:"book"`
	Mode    string       `json:"mode"`
	Sport   string       `json:"sport"`
	Sizes   []int        `json:"sizes"`
	MinEdge *float64     `json:"min_edge,omitempty"`
	TopN    int          `json:"top_n"`
}

// SlipResult is the ranked output of a slip build
type SlipResult struct {
	Book         string              `json:"book"`
	Mode         string              `json:"mode"`
	Slips        []models.RankedSlip `json:"slips"`
	Eligible     int                 `json:"eligible_legs"`
	PoolSize     int                 `json:"pool_size"`
	Evaluated    int64               `json:"combinations_evaluated"`
	FallbackUsed bool                `json:"fallback_used"`
}

// PriceRequest is a hand-built slip to price
type PriceRequest struct {
	Legs  []models.Leg `json:"legs"`
	Book  string       `json:"book"`
	Mode  string       `json:"mode"`
	Sport string       `json:"sport"`
}

// PricedSlip is a priced hand-built slip
type PricedSlip struct {
	models.RankedSlip
	BreakevenPct float64 `json:"breakeven_pct"`
}

// BuildSlips runs the optimizer with the settings defaults filling unset request fields
func (s *ScanService) BuildSlips(ctx context.Context, req SlipRequest) (*SlipResult, error) {
	st := s.Settings()

	legs := req.Legs
	sport := req.Sport
	if len(legs) == 0 {
		latest := s.Latest()
		if latest == nil {
			return nil, ErrNoScan
		}
		for _, o := range latest.Opportunities {
			if o.EligibleForSlip {
				legs = append(legs, o.Leg)
			}
		}
		if sport == "" {
			sport = latest.Sport
		}
	}
	if sport == "" {
		sport = st.Scanner.Sport
	}

	for _, n := range req.Sizes {
		if n < 2 || n > slip.MaxSlipSize {
			return nil, fmt.Errorf("%w: slip size %d is outside 2-%d", ErrInvalidRequest, n, slip.MaxSlipSize)
		}
	}

	book := firstNonEmpty(req.Book, st.Slips.Book)
	mode := firstNonEmpty(req.Mode, st.Slips.Mode)
	sizes := req.Sizes
	if len(sizes) == 0 {
		sizes = st.Slips.Sizes
	}
	topN := req.TopN
	if topN <= 0 {
		topN = st.Slips.TopN
	}
	minEdge := st.Slips.MinEdge
	if req.MinEdge != nil {
		minEdge = *req.MinEdge
	}

	start := time.Now()
	res, err := st.Optimizer.Optimize(ctx, legs, slip.Request{
		Sizes:   sizes,
		Book:    book,
		Mode:    mode,
		Sport:   sport,
		MinEdge: minEdge,
		TopN:    topN,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build slips: %w", err)
	}
	elapsed := time.Since(start)

	evs := make([]float64, 0, len(res.Slips))
	for _, c := range res.Slips {
		evs = append(evs, c.ExpectedValue)
	}
	metrics.RecordSlipBuild(res.Book, res.Mode, int(res.Evaluated), evs, elapsed.Seconds())
	s.slipLog.LogSlipBuild(res.Book, res.Mode, res.Eligible, res.PoolSize, int(res.Evaluated), len(res.Slips), res.FallbackUsed, float64(elapsed.Milliseconds()))

	return &SlipResult{
		Book:         res.Book,
		Mode:         res.Mode,
		Slips:        res.Ranked(),
		Eligible:     res.Eligible,
		PoolSize:     res.PoolSize,
		Evaluated:    res.Evaluated,
		FallbackUsed: res.FallbackUsed,
	}, nil
}

// PriceSlip prices a hand-built slip
func (s *ScanService) PriceSlip(ctx context.Context, req PriceRequest) (*PricedSlip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := s.Settings()

	sport := firstNonEmpty(req.Sport, st.Scanner.Sport)
	book := firstNonEmpty(req.Book, st.Slips.Book)
	mode := firstNonEmpty(req.Mode, st.Slips.Mode)

	c, err := st.Optimizer.Price(req.Legs, book, mode, sport)
	if err != nil {
		var unavailable *slip.UnavailableError
		if errors.As(err, &unavailable) {
			names := make([]string, 0, len(unavailable.Legs))
			for _, l := range unavailable.Legs {
				names = append(names, fmt.Sprintf("%s %s", l.PlayerName, l.Market))
			}
			resolvedBook, resolvedMode := st.Optimizer.Resolve(book, mode)
			metrics.RecordSlipRejected(resolvedBook, resolvedMode, len(unavailable.Legs))
			s.slipLog.LogUnavailableLegs(unavailable.Book, names)
		}
		return nil, err
	}

	return &PricedSlip{
		RankedSlip:   c.Ranked(1),
		BreakevenPct: models.Round(c.BreakevenProbability*100, 2),
	}, nil
}

// CheckEdge evaluates a single sharp price against the fixed payout probability
func (s *ScanService) CheckEdge(sharpOdds int, opposing *int) (models.PropOpportunity, error) {
	return s.Settings().Evaluator.Evaluate(sharpOdds, opposing)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
