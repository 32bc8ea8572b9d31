package consensus

import (
	"math"
	"strings"

	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/oddsmath"
)

// AutoRelaxMaxRows is the result size at or below which a trend-filtered build is retried
// with the trend filter disabled.
const AutoRelaxMaxRows = 2

// Params controls the consensus gates
type Params struct {
	// MinBooks is the minimum number of positively weighted books a cell needs (floored at 1)
	MinBooks int
	// LineWindow drops lines further than this from the median line; negative disables the gate
	LineWindow float64
	// MainLineOnly keeps a single line per (player, market, side)
	MainLineOnly bool
	// MinTrendCount drops players with fewer external mentions; 0 disables the filter
	MinTrendCount int
}

// DefaultParams returns the stock gates
func DefaultParams() Params {
	return Params{
		MinBooks:      1,
		LineWindow:    1.0,
		MainLineOnly:  true,
		MinTrendCount: 0,
	}
}

// Result is the output of one consensus build
type Result struct {
	Rows []models.ConsensusRow
	// Cells is the number of distinct (player, market, line, side) cells seen
	Cells int
	// Skipped counts quotes dropped for an unknown side
	Skipped int
	// Rejected counts quotes dropped for invalid odds
	Rejected int
	// Relaxed is set when the trend filter was disabled by BuildWithRelax
	Relaxed bool
}

// Aggregator builds consensus rows from raw quotes. It holds no mutable state and is safe
// for concurrent use.
type Aggregator struct {
	registry *BookRegistry
}

// NewAggregator creates an aggregator over the given book registry
func NewAggregator(registry *BookRegistry) *Aggregator {
	return &Aggregator{registry: registry}
}

type cellConsensus struct {
	key         CellKey
	sample      models.Quote
	probability float64
	booksUsed   int
	totalWeight float64
	coverage    float64
	prices      []models.BookPrice
	medianLine  float64
}

// BuildWithRelax runs Build and, when a trend filter is active and the output has at most
// AutoRelaxMaxRows rows, rebuilds once with the filter disabled.
func (a *Aggregator) BuildWithRelax(quotes []models.Quote, trendCounts map[string]int, p Params) Result {
	res := a.Build(quotes, trendCounts, p)
	if p.MinTrendCount > 0 && len(res.Rows) <= AutoRelaxMaxRows {
		relaxed := p
		relaxed.MinTrendCount = 0
		res = a.Build(quotes, trendCounts, relaxed)
		res.Relaxed = true
	}
	return res
}

// Build produces one consensus row per gated cell. Output order follows the first appearance
// of each cell (or of each player/market/side when MainLineOnly is set), so identical input
// yields identical output.
func (a *Aggregator) Build(quotes []models.Quote, trendCounts map[string]int, p Params) Result {
	cells, skipped := GroupCells(quotes)
	res := Result{Cells: len(cells), Skipped: skipped}

	minBooks := p.MinBooks
	if minBooks < 1 {
		minBooks = 1
	}
	minTrend := p.MinTrendCount
	if minTrend < 0 {
		minTrend = 0
	}

	// Weighted consensus per exact cell.
	passed := make([]*cellConsensus, 0, len(cells))
	linesByProp := make(map[propKey][]float64)
	for _, c := range cells {
		valid := c.Quotes[:0:0]
		for _, q := range c.Quotes {
			if q.Validate() != nil {
				res.Rejected++
				continue
			}
			valid = append(valid, q)
		}
		cc := a.weigh(c.Key, valid)
		if cc == nil || cc.booksUsed < minBooks {
			continue
		}
		if minTrend > 0 && trendCounts[strings.ToLower(c.Key.Player)] < minTrend {
			continue
		}
		passed = append(passed, cc)
		linesByProp[c.Key.prop()] = append(linesByProp[c.Key.prop()], c.Key.Line)
	}

	// Line-window gate against the median passing line.
	gated := make([]*cellConsensus, 0, len(passed))
	byKey := make(map[CellKey]*cellConsensus, len(passed))
	for _, cc := range passed {
		cc.medianLine = median(linesByProp[cc.key.prop()])
		if p.LineWindow >= 0 && math.Abs(cc.key.Line-cc.medianLine) > p.LineWindow {
			continue
		}
		gated = append(gated, cc)
		byKey[cc.key] = cc
	}

	selected := gated
	if p.MainLineOnly {
		selected = selectMainLines(gated)
	}

	res.Rows = make([]models.ConsensusRow, 0, len(selected))
	for _, cc := range selected {
		row := models.ConsensusRow{
			PlayerName:           cc.key.Player,
			Market:               cc.key.Market,
			Line:                 cc.key.Line,
			Side:                 cc.key.Side,
			ConsensusProbability: cc.probability,
			ConsensusOdds:        oddsmath.AmericanFromProbability(cc.probability),
			BooksUsed:            cc.booksUsed,
			TotalWeight:          cc.totalWeight,
			WeightCoveragePct:    cc.coverage,
			MedianLine:           cc.medianLine,
			BookOdds:             cc.prices,
			EventID:              cc.sample.EventID,
			CommenceTime:         cc.sample.CommenceTime,
			HomeTeam:             cc.sample.HomeTeam,
			AwayTeam:             cc.sample.AwayTeam,
		}
		if row.EventID == "" {
			row.EventID = "unknown"
		}
		if opp, ok := byKey[cc.key.Opposite()]; ok {
			odds := oddsmath.AmericanFromProbability(opp.probability)
			row.OpposingConsensusOdds = &odds
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

// weigh computes the weighted mean implied probability over positively weighted books.
// It returns nil when no weighted book quotes the cell.
func (a *Aggregator) weigh(key CellKey, quotes []models.Quote) *cellConsensus {
	if len(quotes) == 0 {
		return nil
	}
	prices := a.registry.BestPrices(quotes)

	var weightedSum, totalWeight float64
	booksUsed := 0
	for _, bp := range prices {
		if bp.Weight <= 0 {
			continue
		}
		p, err := oddsmath.ImpliedProbability(bp.Odds)
		if err != nil {
			continue
		}
		weightedSum += p * bp.Weight
		totalWeight += bp.Weight
		booksUsed++
	}
	if booksUsed == 0 || totalWeight <= 0 {
		return nil
	}

	coverage := 0.0
	if max := a.registry.MaxWeight(); max > 0 {
		coverage = models.Round(totalWeight/max*100, 2)
	}

	return &cellConsensus{
		key:         key,
		sample:      quotes[0],
		probability: weightedSum / totalWeight,
		booksUsed:   booksUsed,
		totalWeight: models.Round(totalWeight, 4),
		coverage:    coverage,
		prices:      prices,
	}
}

// selectMainLines keeps one line per (player, market, side): the highest total weight, ties
// going to the line closest to the median.
func selectMainLines(gated []*cellConsensus) []*cellConsensus {
	order := make([]propKey, 0)
	best := make(map[propKey]*cellConsensus)
	for _, cc := range gated {
		pk := cc.key.prop()
		cur, ok := best[pk]
		if !ok {
			best[pk] = cc
			order = append(order, pk)
			continue
		}
		curDist := math.Abs(cur.key.Line - cur.medianLine)
		nextDist := math.Abs(cc.key.Line - cc.medianLine)
		if cc.totalWeight > cur.totalWeight || (cc.totalWeight == cur.totalWeight && nextDist < curDist) {
			best[pk] = cc
		}
	}

	out := make([]*cellConsensus, 0, len(order))
	for _, pk := range order {
		out = append(out, best[pk])
	}
	return out
}
