package service

import (
	"sort"
	"strings"

	"github.com/yourusername/prop-edge/internal/consensus"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/oddsmath"
)

// Sharp book labels on opportunity rows
const (
	SharpBookConsensus = "consensus"
	SharpBookMedian    = "median"
	SharpBookNone      = "none"
)

// DefaultSharpOdds prices a cell no book quoted with valid odds
const DefaultSharpOdds = -110

// Reasons a cell has no consensus price
const (
	ReasonNoValidOdds     = "no valid odds"
	ReasonNoWeightedBooks = "no weighted books"
	ReasonFiltered        = "filtered by consensus gates"
)

type opportunitySet struct {
	rows       []models.Opportunity
	scanned    int
	calculated int
	plays      int
	bestEdge   float64
}

// buildOpportunities turns every prop cell into an opportunity row. Cells with a consensus row
// are priced from it; the rest fall back to a median book price with no edge.
func buildOpportunities(st *Settings, quotes []models.Quote, rows []models.ConsensusRow, trend map[string]int, req ScanRequest) opportunitySet {
	byKey := make(map[consensus.CellKey]models.ConsensusRow, len(rows))
	for _, r := range rows {
		byKey[consensus.CellKey{Player: r.PlayerName, Market: r.Market, Line: r.Line, Side: r.Side}] = r
	}

	cells, _ := consensus.GroupCells(quotes)
	consensus.SortCells(cells)

	fixedPct := models.Round(st.Evaluator.FixedProbability*100, 2)
	dfsBooks := st.Payouts.Books()

	var set opportunitySet
	haveBest := false
	set.rows = make([]models.Opportunity, 0, len(cells))
	for _, c := range cells {
		set.scanned++
		sample := c.Quotes[0]
		opp := models.Opportunity{
			Leg: models.Leg{
				PlayerName: c.Key.Player,
				Market:     c.Key.Market,
				Line:       c.Key.Line,
				Side:       c.Key.Side,
			},
			EventID:             sample.EventID,
			CommenceTime:        sample.CommenceTime,
			HomeTeam:            sample.HomeTeam,
			AwayTeam:            sample.AwayTeam,
			IsTrending:          trend[strings.ToLower(c.Key.Player)] > 0,
			FixedImpliedProbPct: fixedPct,
		}
		if opp.EventID == "" {
			opp.EventID = "unknown"
		}

		row, ok := byKey[c.Key]
		if !ok || !priceFromConsensus(st.Evaluator, &opp, row) {
			priceFromBooks(st.Registry, &opp, c.Quotes)
		}

		opp.Availability = make(map[string]bool, len(dfsBooks))
		for _, book := range dfsBooks {
			available := hasBook(st.Registry, opp.BookOdds, book)
			if !available {
				available, _ = st.Catalog.Permits(book, req.Sport, opp.Market)
			}
			opp.Availability[book] = available
			if available {
				opp.AvailableBooks = append(opp.AvailableBooks, book)
			}
		}

		if req.TargetBook != "" && !st.Optimizer.Available(opp.Leg, req.TargetBook, req.Sport) {
			continue
		}
		slipBook := req.TargetBook
		if _, ok := st.Payouts.Book(slipBook); !ok {
			slipBook, _ = st.Optimizer.Resolve(st.Slips.Book, st.Slips.Mode)
		}
		opp.EligibleForSlip = opp.IsCalculated && st.Optimizer.Available(opp.Leg, slipBook, req.Sport)

		if opp.IsCalculated {
			set.calculated++
		}
		if opp.IsPlay {
			set.plays++
		}
		if opp.IsCalculated && (!haveBest || opp.EdgePct > set.bestEdge) {
			set.bestEdge = opp.EdgePct
			haveBest = true
		}
		set.rows = append(set.rows, opp)
	}

	sort.SliceStable(set.rows, func(i, j int) bool {
		return set.rows[i].EdgePct > set.rows[j].EdgePct
	})
	return set
}

// priceFromConsensus fills the edge fields from a consensus row. It reports false when the
// row cannot be evaluated.
func priceFromConsensus(ev *oddsmath.Evaluator, opp *models.Opportunity, row models.ConsensusRow) bool {
	eval, err := ev.Evaluate(row.ConsensusOdds, row.OpposingConsensusOdds)
	if err != nil {
		return false
	}

	fair := models.Round(eval.FairProbability*100, 2)
	vig := models.Round(eval.VigPct, 2)
	cons := row.ConsensusProbPct()

	opp.SharpOdds = row.ConsensusOdds
	opp.OpposingOdds = row.OpposingConsensusOdds
	opp.EdgePct = models.Round(eval.EdgePct(), 2)
	opp.BooksUsed = row.BooksUsed
	opp.WeightCoveragePct = models.Round(row.WeightCoveragePct, 2)
	opp.BookOdds = row.BookOdds
	opp.SharpBook = SharpBookConsensus
	opp.IsPlay = eval.IsPlay
	opp.IsCalculated = true
	opp.SharpImpliedProbPct = models.Round(eval.SharpProbability*100, 2)
	if eval.OpposingProbability != nil {
		p := models.Round(*eval.OpposingProbability*100, 2)
		opp.OpposingImpliedProbPct = &p
	}
	opp.FairProbPct = &fair
	opp.VigPct = &vig
	opp.ConsensusProbPct = &cons
	return true
}

// priceFromBooks prices an uncalculated cell at the median of its weighted books, else of
// every book, else DefaultSharpOdds.
func priceFromBooks(reg *consensus.BookRegistry, opp *models.Opportunity, quotes []models.Quote) {
	prices := reg.BestPrices(quotes)
	opp.BookOdds = prices

	var weighted, all []int
	var totalWeight float64
	for _, bp := range prices {
		all = append(all, bp.Odds)
		if bp.Weight > 0 {
			weighted = append(weighted, bp.Odds)
			totalWeight += bp.Weight
		}
	}
	// only weighted books count toward coverage
	opp.BooksUsed = len(weighted)
	if max := reg.MaxWeight(); max > 0 {
		opp.WeightCoveragePct = models.Round(totalWeight/max*100, 2)
	}

	switch {
	case len(prices) == 0:
		opp.SharpOdds = DefaultSharpOdds
		opp.SharpBook = SharpBookNone
		opp.CalcReason = ReasonNoValidOdds
	case len(weighted) == 0:
		opp.SharpOdds = medianOdds(all)
		opp.SharpBook = SharpBookMedian
		opp.CalcReason = ReasonNoWeightedBooks
	default:
		opp.SharpOdds = medianOdds(weighted)
		opp.SharpBook = SharpBookMedian
		opp.CalcReason = ReasonFiltered
	}

	if p, err := oddsmath.ImpliedProbability(opp.SharpOdds); err == nil {
		opp.SharpImpliedProbPct = models.Round(p*100, 2)
	}
}

// medianOdds takes the median in probability space so an even count straddling even money
// still yields a valid price.
func medianOdds(odds []int) int {
	probs := make([]float64, 0, len(odds))
	for _, o := range odds {
		if p, err := oddsmath.ImpliedProbability(o); err == nil {
			probs = append(probs, p)
		}
	}
	if len(probs) == 0 {
		return DefaultSharpOdds
	}
	sort.Float64s(probs)
	mid := len(probs) / 2
	if len(probs)%2 == 1 {
		return oddsmath.AmericanFromProbability(probs[mid])
	}
	return oddsmath.AmericanFromProbability((probs[mid-1] + probs[mid]) / 2)
}

func hasBook(reg *consensus.BookRegistry, prices []models.BookPrice, book string) bool {
	for _, bp := range prices {
		if reg.Canonical(bp.Book) == book {
			return true
		}
	}
	return false
}
