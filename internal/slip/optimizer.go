// Package slip builds and ranks multi-leg pick'em slips by expected value.
package slip

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yourusername/prop-edge/internal/consensus"
	"github.com/yourusername/prop-edge/internal/markets"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/payout"
)

const (
	// PoolCap bounds the number of legs entering enumeration
	PoolCap = 24
	// MaxSlipSize is the largest slip any platform accepts
	MaxSlipSize = payout.MaxLegs
	// MaxJaccardOverlap is the largest leg overlap allowed between two returned slips
	MaxJaccardOverlap = 0.82
	// DefaultTopN is the number of slips returned when a request leaves TopN unset
	DefaultTopN = 5
	// DefaultBook is the target platform when a request leaves Book unset
	DefaultBook = "sleeper"
)

// DefaultSizes are the slip sizes built when a request leaves Sizes unset
var DefaultSizes = []int{3, 4, 5, 6}

// cancelCheckInterval is how many combinations a worker evaluates between context checks
const cancelCheckInterval = 4096

// Request selects what to build
type Request struct {
	Sizes   []int
	Book    string
	Mode    string
	Sport   string
	MinEdge float64
	TopN    int
}

// Result is the outcome of one optimization
type Result struct {
	Book  string
	Mode  string
	Slips []models.SlipCandidate
	// Eligible counts legs passing availability and MinEdge
	Eligible int
	// PoolSize is the deduplicated, capped pool enumerated
	PoolSize int
	// Evaluated counts priced combinations
	Evaluated int64
	// FallbackUsed is set when diversification accepted nothing and the unfiltered top-N was returned
	FallbackUsed bool
}

// Ranked returns the display form of the slips, rank 1 first
func (r Result) Ranked() []models.RankedSlip {
	out := make([]models.RankedSlip, 0, len(r.Slips))
	for i, s := range r.Slips {
		out = append(out, s.Ranked(i+1))
	}
	return out
}

// UnavailableError lists the legs a platform does not offer
type UnavailableError struct {
	Book string
	Legs []models.Leg
}

func (e *UnavailableError) Error() string {
	names := make([]string, 0, len(e.Legs))
	for _, l := range e.Legs {
		names = append(names, fmt.Sprintf("%s %s %g", l.PlayerName, l.Market, l.Line))
	}
	return fmt.Sprintf("%s: not offered on %s: %s", models.ErrInvalidSlip, e.Book, strings.Join(names, ", "))
}

func (e *UnavailableError) Unwrap() error {
	return models.ErrInvalidSlip
}

// Optimizer enumerates and ranks slips. It holds only read-only tables and is safe for
// concurrent use.
type Optimizer struct {
	payouts  *payout.Table
	catalog  *markets.Catalog
	registry *consensus.BookRegistry
	workers  int
}

// NewOptimizer creates an optimizer. workers bounds enumeration goroutines per size; values
// below 1 use GOMAXPROCS.
func NewOptimizer(payouts *payout.Table, catalog *markets.Catalog, registry *consensus.BookRegistry, workers int) *Optimizer {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Optimizer{
		payouts:  payouts,
		catalog:  catalog,
		registry: registry,
		workers:  workers,
	}
}

// Resolve canonicalizes book and maps mode onto one the book supports
func (o *Optimizer) Resolve(book, mode string) (string, string) {
	book = o.registry.Canonical(book)
	if book == "" {
		book = DefaultBook
	}
	if mode == "" {
		mode = models.ModePower
	}
	return book, o.payouts.ResolveMode(book, mode)
}

// Available reports whether book offers leg. An explicit availability flag wins, then direct
// presence in the leg's book prices, then the market catalog. Unknown books and sports are allowed.
func (o *Optimizer) Available(leg models.Leg, book, sport string) bool {
	if flag, ok := leg.Availability[book]; ok {
		return flag
	}
	for _, bp := range leg.BookOdds {
		if o.registry.Canonical(bp.Book) == book {
			return true
		}
	}
	allowed, _ := o.catalog.Permits(book, sport, leg.Market)
	return allowed
}

// Optimize builds the top slips for req from legs. It only fails when ctx is cancelled.
func (o *Optimizer) Optimize(ctx context.Context, legs []models.Leg, req Request) (Result, error) {
	book, mode := o.Resolve(req.Book, req.Mode)
	topN := req.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	sizes := req.Sizes
	if len(sizes) == 0 {
		sizes = DefaultSizes
	}

	res := Result{Book: book, Mode: mode}

	eligible := make([]models.Leg, 0, len(legs))
	for _, l := range legs {
		if l.EdgePct >= req.MinEdge && o.Available(l, book, req.Sport) {
			eligible = append(eligible, l)
		}
	}
	res.Eligible = len(eligible)

	pool := preparePool(eligible)
	res.PoolSize = len(pool)

	perSize := max(10, topN*6)
	var all []scored
	seenSizes := make(map[int]bool, len(sizes))
	for rank, n := range sizes {
		if seenSizes[n] || n < payout.MinLegs || n > MaxSlipSize || len(pool) < n {
			continue
		}
		seenSizes[n] = true

		pay := o.payouts.Lookup(book, mode, n)
		best, evaluated, err := o.enumerate(ctx, pool, n, rank, pay, perSize)
		if err != nil {
			return Result{}, err
		}
		res.Evaluated += evaluated
		all = append(all, best...)
	}
	if len(all) == 0 {
		return res, nil
	}
	sortScored(all)
	all = dedupeCombos(pool, all)

	selected, fallback := diversify(pool, all, topN)
	res.FallbackUsed = fallback
	res.Slips = make([]models.SlipCandidate, 0, len(selected))
	for _, s := range selected {
		pay := o.payouts.Lookup(book, mode, len(s.idx))
		res.Slips = append(res.Slips, candidate(pool, s.idx, book, mode, pay))
	}
	return res, nil
}

// enumerate evaluates every legal n-leg combination of pool and returns the best k. Work is
// partitioned by first leg index; each partition keeps its own top-k before the merge.
func (o *Optimizer) enumerate(ctx context.Context, pool []pricedLeg, n, sizeRank int, pay payout.Payout, k int) ([]scored, int64, error) {
	partitions := len(pool) - n + 1
	results := make([][]scored, partitions)
	counts := make([]int64, partitions)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for first := 0; first < partitions; first++ {
		g.Go(func() error {
			top := newTopK(k)
			probs := make([]float64, n)
			var visited, evaluated int64
			for combo := range combinationsFrom(first, len(pool), n) {
				if visited%cancelCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				visited++
				if hasDuplicatePlayer(pool, combo) {
					continue
				}
				for i, ix := range combo {
					probs[i] = pool[ix].prob
				}
				evaluated++
				top.offer(scored{ev: evaluate(probs, pay).ev, sizeRank: sizeRank, idx: combo})
			}
			results[first] = top.sorted()
			counts[first] = evaluated
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("failed to enumerate %d-leg slips: %w", n, err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return merge(k, results...), total, nil
}

// Price prices a hand-built slip. It rejects sizes outside 2-6, repeated players and legs the
// book does not offer.
func (o *Optimizer) Price(legs []models.Leg, book, mode, sport string) (models.SlipCandidate, error) {
	if len(legs) < payout.MinLegs || len(legs) > MaxSlipSize {
		return models.SlipCandidate{}, fmt.Errorf("%w: a slip needs %d to %d legs, got %d", models.ErrInvalidSlip, payout.MinLegs, MaxSlipSize, len(legs))
	}
	book, mode = o.Resolve(book, mode)

	pool := make([]pricedLeg, len(legs))
	combo := make([]int, len(legs))
	var unavailable []models.Leg
	for i, l := range legs {
		pool[i] = priceLeg(l)
		combo[i] = i
		if !o.Available(l, book, sport) {
			unavailable = append(unavailable, l)
		}
	}
	if hasDuplicatePlayer(pool, combo) {
		return models.SlipCandidate{}, fmt.Errorf("%w: duplicate players are not allowed", models.ErrInvalidSlip)
	}
	if len(unavailable) > 0 {
		return models.SlipCandidate{}, &UnavailableError{Book: book, Legs: unavailable}
	}

	return candidate(pool, combo, book, mode, o.payouts.Lookup(book, mode, len(legs))), nil
}

// preparePool dedupes legs by identity, keeping the higher quality, ranks by quality and caps
// the pool at PoolCap.
func preparePool(legs []models.Leg) []pricedLeg {
	index := make(map[identity]int, len(legs))
	kept := make([]models.Leg, 0, len(legs))
	for _, l := range legs {
		id := identityOf(l)
		if i, ok := index[id]; ok {
			if qualityLess(kept[i], l) {
				kept[i] = l
			}
			continue
		}
		index[id] = len(kept)
		kept = append(kept, l)
	}

	sort.SliceStable(kept, func(i, j int) bool { return qualityLess(kept[j], kept[i]) })
	if len(kept) > PoolCap {
		kept = kept[:PoolCap]
	}

	pool := make([]pricedLeg, len(kept))
	for i, l := range kept {
		pool[i] = priceLeg(l)
	}
	return pool
}

// qualityLess orders legs by (EdgePct, BooksUsed, WeightCoveragePct)
func qualityLess(a, b models.Leg) bool {
	if a.EdgePct != b.EdgePct {
		return a.EdgePct < b.EdgePct
	}
	if a.BooksUsed != b.BooksUsed {
		return a.BooksUsed < b.BooksUsed
	}
	return a.WeightCoveragePct < b.WeightCoveragePct
}

// dedupeCombos drops repeats of the same sorted leg identities, keeping the first
func dedupeCombos(pool []pricedLeg, ranked []scored) []scored {
	seen := make(map[string]struct{}, len(ranked))
	out := ranked[:0:0]
	for _, s := range ranked {
		key := comboKey(pool, s.idx)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

func comboKey(pool []pricedLeg, combo []int) string {
	ids := make([]identity, len(combo))
	for i, ix := range combo {
		ids[i] = pool[ix].id
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].less(ids[j]) })

	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "%s|%s|%s|%g;", id.player, id.market, id.side, id.line)
	}
	return b.String()
}

// diversify walks ranked best first and accepts slips whose Jaccard overlap with every accepted
// slip is at most MaxJaccardOverlap.
func diversify(pool []pricedLeg, ranked []scored, topN int) ([]scored, bool) {
	var selected []scored
	var sets []map[identity]struct{}
	for _, s := range ranked {
		set := identitySet(pool, s.idx)
		overlaps := false
		for _, prev := range sets {
			if jaccard(set, prev) > MaxJaccardOverlap {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		selected = append(selected, s)
		sets = append(sets, set)
		if len(selected) >= topN {
			break
		}
	}
	if len(selected) == 0 {
		return ranked[:min(topN, len(ranked))], true
	}
	return selected, false
}

func identitySet(pool []pricedLeg, combo []int) map[identity]struct{} {
	set := make(map[identity]struct{}, len(combo))
	for _, ix := range combo {
		set[pool[ix].id] = struct{}{}
	}
	return set
}

// jaccard is |a ∩ b| / |a ∪ b|, 0 when either set is empty
func jaccard(a, b map[identity]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for id := range a {
		if _, ok := b[id]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
