// Package consensus blends many sportsbooks' prices into one trust-weighted fair price per prop.
package consensus

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/oddsmath"
)

// DefaultWeights are the stock trust weights. DFS apps carry weight 0 so they stay visible
// for availability without moving the consensus.
var DefaultWeights = map[string]float64{
	"bookmaker":  4,
	"pinnacle":   3,
	"fanduel":    6,
	"draftkings": 4,
	"underdog":   0,
	"sleeper":    0,
	"prizepicks": 0,
}

// DefaultAliases maps compacted book spellings to their canonical key
var DefaultAliases = map[string]string{
	"bookmaker":            "bookmaker",
	"bookmakercom":         "bookmaker",
	"bookmaker.eu":         "bookmaker",
	"pinnacle":             "pinnacle",
	"fanduel":              "fanduel",
	"fanduelsportsbook":    "fanduel",
	"draftkings":           "draftkings",
	"draftkingssportsbook": "draftkings",
	"underdog":             "underdog",
	"underdogfantasy":      "underdog",
	"underdogsports":       "underdog",
	"sleeper":              "sleeper",
	"sleeperpicks":         "sleeper",
	"prizepicks":           "prizepicks",
	"betmgm":               "betmgm",
	"mgm":                  "betmgm",
}

// BookRegistry resolves book aliases and trust weights. It is immutable once built.
type BookRegistry struct {
	aliases   map[string]string
	weights   map[string]float64
	maxWeight float64
}

// NewBookRegistry overlays weights and aliases on the defaults and validates the result.
// Negative or non-finite weights, or a table with no positive weight, are configuration errors.
func NewBookRegistry(weights map[string]float64, aliases map[string]string) (*BookRegistry, error) {
	r := &BookRegistry{
		aliases: make(map[string]string, len(DefaultAliases)+len(aliases)),
		weights: make(map[string]float64, len(DefaultWeights)+len(weights)),
	}

	for k, v := range DefaultAliases {
		r.aliases[k] = v
	}
	for k, v := range aliases {
		target := compact(v)
		if target == "" {
			return nil, fmt.Errorf("%w: alias %q has an empty target", models.ErrConfiguration, k)
		}
		r.aliases[compact(k)] = target
	}

	for k, v := range DefaultWeights {
		r.weights[k] = v
	}
	for k, v := range weights {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, fmt.Errorf("%w: weight for %q must be a finite non-negative number, got %v", models.ErrConfiguration, k, v)
		}
		r.weights[r.Canonical(k)] = v
	}

	// Sum in key order so the total is reproducible.
	for _, book := range sortedKeys(r.weights) {
		if w := r.weights[book]; w > 0 {
			r.maxWeight += w
		}
	}
	if r.maxWeight <= 0 {
		return nil, fmt.Errorf("%w: at least one book needs a positive weight", models.ErrConfiguration)
	}

	return r, nil
}

// DefaultBookRegistry returns a registry built from the stock tables
func DefaultBookRegistry() *BookRegistry {
	r, err := NewBookRegistry(nil, nil)
	if err != nil {
		panic(err)
	}
	return r
}

// Canonical lowercases name, drops punctuation other than '.', strips '_' and resolves aliases.
func (r *BookRegistry) Canonical(name string) string {
	c := compact(name)
	if alias, ok := r.aliases[c]; ok {
		return alias
	}
	return c
}

// Weight returns the trust weight for a canonical book key
func (r *BookRegistry) Weight(book string) float64 {
	return r.weights[book]
}

// Weights returns a copy of the weight table
func (r *BookRegistry) Weights() map[string]float64 {
	out := make(map[string]float64, len(r.weights))
	for k, v := range r.weights {
		out[k] = v
	}
	return out
}

// MaxWeight is the sum of every positive configured weight
func (r *BookRegistry) MaxWeight() float64 {
	return r.maxWeight
}

// Signature is a stable text form of the weight table, used in cache keys
func (r *BookRegistry) Signature() string {
	keys := sortedKeys(r.weights)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%g", k, r.weights[k]))
	}
	return strings.Join(parts, "|")
}

// BestPrices keeps one quote per canonical book, the one with the smallest |odds|, and returns
// the prices sorted by (weight, book) descending. Quotes with invalid odds are skipped.
func (r *BookRegistry) BestPrices(quotes []models.Quote) []models.BookPrice {
	best := make(map[string]int)
	for _, q := range quotes {
		if q.Validate() != nil {
			continue
		}
		book := r.Canonical(q.Book)
		prev, ok := best[book]
		if !ok || abs(q.Odds) < abs(prev) {
			best[book] = q.Odds
		}
	}

	prices := make([]models.BookPrice, 0, len(best))
	for book, odds := range best {
		p, _ := oddsmath.ImpliedProbability(odds)
		prices = append(prices, models.BookPrice{
			Book:           book,
			Odds:           odds,
			Weight:         r.weights[book],
			ImpliedProbPct: models.Round(p*100, 2),
		})
	}
	sort.Slice(prices, func(i, j int) bool {
		if prices[i].Weight != prices[j].Weight {
			return prices[i].Weight > prices[j].Weight
		}
		return prices[i].Book > prices[j].Book
	})
	return prices
}

func compact(name string) string {
	var b strings.Builder
	for _, ch := range strings.ToLower(name) {
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '.' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
