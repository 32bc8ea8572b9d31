package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/prop-edge/internal/config"
	"github.com/yourusername/prop-edge/internal/consensus"
	"github.com/yourusername/prop-edge/internal/markets"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/oddsmath"
	"github.com/yourusername/prop-edge/internal/payout"
	"github.com/yourusername/prop-edge/internal/slip"
)

// SlipDefaults are the optimizer request values used when a caller leaves them unset
type SlipDefaults struct {
	Book    string
	Mode    string
	Sizes   []int
	TopN    int
	MinEdge float64
}

// ScannerDefaults are the scan request values used when a caller leaves them unset
type ScannerDefaults struct {
	Sport         string
	TargetBook    string
	MaxGames      int
	TrendingLimit int
	SmartTTL      time.Duration
	FullTTL       time.Duration
}

// Settings is an immutable snapshot of every table a scan reads. A new snapshot replaces the
// old one on reload; nothing in it is mutated after construction.
type Settings struct {
	Evaluator  *oddsmath.Evaluator
	Registry   *consensus.BookRegistry
	Aggregator *consensus.Aggregator
	Payouts    *payout.Table
	Catalog    *markets.Catalog
	Optimizer  *slip.Optimizer
	Consensus  consensus.Params
	Slips      SlipDefaults
	Scanner    ScannerDefaults
}

// NewSettings builds and validates a settings snapshot from configuration
func NewSettings(cfg *config.Config) (*Settings, error) {
	evaluator, err := oddsmath.NewEvaluator(cfg.Scanner.FixedImpliedProb, cfg.Scanner.EdgeThreshold, cfg.Scanner.AssumedVig)
	if err != nil {
		return nil, fmt.Errorf("failed to build evaluator: %w", err)
	}

	registry, err := consensus.NewBookRegistry(cfg.Consensus.Weights, cfg.Consensus.Aliases)
	if err != nil {
		return nil, fmt.Errorf("failed to build book registry: %w", err)
	}

	specs := payout.DefaultSpecs()
	for book, modes := range cfg.Payouts {
		converted, err := payoutSpecs(modes)
		if err != nil {
			return nil, fmt.Errorf("failed to read payouts for %q: %w", book, err)
		}
		specs[strings.ToLower(strings.TrimSpace(book))] = converted
	}
	payouts, err := payout.FromSpecs(specs)
	if err != nil {
		return nil, fmt.Errorf("failed to build payout table: %w", err)
	}

	raw := markets.DefaultMarkets()
	for book, sports := range cfg.Markets {
		key := strings.ToLower(strings.TrimSpace(book))
		if raw[key] == nil {
			raw[key] = make(map[string][]string, len(sports))
		}
		for sport, list := range sports {
			raw[key][sport] = list
		}
	}
	catalog, err := markets.NewCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to build market catalog: %w", err)
	}

	return &Settings{
		Evaluator:  evaluator,
		Registry:   registry,
		Aggregator: consensus.NewAggregator(registry),
		Payouts:    payouts,
		Catalog:    catalog,
		Optimizer:  slip.NewOptimizer(payouts, catalog, registry, cfg.Slips.Workers),
		Consensus: consensus.Params{
			MinBooks:      cfg.Consensus.MinBooks,
			LineWindow:    cfg.Consensus.LineWindow,
			MainLineOnly:  cfg.Consensus.MainLineOnly,
			MinTrendCount: cfg.Consensus.MinTrendCount,
		},
		Slips: SlipDefaults{
			Book:    cfg.Slips.Book,
			Mode:    cfg.Slips.Mode,
			Sizes:   append([]int(nil), cfg.Slips.Sizes...),
			TopN:    cfg.Slips.TopN,
			MinEdge: cfg.Slips.MinEdge,
		},
		Scanner: ScannerDefaults{
			Sport:         cfg.Scanner.Sport,
			TargetBook:    cfg.Scanner.TargetBook,
			MaxGames:      cfg.Scanner.MaxGames,
			TrendingLimit: cfg.Scanner.TrendingLimit,
			SmartTTL:      cfg.CacheTTL(ScopeSmart),
			FullTTL:       cfg.CacheTTL(ScopeFull),
		},
	}, nil
}

// DefaultSettings returns a snapshot built from the stock tables
func DefaultSettings() *Settings {
	registry := consensus.DefaultBookRegistry()
	payouts := payout.DefaultTable()
	catalog := markets.DefaultCatalog()
	return &Settings{
		Evaluator:  oddsmath.DefaultEvaluator(),
		Registry:   registry,
		Aggregator: consensus.NewAggregator(registry),
		Payouts:    payouts,
		Catalog:    catalog,
		Optimizer:  slip.NewOptimizer(payouts, catalog, registry, 0),
		Consensus:  consensus.DefaultParams(),
		Slips: SlipDefaults{
			Book:  slip.DefaultBook,
			Mode:  models.ModePower,
			Sizes: append([]int(nil), slip.DefaultSizes...),
			TopN:  slip.DefaultTopN,
		},
		Scanner: ScannerDefaults{
			Sport:         "nba",
			TargetBook:    slip.DefaultBook,
			MaxGames:      8,
			TrendingLimit: 25,
			SmartTTL:      45 * time.Second,
			FullTTL:       120 * time.Second,
		},
	}
}

// CacheTTL returns how long a scan of scope stays cached
func (s *Settings) CacheTTL(scope string) time.Duration {
	if scope == ScopeFull {
		return s.Scanner.FullTTL
	}
	return s.Scanner.SmartTTL
}

// payoutSpecs converts string-keyed YAML payout modes into payout specs
func payoutSpecs(modes []config.PayoutModeConfig) ([]payout.ModeSpec, error) {
	specs := make([]payout.ModeSpec, 0, len(modes))
	for _, m := range modes {
		spec := payout.ModeSpec{
			Name:       strings.ToLower(strings.TrimSpace(m.Mode)),
			LadderBase: m.Ladder,
		}
		if len(m.Power) > 0 {
			spec.Power = make(map[int]float64, len(m.Power))
			for legs, mult := range m.Power {
				n, err := strconv.Atoi(legs)
				if err != nil {
					return nil, fmt.Errorf("%w: leg count %q", models.ErrConfiguration, legs)
				}
				spec.Power[n] = mult
			}
		}
		if len(m.Flex) > 0 {
			spec.Flex = make(map[int]map[int]float64, len(m.Flex))
			for legs, hits := range m.Flex {
				n, err := strconv.Atoi(legs)
				if err != nil {
					return nil, fmt.Errorf("%w: leg count %q", models.ErrConfiguration, legs)
				}
				table := make(map[int]float64, len(hits))
				for hit, mult := range hits {
					k, err := strconv.Atoi(hit)
					if err != nil {
						return nil, fmt.Errorf("%w: hit count %q", models.ErrConfiguration, hit)
					}
					table[k] = mult
				}
				spec.Flex[n] = table
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
