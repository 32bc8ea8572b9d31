package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/prop-edge/internal/datasource"
	"github.com/yourusername/prop-edge/internal/models"
)

const maxTrendingLimit = 200

// TrendingResult lists the players currently being added on the trend source
type TrendingResult struct {
	Sport    string                      `json:"sport"`
	Trending []datasource.TrendingPlayer `json:"trending"`
	Count    int                         `json:"count"`
}

// Trending reads trending players for sport. An empty sport and a non-positive limit take the
// scanner defaults; limit is capped at 200.
func (s *ScanService) Trending(ctx context.Context, sport string, limit int) (*TrendingResult, error) {
	if s.trends == nil {
		return nil, ErrTrendsDisabled
	}
	st := s.settings.Load()

	sport = strings.ToLower(strings.TrimSpace(sport))
	if sport == "" {
		sport = st.Scanner.Sport
	}
	if _, ok := datasource.SportKey(sport); !ok {
		return nil, fmt.Errorf("%w: unsupported sport %q", ErrInvalidRequest, sport)
	}
	if limit <= 0 {
		limit = st.Scanner.TrendingLimit
	}
	limit = min(limit, maxTrendingLimit)

	players, err := s.trends.Trending(ctx, sport, limit)
	if err != nil {
		s.scanLog.LogSourceFailure(s.trends.Name(), sport, err)
		return nil, err
	}
	return &TrendingResult{Sport: sport, Trending: players, Count: len(players)}, nil
}

// SettingsView is the read-only summary of a settings snapshot
type SettingsView struct {
	EdgeThresholdPct    float64            `json:"edge_threshold_pct"`
	FixedImpliedProbPct float64            `json:"dfs_fixed_implied_prob_pct"`
	AssumedVigPct       float64            `json:"assumed_vig_pct"`
	BookWeights         map[string]float64 `json:"book_weights"`
	PayoutBooks         []string           `json:"payout_books"`
	MinBooks            int                `json:"consensus_min_books"`
	LineWindow          float64            `json:"consensus_line_window"`
	MainLineOnly        bool               `json:"consensus_main_line_only"`
	MinTrendCount       int                `json:"consensus_min_trend_count"`
	SlipBook            string             `json:"slip_book"`
	SlipMode            string             `json:"slip_mode"`
	SlipSizes           []int              `json:"slip_sizes"`
	SlipTopN            int                `json:"slip_top_n"`
	SlipMinEdgePct      float64            `json:"slip_min_edge"`
	Sport               string             `json:"sport"`
	TargetBook          string             `json:"target_book"`
}

// View summarises the snapshot with probabilities in percent
func (st *Settings) View() SettingsView {
	return SettingsView{
		EdgeThresholdPct:    models.Round(st.Evaluator.EdgeThreshold*100, 4),
		FixedImpliedProbPct: models.Round(st.Evaluator.FixedProbability*100, 4),
		AssumedVigPct:       models.Round(st.Evaluator.AssumedVig*100, 4),
		BookWeights:         st.Registry.Weights(),
		PayoutBooks:         st.Payouts.Books(),
		MinBooks:            st.Consensus.MinBooks,
		LineWindow:          st.Consensus.LineWindow,
		MainLineOnly:        st.Consensus.MainLineOnly,
		MinTrendCount:       st.Consensus.MinTrendCount,
		SlipBook:            st.Slips.Book,
		SlipMode:            st.Slips.Mode,
		SlipSizes:           append([]int(nil), st.Slips.Sizes...),
		SlipTopN:            st.Slips.TopN,
		SlipMinEdgePct:      st.Slips.MinEdge,
		Sport:               st.Scanner.Sport,
		TargetBook:          st.Scanner.TargetBook,
	}
}

// CurrentSettings summarises the settings snapshot scans currently read
func (s *ScanService) CurrentSettings() SettingsView {
	return s.settings.Load().View()
}

// Status reports the sources, settings age and most recent scan of the service
type Status struct {
	QuoteSource      string     `json:"quote_source"`
	TrendSource      string     `json:"trend_source,omitempty"`
	HistoryEnabled   bool       `json:"history_enabled"`
	SettingsLoadedAt time.Time  `json:"settings_loaded_at"`
	EdgeThresholdPct float64    `json:"edge_threshold_pct"`
	LastScanAt       *time.Time `json:"last_scan_at,omitempty"`
	LastScanSport    string     `json:"last_scan_sport,omitempty"`
	LastScanRows     int        `json:"last_scan_rows"`
	LastScanPlays    int        `json:"last_scan_plays"`
}

// Status summarises the service for health reporting
func (s *ScanService) Status() Status {
	st := Status{
		HistoryEnabled:   s.versions != nil,
		SettingsLoadedAt: time.Unix(0, s.settingsAt.Load()).UTC(),
		EdgeThresholdPct: models.Round(s.settings.Load().Evaluator.EdgeThreshold*100, 4),
	}
	if s.quotes != nil {
		st.QuoteSource = s.quotes.Name()
	}
	if s.trends != nil {
		st.TrendSource = s.trends.Name()
	}
	if latest := s.Latest(); latest != nil {
		at := latest.ScannedAt
		st.LastScanAt = &at
		st.LastScanSport = latest.Sport
		st.LastScanRows = len(latest.Opportunities)
		st.LastScanPlays = latest.Stats.PlaysFound
	}
	return st
}
