package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/prop-edge/internal/consensus"
	"github.com/yourusername/prop-edge/internal/datasource"
	"github.com/yourusername/prop-edge/internal/logger"
	"github.com/yourusername/prop-edge/internal/metrics"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/repository"
)

// Scan scopes
const (
	ScopeSmart = datasource.ScopeSmart
	ScopeFull  = datasource.ScopeFull
)

var (
	// ErrInvalidRequest marks caller input the service cannot act on
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNoScan is returned when slips are requested before any scan has completed
	ErrNoScan = errors.New("no scan results available")
	// ErrHistoryDisabled is returned by history operations when no repository is configured
	ErrHistoryDisabled = errors.New("scan history is not configured")
	// ErrTrendsDisabled is returned by Trending when no trend source is configured
	ErrTrendsDisabled = errors.New("trend source is not configured")
)

// ScanRequest selects what one scan reads. Zero values take the settings defaults; the
// pointer fields override the configured consensus gates.
type ScanRequest struct {
	Sport         string   `json:"sport"`
	Scope         string   `json:"scope"`
	TargetBook    string   `json:"target_book"`
	MaxGames      int      `json:"max_games"`
	TrendingLimit int      `json:"trending_limit"`
	MinBooks      *int     `json:"min_books,omitempty"`
	LineWindow    *float64 `json:"line_window,omitempty"`
	MainLineOnly  *bool    `json:"main_line_only,omitempty"`
	MinTrendCount *int     `json:"min_trend_count,omitempty"`
}

// ScanStats summarizes one scan
type ScanStats struct {
	QuotesFetched   int     `json:"quotes_fetched"`
	QuotesRejected  int     `json:"quotes_rejected"`
	QuotesSkipped   int     `json:"quotes_skipped"`
	TotalScanned    int     `json:"total_scanned"`
	Returned        int     `json:"returned"`
	PlaysFound      int     `json:"plays_found"`
	Calculated      int     `json:"calculated"`
	Uncalculated    int     `json:"uncalculated"`
	ConsensusRows   int     `json:"consensus_rows"`
	TrendingPlayers int     `json:"trending_players"`
	GamesQueried    int     `json:"games_queried"`
	TrendRelaxed    bool    `json:"trend_relaxed"`
	BestEdgePct     float64 `json:"best_edge_pct"`
	DurationMs      float64 `json:"duration_ms"`
}

// ScanResult is the output of one scan
type ScanResult struct {
	Sport           string                      `json:"sport"`
	Scope           string                      `json:"scope"`
	TargetBook      string                      `json:"target_book,omitempty"`
	ScannedAt       time.Time                   `json:"scanned_at"`
	Opportunities   []models.Opportunity        `json:"opportunities"`
	Consensus       []models.ConsensusRow       `json:"consensus"`
	Trending        []datasource.TrendingPlayer `json:"trending,omitempty"`
	Stats           ScanStats                   `json:"stats"`
	Cached          bool                        `json:"cached"`
	CacheAgeSeconds float64                     `json:"cache_age_seconds,omitempty"`
}

type cachedScan struct {
	result   *ScanResult
	storedAt time.Time
}

// ScanService runs edge scans and the slip and history operations built on them
type ScanService struct {
	settings   atomic.Pointer[Settings]
	settingsAt atomic.Int64
	quotes     datasource.QuoteSource
	trends     datasource.TrendSource
	versions   repository.ScanVersionRepository
	cache      *cache.Cache
	logger     *logrus.Logger
	scanLog    *logger.ScanLogger
	slipLog    *logger.SlipLogger
	audit      *logger.AuditLogger

	mu     sync.RWMutex
	latest *ScanResult
}

// NewScanService creates a scan service. trends and versions may be nil: smart scans then
// run without trend data and history operations return ErrHistoryDisabled.
func NewScanService(
	settings *Settings,
	quotes datasource.QuoteSource,
	trends datasource.TrendSource,
	versions repository.ScanVersionRepository,
	log *logrus.Logger,
) *ScanService {
	if settings == nil {
		settings = DefaultSettings()
	}
	s := &ScanService{
		quotes:   quotes,
		trends:   trends,
		versions: versions,
		cache:    cache.New(settings.Scanner.SmartTTL, 5*time.Minute),
		logger:   log,
		scanLog:  logger.NewScanLogger(log),
		slipLog:  logger.NewSlipLogger(log),
		audit:    logger.NewAuditLogger(log),
	}
	s.settings.Store(settings)
	s.settingsAt.Store(time.Now().UnixNano())
	return s
}

// Settings returns the current settings snapshot
func (s *ScanService) Settings() *Settings {
	return s.settings.Load()
}

// Reload swaps in a new settings snapshot and drops cached scans
func (s *ScanService) Reload(source string, settings *Settings) {
	s.settings.Store(settings)
	s.settingsAt.Store(time.Now().UnixNano())
	s.cache.Flush()
	s.audit.LogSettingsReload(source, len(settings.Registry.Weights()), len(settings.Payouts.Books()), time.Now().UTC())
}

// Latest returns the most recent uncached scan, or nil
func (s *ScanService) Latest() *ScanResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Scan fetches quotes, builds consensus and evaluates every prop cell against the fixed price
func (s *ScanService) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	st := s.Settings()
	req, err := normalizeScanRequest(st, req)
	if err != nil {
		return nil, err
	}
	params := scanParams(st.Consensus, req)

	key := scanCacheKey(req, params, st.Registry.Signature())
	if hit, ok := s.cache.Get(key); ok {
		entry := hit.(cachedScan)
		out := *entry.result
		out.Cached = true
		out.CacheAgeSeconds = models.Round(time.Since(entry.storedAt).Seconds(), 1)
		metrics.RecordScanCacheHit()
		s.scanLog.LogScanCompleted(req.Sport, req.Scope, out.Stats.QuotesFetched, out.Stats.ConsensusRows, out.Stats.PlaysFound, out.Stats.TrendRelaxed, true, 0)
		return &out, nil
	}

	start := time.Now()

	var trending []datasource.TrendingPlayer
	if req.Scope == ScopeSmart && s.trends != nil {
		trending, err = s.trends.Trending(ctx, req.Sport, req.TrendingLimit)
		if err != nil {
			metrics.RecordScanFailure(req.Sport, req.Scope)
			s.scanLog.LogSourceFailure(s.trends.Name(), req.Sport, err)
			return nil, fmt.Errorf("failed to fetch trending players: %w", err)
		}
	}

	quotes, err := s.quotes.FetchQuotes(ctx, datasource.QuoteRequest{
		Sport:    req.Sport,
		Scope:    req.Scope,
		MaxGames: req.MaxGames,
		Trending: trending,
	})
	if err != nil {
		metrics.RecordScanFailure(req.Sport, req.Scope)
		s.scanLog.LogSourceFailure(s.quotes.Name(), req.Sport, err)
		return nil, fmt.Errorf("failed to fetch quotes: %w", err)
	}

	counts := datasource.TrendCounts(trending)
	built := st.Aggregator.BuildWithRelax(quotes, counts, params)
	if built.Relaxed {
		metrics.RecordTrendRelaxation()
		s.logger.WithFields(logrus.Fields{
			"sport":           req.Sport,
			"min_trend_count": params.MinTrendCount,
			"rows":            len(built.Rows),
		}).Info("Trend filter relaxed")
	}
	s.scanLog.LogConsensusRejections(req.Sport, built.Rejected, built.Skipped)

	opps := buildOpportunities(st, quotes, built.Rows, counts, req)

	result := &ScanResult{
		Sport:         req.Sport,
		Scope:         req.Scope,
		TargetBook:    req.TargetBook,
		ScannedAt:     time.Now().UTC(),
		Opportunities: opps.rows,
		Consensus:     built.Rows,
		Trending:      trending,
		Stats: ScanStats{
			QuotesFetched:   len(quotes),
			QuotesRejected:  built.Rejected,
			QuotesSkipped:   built.Skipped,
			TotalScanned:    opps.scanned,
			Returned:        len(opps.rows),
			PlaysFound:      opps.plays,
			Calculated:      opps.calculated,
			Uncalculated:    len(opps.rows) - opps.calculated,
			ConsensusRows:   len(built.Rows),
			TrendingPlayers: len(trending),
			GamesQueried:    countEvents(quotes),
			TrendRelaxed:    built.Relaxed,
			BestEdgePct:     opps.bestEdge,
		},
	}
	elapsed := time.Since(start)
	result.Stats.DurationMs = float64(elapsed.Milliseconds())

	metrics.RecordScan(req.Sport, req.Scope, len(built.Rows), opps.plays, opps.bestEdge, elapsed.Seconds())
	s.scanLog.LogScanCompleted(req.Sport, req.Scope, len(quotes), len(built.Rows), opps.plays, built.Relaxed, false, result.Stats.DurationMs)

	s.cache.Set(key, cachedScan{result: result, storedAt: time.Now()}, st.CacheTTL(req.Scope))
	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()

	return result, nil
}

func normalizeScanRequest(st *Settings, req ScanRequest) (ScanRequest, error) {
	req.Sport = strings.ToLower(strings.TrimSpace(req.Sport))
	if req.Sport == "" {
		req.Sport = st.Scanner.Sport
	}
	if _, ok := datasource.SportKey(req.Sport); !ok {
		return req, fmt.Errorf("%w: unsupported sport %q", ErrInvalidRequest, req.Sport)
	}

	req.Scope = strings.ToLower(strings.TrimSpace(req.Scope))
	switch req.Scope {
	case "":
		req.Scope = ScopeSmart
	case ScopeSmart, ScopeFull:
	default:
		return req, fmt.Errorf("%w: scope must be smart or full, got %q", ErrInvalidRequest, req.Scope)
	}

	if req.TargetBook == "" {
		req.TargetBook = st.Scanner.TargetBook
	}
	req.TargetBook = st.Registry.Canonical(req.TargetBook)

	if req.MaxGames <= 0 {
		req.MaxGames = st.Scanner.MaxGames
	}
	if req.TrendingLimit <= 0 {
		req.TrendingLimit = st.Scanner.TrendingLimit
	}
	if req.MinBooks != nil && *req.MinBooks < 0 {
		return req, fmt.Errorf("%w: min_books must not be negative", ErrInvalidRequest)
	}
	if req.MinTrendCount != nil && *req.MinTrendCount < 0 {
		return req, fmt.Errorf("%w: min_trend_count must not be negative", ErrInvalidRequest)
	}
	return req, nil
}

// scanParams applies request overrides. The trend filter only applies to smart scans.
func scanParams(base consensus.Params, req ScanRequest) consensus.Params {
	p := base
	if req.MinBooks != nil {
		p.MinBooks = *req.MinBooks
	}
	if req.LineWindow != nil {
		p.LineWindow = *req.LineWindow
	}
	if req.MainLineOnly != nil {
		p.MainLineOnly = *req.MainLineOnly
	}
	if req.MinTrendCount != nil {
		p.MinTrendCount = *req.MinTrendCount
	}
	if req.Scope != ScopeSmart {
		p.MinTrendCount = 0
	}
	return p
}

func scanCacheKey(req ScanRequest, p consensus.Params, signature string) string {
	return fmt.Sprintf("%s|%s|g%d|t%d|%s|b%d|w%g|m%t|tr%d|%s",
		req.Scope, req.Sport, req.MaxGames, req.TrendingLimit, req.TargetBook,
		p.MinBooks, p.LineWindow, p.MainLineOnly, p.MinTrendCount, signature)
}

func countEvents(quotes []models.Quote) int {
	seen := make(map[string]struct{})
	for _, q := range quotes {
		if q.EventID != "" {
			seen[q.EventID] = struct{}{}
		}
	}
	return len(seen)
}
