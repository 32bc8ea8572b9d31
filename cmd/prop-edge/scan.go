package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/prop-edge/internal/datasource"
	applogger "github.com/yourusername/prop-edge/internal/logger"
	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/repository"
	"github.com/yourusername/prop-edge/internal/service"
)

var (
	scanSport     string
	scanScope     string
	scanTarget    string
	scanMaxGames  int
	scanTrending  int
	scanQuotes    string
	scanPlaysOnly bool

	slipsInput   string
	slipsBook    string
	slipsMode    string
	slipsSizes   []int
	slipsTopN    int
	slipsMinEdge float64

	trendingSport string
	trendingLimit int
)

func init() {
	for _, cmd := range []*cobra.Command{scanCmd, slipsCmd} {
		cmd.Flags().StringVar(&scanSport, "sport", "", "Sport to scan (defaults to scanner.sport)")
		cmd.Flags().StringVar(&scanScope, "scope", service.ScopeSmart, "Scan scope: smart or full")
		cmd.Flags().StringVar(&scanTarget, "target", "", "Only return rows the target book can price")
		cmd.Flags().IntVar(&scanMaxGames, "max-games", 0, "Maximum events queried in full scope")
		cmd.Flags().IntVar(&scanTrending, "trending-limit", 0, "Number of trending players fetched in smart scope")
		cmd.Flags().StringVar(&scanQuotes, "quotes", "", "Read quotes from a JSON file instead of the odds API")
	}
	scanCmd.Flags().BoolVar(&scanPlaysOnly, "plays-only", false, "Only print rows that clear the edge threshold")

	slipsCmd.Flags().StringVarP(&slipsInput, "input", "i", "", "Opportunities JSON file (a scan result or a list of rows); scans when empty")
	slipsCmd.Flags().StringVar(&slipsBook, "book", "", "Pick'em book (defaults to slips.book)")
	slipsCmd.Flags().StringVar(&slipsMode, "mode", "", "Payout mode: power or flex")
	slipsCmd.Flags().IntSliceVar(&slipsSizes, "sizes", nil, "Slip sizes to build")
	slipsCmd.Flags().IntVar(&slipsTopN, "top", 0, "Slips returned per size")
	slipsCmd.Flags().Float64Var(&slipsMinEdge, "min-edge", 0, "Minimum leg edge in percentage points")

	trendingCmd.Flags().StringVar(&trendingSport, "sport", "", "Sport (defaults to scanner.sport)")
	trendingCmd.Flags().IntVar(&trendingLimit, "limit", 0, "Players returned (defaults to scanner.trending_limit, at most 200)")
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan player props for edges",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := runScan(cmd.Context())
		if err != nil {
			return err
		}
		if scanPlaysOnly {
			plays := make([]models.Opportunity, 0, result.Stats.PlaysFound)
			for _, o := range result.Opportunities {
				if o.IsPlay {
					plays = append(plays, o)
				}
			}
			result.Opportunities = plays
		}
		return printJSON(result)
	},
}

var slipsCmd = &cobra.Command{
	Use:   "slips",
	Short: "Build ranked pick'em slips",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := service.SlipRequest{
			Book:  slipsBook,
			Mode:  slipsMode,
			Sport: scanSport,
			Sizes: slipsSizes,
			TopN:  slipsTopN,
		}
		if cmd.Flags().Changed("min-edge") {
			req.MinEdge = &slipsMinEdge
		}

		svc := newScanService(nil)
		if slipsInput != "" {
			rows, err := readOpportunities(slipsInput)
			if err != nil {
				return err
			}
			for _, o := range rows {
				if o.EligibleForSlip {
					req.Legs = append(req.Legs, o.Leg)
				}
			}
			if len(req.Legs) == 0 {
				return fmt.Errorf("no slip-eligible rows in %s", slipsInput)
			}
		} else {
			// BuildSlips falls back to the latest scan when no legs are given
			if _, err := scanWith(cmd.Context(), svc); err != nil {
				return err
			}
		}

		res, err := svc.BuildSlips(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "List players trending on the fantasy platform",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newScanService(nil).Trending(cmd.Context(), trendingSport, trendingLimit)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

// newScanService wires the configured quote and trend sources. Offline quote files run
// without trend data.
func newScanService(versions repository.ScanVersionRepository) *service.ScanService {
	factory := datasource.NewFactory(cfg, logger)
	audit := applogger.NewAuditLogger(logger)
	factory.OnCircuitTrip(func(source string, failures int) {
		audit.LogCircuitBreakerEvent(source, "open", failures)
	})

	var trends datasource.TrendSource
	if scanQuotes == "" {
		trends = factory.NewTrendSource()
	}
	return service.NewScanService(settings, factory.NewQuoteSource(scanQuotes), trends, versions, logger)
}

func runScan(ctx context.Context) (*service.ScanResult, error) {
	return scanWith(ctx, newScanService(nil))
}

func scanWith(ctx context.Context, svc *service.ScanService) (*service.ScanResult, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ScanTimeout())
	defer cancel()

	return svc.Scan(ctx, service.ScanRequest{
		Sport:         scanSport,
		Scope:         scanScope,
		TargetBook:    scanTarget,
		MaxGames:      scanMaxGames,
		TrendingLimit: scanTrending,
	})
}

// readOpportunities accepts either a saved scan result or a bare list of rows
func readOpportunities(path string) ([]models.Opportunity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read opportunities: %w", err)
	}

	var rows []models.Opportunity
	if err := json.Unmarshal(data, &rows); err == nil {
		return rows, nil
	}

	var result service.ScanResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse opportunities in %s: %w", path, err)
	}
	return result.Opportunities, nil
}
