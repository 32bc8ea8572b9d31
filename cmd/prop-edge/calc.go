package main

import (
	"github.com/spf13/cobra"

	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/oddsmath"
)

var (
	edgeSharp    int
	edgeOpposing int

	evOdds       int
	evProb       float64
	evStake      float64
	evOpposing   int
	evConfidence float64

	middle middleFlags
)

type middleFlags struct {
	player     string
	stat       string
	dfsLine    float64
	sharpLine  float64
	dfsOdds    int
	sharpOdds  int
	stdDev     float64
	confidence float64
	platform   string
	book       string
}

func init() {
	edgeCmd.Flags().IntVar(&edgeSharp, "sharp", 0, "Sharp American odds of the side")
	edgeCmd.Flags().IntVar(&edgeOpposing, "opposing", 0, "American odds of the opposite side, used to devig")
	_ = edgeCmd.MarkFlagRequired("sharp")

	evCmd.Flags().IntVar(&evOdds, "odds", 0, "American odds offered")
	evCmd.Flags().Float64Var(&evProb, "prob", 0, "Your win probability (0-1)")
	evCmd.Flags().Float64Var(&evStake, "stake", 100, "Stake")
	evCmd.Flags().IntVar(&evOpposing, "opposing", 0, "American odds of the opposite side")
	evCmd.Flags().Float64Var(&evConfidence, "confidence", 1.0, "Confidence in --prob; below 1 blends toward the devigged market")
	_ = evCmd.MarkFlagRequired("odds")
	_ = evCmd.MarkFlagRequired("prob")

	f := middleCmd.Flags()
	f.StringVar(&middle.player, "player", "", "Player name")
	f.StringVar(&middle.stat, "stat", "", "Stat or market; picks the default spread (points, yards, assists, rebounds)")
	f.Float64Var(&middle.dfsLine, "dfs-line", 0, "Pick'em line")
	f.Float64Var(&middle.sharpLine, "sharp-line", 0, "Sportsbook line")
	f.IntVar(&middle.dfsOdds, "dfs-odds", oddsmath.DefaultMiddleOdds, "American odds on the pick'em side")
	f.IntVar(&middle.sharpOdds, "sharp-odds", oddsmath.DefaultMiddleOdds, "American odds on the sportsbook side")
	f.Float64Var(&middle.stdDev, "std-dev", 0, "Outcome standard deviation; 0 uses the per-stat default")
	f.Float64Var(&middle.confidence, "confidence", oddsmath.DefaultMarketConfidence, "Weight of the sportsbook line in the outcome mean (0-1)")
	f.StringVar(&middle.platform, "platform", "prizepicks", "Pick'em platform")
	f.StringVar(&middle.book, "book", "pinnacle", "Sportsbook")
	_ = middleCmd.MarkFlagRequired("dfs-line")
	_ = middleCmd.MarkFlagRequired("sharp-line")
}

type edgeOutput struct {
	models.PropOpportunity
	EdgePct float64 `json:"edge_pct"`
}

var edgeCmd = &cobra.Command{
	Use:   "edge",
	Short: "Check a single prop against the fixed pick'em price",
	RunE: func(cmd *cobra.Command, args []string) error {
		var opposing *int
		if cmd.Flags().Changed("opposing") {
			opposing = &edgeOpposing
		}
		opp, err := settings.Evaluator.Evaluate(edgeSharp, opposing)
		if err != nil {
			return err
		}
		return printJSON(edgeOutput{PropOpportunity: opp, EdgePct: models.Round(opp.EdgePct(), 2)})
	},
}

var evCmd = &cobra.Command{
	Use:   "ev",
	Short: "Expected value and Kelly sizing of a straight bet",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := oddsmath.BetInput{
			Odds:        evOdds,
			Probability: evProb,
			Stake:       evStake,
			Confidence:  evConfidence,
		}
		if cmd.Flags().Changed("opposing") {
			in.OpposingOdds = &evOpposing
		}
		res, err := oddsmath.CalculateBetEV(in)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var middleCmd = &cobra.Command{
	Use:   "middle",
	Short: "Check a pick'em line and a sportsbook line for a middle",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := oddsmath.FindMiddle(oddsmath.MiddleInput{
			PlayerName:       middle.player,
			Stat:             middle.stat,
			DFSLine:          middle.dfsLine,
			SharpLine:        middle.sharpLine,
			DFSOdds:          middle.dfsOdds,
			SharpOdds:        middle.sharpOdds,
			LineStdDev:       middle.stdDev,
			MarketConfidence: middle.confidence,
			DFSPlatform:      middle.platform,
			SharpBook:        middle.book,
		})
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}
