package models

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSide(t *testing.T) {
	tests := []struct {
		raw  string
		side Side
		ok   bool
	}{
		{"over", SideOver, true},
		{" Under ", SideUnder, true},
		{"OVER", SideOver, true},
		{"push", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			side, ok := ParseSide(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.side, side)
		})
	}

	assert.Equal(t, SideUnder, SideOver.Opposite())
	assert.Equal(t, SideOver, SideUnder.Opposite())
}

func TestValidateAmericanOdds(t *testing.T) {
	for _, odds := range []int{-110, -100, 100, 250, -5000} {
		assert.NoError(t, ValidateAmericanOdds(odds), "odds %d", odds)
	}
	for _, odds := range []int{0, 50, -99, 99} {
		assert.ErrorIs(t, ValidateAmericanOdds(odds), ErrInvalidOdds, "odds %d", odds)
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 58.82, Round(58.823529, 2))
	assert.Equal(t, 0.5368, Round(0.536796, 4))
	assert.Equal(t, 2.5, Round(2.45, 1))
	assert.Equal(t, -2.5, Round(-2.45, 1))
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
	assert.True(t, math.IsInf(Round(math.Inf(1), 2), 1))
}

func TestConsensusProbPct(t *testing.T) {
	row := ConsensusRow{ConsensusProbability: 0.536796}
	assert.Equal(t, 53.68, row.ConsensusProbPct())
}

func TestSlipCandidateRanked(t *testing.T) {
	c := SlipCandidate{
		Legs: []Leg{
			{PlayerName: "Jayson Tatum", Market: "player_points", Line: 27.5, Side: SideOver, EdgePct: 4.2},
			{PlayerName: "Nikola Jokic", Market: "player_assists", Line: 9.5, Side: SideUnder, EdgePct: 3.1},
		},
		Book:             "sleeper",
		Mode:             ModePower,
		WinProbability:   0.301234,
		PayoutMultiplier: 3.06,
		ExpectedValue:    -0.078224,
		CombinedEdge:     -2.555,
		AvgLegConfidence: 0.612345,
	}

	r := c.Ranked(2)
	assert.Equal(t, 2, r.Rank)
	assert.Equal(t, 2, r.SlipSize)
	assert.Equal(t, 30.12, r.WinProbabilityPct)
	assert.Equal(t, -7.82, r.ExpectedValuePct)
	assert.Equal(t, -2.56, r.CombinedEdgePct)
	assert.Equal(t, 0.6123, r.AvgLegConfidence)
	require.Len(t, r.Players, 2)
	assert.Equal(t, "Nikola Jokic", r.Players[1].PlayerName)
	assert.Equal(t, SideUnder, r.Players[1].Side)
}

func TestLegs(t *testing.T) {
	opps := []Opportunity{
		{Leg: Leg{PlayerName: "A"}, EventID: "1"},
		{Leg: Leg{PlayerName: "B"}, EventID: "2"},
	}
	legs := Legs(opps)
	require.Len(t, legs, 2)
	assert.Equal(t, "B", legs[1].PlayerName)
}

func TestScanVersionNormalize(t *testing.T) {
	v := ScanVersion{
		Results: make([]Opportunity, MaxResultsPerVersion+10),
		Slips:   make([]RankedSlip, 3),
	}
	v.Normalize()

	assert.NotEqual(t, uuid.Nil, v.ID)
	assert.WithinDuration(t, time.Now().UTC(), v.CreatedAt, time.Minute)
	assert.Equal(t, "nba", v.Sport)
	assert.Equal(t, "smart", v.Scope)
	assert.Len(t, v.Results, MaxResultsPerVersion)
	assert.Equal(t, MaxResultsPerVersion, v.ResultsCount)
	assert.Equal(t, MaxResultsPerVersion, v.TotalScanned)
	assert.Equal(t, 3, v.SlipCount)

	id := v.ID
	v.TotalScanned = 9000
	v.Normalize()
	assert.Equal(t, id, v.ID)
	assert.Equal(t, 9000, v.TotalScanned)
}
