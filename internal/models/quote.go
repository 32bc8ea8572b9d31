package models

import (
	"fmt"
	"strings"
)

// Side represents the side of a player prop (over or under)
type Side string

const (
	SideOver  Side = "over"
	SideUnder Side = "under"
)

// ParseSide normalizes a raw side label. ok is false for anything that is not over or under.
func ParseSide(raw string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "over":
		return SideOver, true
	case "under":
		return SideUnder, true
	default:
		return "", false
	}
}

// Opposite returns the other side of the prop
func (s Side) Opposite() Side {
	if s == SideOver {
		return SideUnder
	}
	return SideOver
}

// Quote is one sportsbook's price for one side of a player prop
type Quote struct {
	EventID      string  `json:"event_id"`
	CommenceTime string  `json:"commence_time,omitempty"`
	HomeTeam     string  `json:"home_team,omitempty"`
	AwayTeam     string  `json:"away_team,omitempty"`
	PlayerName   string  `json:"player_name"`
	Market       string  `json:"market"`
	Line         float64 `json:"line"`
	Side         Side    `json:"side"`
	Book         string  `json:"book"`
	Odds         int     `json:"odds"`
}

// Validate checks the odds are a usable American price
func (q Quote) Validate() error {
	return ValidateAmericanOdds(q.Odds)
}

// ValidateAmericanOdds rejects zero and the open interval (-100, 100)
func ValidateAmericanOdds(odds int) error {
	if odds == 0 || (odds > -100 && odds < 100) {
		return fmt.Errorf("%w: %d", ErrInvalidOdds, odds)
	}
	return nil
}

// BookPrice is a single book's price inside a consensus cell
type BookPrice struct {
	Book           string  `json:"book"`
	Odds           int     `json:"odds"`
	Weight         float64 `json:"weight"`
	ImpliedProbPct float64 `json:"implied_prob_pct"`
}
