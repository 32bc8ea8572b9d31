package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxResultsPerVersion caps the opportunity rows stored with one scan version
const MaxResultsPerVersion = 4000

// ScanVersion is a saved snapshot of a scan and the slips built from it
type ScanVersion struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	Sport           string        `db:"sport" json:"sport"`
	Scope           string        `db:"scan_scope" json:"scan_scope"`
	TrendingPlayers int           `db:"trending_players" json:"trending_players"`
	TotalScanned    int           `db:"total_scanned" json:"total_scanned"`
	PlaysFound      int           `db:"plays_found" json:"plays_found"`
	GamesQueried    int           `db:"games_queried" json:"games_queried"`
	ResultsCount    int           `db:"results_count" json:"results_count"`
	SlipCount       int           `db:"slip_count" json:"slip_count"`
	Results         []Opportunity `db:"results" json:"results"`
	Slips           []RankedSlip  `db:"slips" json:"slips"`
	LockedKeys      []string      `db:"locked_keys" json:"locked_keys"`
}

// Normalize fills defaults, caps stored results and recomputes the counts
func (v *ScanVersion) Normalize() {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	if v.Sport == "" {
		v.Sport = "nba"
	}
	if v.Scope == "" {
		v.Scope = "smart"
	}
	if len(v.Results) > MaxResultsPerVersion {
		v.Results = v.Results[:MaxResultsPerVersion]
	}
	if v.TotalScanned == 0 {
		v.TotalScanned = len(v.Results)
	}
	v.ResultsCount = len(v.Results)
	v.SlipCount = len(v.Slips)
}
