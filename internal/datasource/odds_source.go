package datasource

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/prop-edge/internal/models"
)

// OddsAPISource selects events and reads their props from the odds API
type OddsAPISource struct {
	client *OddsAPIClient
	logger *logrus.Entry
}

// NewOddsAPISource creates a QuoteSource backed by the odds API
func NewOddsAPISource(client *OddsAPIClient, logger *logrus.Logger) *OddsAPISource {
	if logger == nil {
		logger = logrus.New()
	}
	return &OddsAPISource{
		client: client,
		logger: logger.WithField("source", oddsAPISourceName),
	}
}

// Name returns the name of the data source
func (s *OddsAPISource) Name() string {
	return s.client.Name()
}

// FetchQuotes lists events, selects up to MaxGames of them and flattens their props.
// Smart scope keeps only games featuring a trending player's team, most trending teams first.
// Credential and quota errors abort the scan; other per-event failures skip the event.
func (s *OddsAPISource) FetchQuotes(ctx context.Context, req QuoteRequest) ([]models.Quote, error) {
	events, err := s.client.Events(ctx, req.Sport)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var selected []Event
	if req.Scope == ScopeFull {
		selected = firstEvents(events, req.MaxGames)
	} else {
		selected = selectTrendingEvents(req.Sport, events, req.Trending, req.MaxGames)
		if len(selected) == 0 {
			s.logger.WithFields(logrus.Fields{
				"sport":    req.Sport,
				"events":   len(events),
				"trending": len(req.Trending),
			}).Info("No games feature trending teams")
			return nil, nil
		}
	}

	s.logger.WithFields(logrus.Fields{
		"sport":    req.Sport,
		"scope":    req.Scope,
		"events":   len(events),
		"selected": len(selected),
	}).Debug("Selected events for scan")

	var quotes []models.Quote
	for _, event := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		eventQuotes, err := s.client.EventProps(ctx, req.Sport, event, nil)
		if err != nil {
			if IsFatal(err) {
				return nil, err
			}
			s.logger.WithError(err).WithField("event_id", event.ID).Warn("Failed to fetch event props")
			continue
		}
		quotes = append(quotes, eventQuotes...)
	}
	return quotes, nil
}

func firstEvents(events []Event, maxGames int) []Event {
	if maxGames > 0 && len(events) > maxGames {
		return events[:maxGames]
	}
	return events
}

// selectTrendingEvents scores each event by how many of its two teams are trending
func selectTrendingEvents(sport string, events []Event, trending []TrendingPlayer, maxGames int) []Event {
	teams := make(map[string]struct{})
	for _, p := range trending {
		if name, ok := TeamName(sport, p.Team); ok {
			teams[name] = struct{}{}
		}
	}
	if len(teams) == 0 {
		return nil
	}

	type scoredEvent struct {
		score int
		event Event
	}
	var scored []scoredEvent
	for _, e := range events {
		score := 0
		if _, ok := teams[e.HomeTeam]; ok {
			score++
		}
		if _, ok := teams[e.AwayTeam]; ok {
			score++
		}
		if score > 0 {
			scored = append(scored, scoredEvent{score: score, event: e})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	selected := make([]Event, 0, len(scored))
	for _, se := range scored {
		selected = append(selected, se.event)
	}
	return firstEvents(selected, maxGames)
}
