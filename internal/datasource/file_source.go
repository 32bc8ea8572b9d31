package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/yourusername/prop-edge/internal/models"
)

const fileSourceName = "file"

// FileQuoteSource reads quotes from a JSON file, either a bare array or {"quotes": [...]}
type FileQuoteSource struct {
	path string
}

// NewFileQuoteSource creates a QuoteSource that replays a saved quote file
func NewFileQuoteSource(path string) *FileQuoteSource {
	return &FileQuoteSource{path: path}
}

// Name returns the name of the data source
func (s *FileQuoteSource) Name() string {
	return fileSourceName
}

// FetchQuotes returns every quote in the file. The request only bounds MaxGames by event.
func (s *FileQuoteSource) FetchQuotes(ctx context.Context, req QuoteRequest) ([]models.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, NewSourceError(fileSourceName, ErrCodeNotFound, fmt.Sprintf("failed to read %s", s.path), err)
	}

	quotes, err := DecodeQuotes(data)
	if err != nil {
		return nil, NewSourceError(fileSourceName, ErrCodeInvalidData, fmt.Sprintf("failed to parse %s", s.path), err)
	}

	return limitEvents(quotes, req.MaxGames), nil
}

// DecodeQuotes parses a bare quote array or an object with a quotes field
func DecodeQuotes(data []byte) ([]models.Quote, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var quotes []models.Quote
		if err := json.Unmarshal(data, &quotes); err != nil {
			return nil, err
		}
		return quotes, nil
	}

	var wrapped struct {
		Quotes []models.Quote `json:"quotes"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Quotes, nil
}

// limitEvents keeps quotes from the first maxGames distinct events in file order
func limitEvents(quotes []models.Quote, maxGames int) []models.Quote {
	if maxGames <= 0 {
		return quotes
	}
	seen := make(map[string]struct{})
	out := quotes[:0:0]
	for _, q := range quotes {
		if _, ok := seen[q.EventID]; !ok {
			if len(seen) >= maxGames {
				continue
			}
			seen[q.EventID] = struct{}{}
		}
		out = append(out, q)
	}
	return out
}
