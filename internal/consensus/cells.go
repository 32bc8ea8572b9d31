package consensus

import (
	"sort"
	"strings"

	"github.com/yourusername/prop-edge/internal/models"
)

// CellKey identifies one (player, market, line, side) prop cell
type CellKey struct {
	Player string
	Market string
	Line   float64
	Side   models.Side
}

// Opposite returns the key of the other side at the same line
func (k CellKey) Opposite() CellKey {
	k.Side = k.Side.Opposite()
	return k
}

type propKey struct {
	player string
	market string
	side   models.Side
}

func (k CellKey) prop() propKey {
	return propKey{player: k.Player, market: k.Market, side: k.Side}
}

// Cell is every quote for one CellKey, in arrival order
type Cell struct {
	Key    CellKey
	Quotes []models.Quote
}

// GroupCells groups quotes by CellKey in first-seen order. Quotes whose side is neither over
// nor under are dropped; skipped counts them.
func GroupCells(quotes []models.Quote) (cells []*Cell, skipped int) {
	index := make(map[CellKey]*Cell)
	for _, q := range quotes {
		side, ok := models.ParseSide(string(q.Side))
		if !ok {
			skipped++
			continue
		}
		q.Side = side
		key := CellKey{
			Player: strings.TrimSpace(q.PlayerName),
			Market: strings.TrimSpace(q.Market),
			Line:   q.Line,
			Side:   side,
		}
		c, ok := index[key]
		if !ok {
			c = &Cell{Key: key}
			index[key] = c
			cells = append(cells, c)
		}
		c.Quotes = append(c.Quotes, q)
	}
	return cells, skipped
}

// SortCells orders cells by lowercase player, lowercase market, line, then side
func SortCells(cells []*Cell) {
	sort.SliceStable(cells, func(i, j int) bool {
		a, b := cells[i].Key, cells[j].Key
		if pa, pb := strings.ToLower(a.Player), strings.ToLower(b.Player); pa != pb {
			return pa < pb
		}
		if ma, mb := strings.ToLower(a.Market), strings.ToLower(b.Market); ma != mb {
			return ma < mb
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Side < b.Side
	})
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
