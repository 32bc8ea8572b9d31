package payout

import (
	"sort"

	"github.com/yourusername/prop-edge/internal/models"
)

// DefaultSpecs returns the stock schedules per book
func DefaultSpecs() map[string][]ModeSpec {
	return map[string][]ModeSpec{
		"prizepicks": {
			{
				Name:  models.ModePower,
				Power: map[int]float64{2: 3, 3: 5, 4: 10, 5: 20},
			},
			{
				Name: models.ModeFlex,
				Flex: map[int]map[int]float64{
					3: {3: 2.25, 2: 1.25},
					4: {4: 5, 3: 1.5},
					5: {5: 10, 4: 2, 3: 0.4},
					6: {6: 25, 5: 2, 4: 0.4},
				},
			},
		},
		"underdog": {
			{
				Name:  models.ModeStandard,
				Power: map[int]float64{3: 6, 4: 10, 5: 20, 6: 40},
			},
			{
				Name: models.ModeInsured,
				Flex: map[int]map[int]float64{
					3: {3: 3, 2: 1},
					4: {4: 6, 3: 1.5},
					5: {5: 10, 4: 2.5},
					6: {6: 20, 5: 2.5},
				},
			},
		},
		"sleeper": {
			{Name: models.ModePower, LadderBase: 1.75},
		},
	}
}

// FromSpecs builds a table from per-book specs, books in name order
func FromSpecs(specs map[string][]ModeSpec) (*Table, error) {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	books := make([]*Book, 0, len(names))
	for _, name := range names {
		b, err := NewBook(name, specs[name])
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return NewTable(books...)
}

// DefaultTable returns the stock payout table
func DefaultTable() *Table {
	t, err := FromSpecs(DefaultSpecs())
	if err != nil {
		panic(err)
	}
	return t
}
