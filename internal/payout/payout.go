// Package payout holds the fixed-payout schedules of the pick'em platforms.
package payout

import (
	"fmt"
	"math"
	"sort"

	"github.com/yourusername/prop-edge/internal/models"
)

// Leg-count bounds for any slip
const (
	MinLegs = 2
	MaxLegs = 6
)

// legacyDefault is paid when neither the book table nor LegacyPower covers a size
const legacyDefault = 2.0

// LegacyPower is the all-or-nothing schedule used for unknown books and modes
var LegacyPower = map[int]float64{2: 3, 3: 5, 4: 10, 5: 20, 6: 40}

// Payout is the resolved schedule for one (book, mode, size)
type Payout struct {
	// Multiplier is the all-or-nothing payout; zero for flex schedules
	Multiplier float64
	// Hits maps hit count to multiplier for partial-payout schedules
	Hits map[int]float64
}

// IsFlex reports whether the payout has partial tiers
func (p Payout) IsFlex() bool {
	return p.Hits != nil
}

// Display returns the headline multiplier: the all-hit tier for flex, else Multiplier
func (p Payout) Display(size int) float64 {
	if !p.IsFlex() {
		return p.Multiplier
	}
	if m, ok := p.Hits[size]; ok {
		return m
	}
	top := -1
	for k := range p.Hits {
		if k > top {
			top = k
		}
	}
	return p.Hits[top]
}

// ModeSpec describes one payout mode of a book. Exactly one of Power, Flex or LadderBase is set.
type ModeSpec struct {
	Name string
	// Power maps leg count to an all-or-nothing multiplier
	Power map[int]float64
	// Flex maps leg count to hit count to multiplier
	Flex map[int]map[int]float64
	// LadderBase generates Power as round(base^n, 2) for every allowed leg count
	LadderBase float64
}

// Book is the validated, immutable payout schedule of one platform
type Book struct {
	name  string
	modes []string
	power map[string]map[int]float64
	flex  map[string]map[int]map[int]float64
}

// NewBook validates specs and builds a book. Mode order is kept; the first mode is the fallback
// for unknown mode names.
func NewBook(name string, specs []ModeSpec) (*Book, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: payout book needs a name", models.ErrConfiguration)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: payout book %q has no modes", models.ErrConfiguration, name)
	}

	b := &Book{
		name:  name,
		power: make(map[string]map[int]float64),
		flex:  make(map[string]map[int]map[int]float64),
	}
	for _, spec := range specs {
		if err := b.addMode(spec); err != nil {
			return nil, fmt.Errorf("%w: book %q: %v", models.ErrConfiguration, name, err)
		}
	}
	return b, nil
}

func (b *Book) addMode(spec ModeSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("mode needs a name")
	}
	if b.HasMode(spec.Name) {
		return fmt.Errorf("duplicate mode %q", spec.Name)
	}

	kinds := 0
	if len(spec.Power) > 0 {
		kinds++
	}
	if len(spec.Flex) > 0 {
		kinds++
	}
	if spec.LadderBase != 0 {
		kinds++
	}
	if kinds != 1 {
		return fmt.Errorf("mode %q must set exactly one of power, flex or ladder", spec.Name)
	}

	switch {
	case spec.LadderBase != 0:
		if !finitePositive(spec.LadderBase) || spec.LadderBase < 1 {
			return fmt.Errorf("mode %q: ladder base must be at least 1, got %v", spec.Name, spec.LadderBase)
		}
		b.power[spec.Name] = Ladder(spec.LadderBase)
	case len(spec.Power) > 0:
		table := make(map[int]float64, len(spec.Power))
		for n, m := range spec.Power {
			if err := checkLegs(n); err != nil {
				return fmt.Errorf("mode %q: %v", spec.Name, err)
			}
			if !finitePositive(m) {
				return fmt.Errorf("mode %q: multiplier for %d legs must be positive, got %v", spec.Name, n, m)
			}
			table[n] = m
		}
		b.power[spec.Name] = table
	default:
		table := make(map[int]map[int]float64, len(spec.Flex))
		for n, hits := range spec.Flex {
			if err := checkLegs(n); err != nil {
				return fmt.Errorf("mode %q: %v", spec.Name, err)
			}
			tiers := make(map[int]float64, len(hits))
			paying := false
			for k, m := range hits {
				if k < 0 || k > n {
					return fmt.Errorf("mode %q: hit count %d out of range for %d legs", spec.Name, k, n)
				}
				if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 {
					return fmt.Errorf("mode %q: multiplier for %d of %d must be non-negative, got %v", spec.Name, k, n, m)
				}
				if m > 0 {
					paying = true
				}
				tiers[k] = m
			}
			if !paying {
				return fmt.Errorf("mode %q: flex table for %d legs pays nothing", spec.Name, n)
			}
			table[n] = tiers
		}
		b.flex[spec.Name] = table
	}

	b.modes = append(b.modes, spec.Name)
	return nil
}

// Name returns the book key
func (b *Book) Name() string {
	return b.name
}

// Modes returns the mode names in declaration order
func (b *Book) Modes() []string {
	return append([]string(nil), b.modes...)
}

// HasMode reports whether the book defines mode
func (b *Book) HasMode(mode string) bool {
	_, power := b.power[mode]
	_, flex := b.flex[mode]
	return power || flex
}

// ResolveMode returns mode when the book defines it, otherwise the book's first mode
func (b *Book) ResolveMode(mode string) string {
	if b.HasMode(mode) {
		return mode
	}
	return b.modes[0]
}

// Sizes returns the leg counts the mode pays, ascending
func (b *Book) Sizes(mode string) []int {
	var sizes []int
	if t, ok := b.power[mode]; ok {
		for n := range t {
			sizes = append(sizes, n)
		}
	}
	if t, ok := b.flex[mode]; ok {
		for n := range t {
			sizes = append(sizes, n)
		}
	}
	sort.Ints(sizes)
	return sizes
}

// lookup returns the payout for (mode, size) and whether the book covers it
func (b *Book) lookup(mode string, size int) (Payout, bool) {
	if t, ok := b.power[mode]; ok {
		m, ok := t[size]
		return Payout{Multiplier: m}, ok
	}
	if t, ok := b.flex[mode]; ok {
		tiers, ok := t[size]
		if !ok {
			return Payout{}, false
		}
		hits := make(map[int]float64, len(tiers))
		for k, m := range tiers {
			hits[k] = m
		}
		return Payout{Hits: hits}, true
	}
	return Payout{}, false
}

// Table is the set of payout books keyed by canonical book name. It is immutable once built.
type Table struct {
	books map[string]*Book
}

// NewTable builds a table from books; duplicate book names are a configuration error
func NewTable(books ...*Book) (*Table, error) {
	t := &Table{books: make(map[string]*Book, len(books))}
	for _, b := range books {
		if _, dup := t.books[b.name]; dup {
			return nil, fmt.Errorf("%w: duplicate payout book %q", models.ErrConfiguration, b.name)
		}
		t.books[b.name] = b
	}
	return t, nil
}

// Book returns the schedule for a canonical book name
func (t *Table) Book(name string) (*Book, bool) {
	b, ok := t.books[name]
	return b, ok
}

// Books returns the configured book names, sorted
func (t *Table) Books() []string {
	names := make([]string, 0, len(t.books))
	for name := range t.books {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveMode maps an unknown mode to the book's first mode. Unknown books keep mode as given.
func (t *Table) ResolveMode(book, mode string) string {
	if b, ok := t.books[book]; ok {
		return b.ResolveMode(mode)
	}
	return mode
}

// Lookup returns the payout for (book, mode, size). An unknown book or mode, or a size the mode
// does not cover, falls back to the LegacyPower schedule.
func (t *Table) Lookup(book, mode string, size int) Payout {
	if b, ok := t.books[book]; ok {
		if p, ok := b.lookup(mode, size); ok {
			return p
		}
	}
	if m, ok := LegacyPower[size]; ok {
		return Payout{Multiplier: m}
	}
	return Payout{Multiplier: legacyDefault}
}

// Ladder generates an all-or-nothing schedule of round(base^n, 2) for every allowed leg count
func Ladder(base float64) map[int]float64 {
	table := make(map[int]float64, MaxLegs-MinLegs+1)
	for n := MinLegs; n <= MaxLegs; n++ {
		table[n] = models.Round(math.Pow(base, float64(n)), 2)
	}
	return table
}

func checkLegs(n int) error {
	if n < MinLegs || n > MaxLegs {
		return fmt.Errorf("leg count %d outside %d-%d", n, MinLegs, MaxLegs)
	}
	return nil
}

func finitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
