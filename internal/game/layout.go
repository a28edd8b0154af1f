// internal/game/layout.go
package game

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/xkilldash9x/arenabot/internal/config"
	"github.com/xkilldash9x/arenabot/internal/geom"
)

// NumSlots is the number of playable cards in hand.
const NumSlots = 4

// Layout is the fixed card tray and arena geometry.
type Layout struct {
	SlotX   [NumSlots]float64
	SlotY   float64
	Targets []geom.Point
	Arena   geom.Area
}

// LayoutFromConfig converts and validates the layout section.
func LayoutFromConfig(cfg config.LayoutConfig) (Layout, error) {
	var l Layout
	if len(cfg.CardSlotX) != NumSlots {
		return l, fmt.Errorf("expected %d card slots, got %d", NumSlots, len(cfg.CardSlotX))
	}
	copy(l.SlotX[:], cfg.CardSlotX)
	l.SlotY = cfg.CardSlotY

	for i, pair := range cfg.DropTargets {
		p, err := pointFromPair(pair)
		if err != nil {
			return l, fmt.Errorf("drop target %d: %w", i, err)
		}
		l.Targets = append(l.Targets, p)
	}
	l.Arena = geom.Area{
		Left:   cfg.Arena.Left,
		Top:    cfg.Arena.Top,
		Right:  cfg.Arena.Right,
		Bottom: cfg.Arena.Bottom,
	}
	return l, l.Validate()
}

// Validate checks that every position lies inside the unit square.
func (l Layout) Validate() error {
	for i := range l.SlotX {
		if !l.Slot(i).InUnit() {
			return fmt.Errorf("card slot %d out of range: %+v", i, l.Slot(i))
		}
	}
	if len(l.Targets) == 0 {
		return errors.New("at least one drop target is required")
	}
	for i, t := range l.Targets {
		if !t.InUnit() {
			return fmt.Errorf("drop target %d out of range: %+v", i, t)
		}
	}
	return l.Arena.Validate()
}

// Slot returns the centre of card slot i.
func (l Layout) Slot(i int) geom.Point {
	return geom.Pt(l.SlotX[i], l.SlotY)
}

// Selector picks the next card slot and drop target.
type Selector struct {
	layout    Layout
	randomize bool
	rng       *rand.Rand
	n         int
}

// NewSelector creates a selector. In ordered mode slots cycle 0,1,2,3 and
// targets cycle in configuration order; otherwise both are uniform picks from
// rng.
func NewSelector(l Layout, randomize bool, rng *rand.Rand) *Selector {
	if randomize && rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Selector{layout: l, randomize: randomize, rng: rng}
}

// Next returns the slot index and the un-jittered drop target of the next
// deploy.
func (s *Selector) Next() (int, geom.Point) {
	defer func() { s.n++ }()
	if s.randomize {
		return s.rng.IntN(NumSlots), s.layout.Targets[s.rng.IntN(len(s.layout.Targets))]
	}
	return s.n % NumSlots, s.layout.Targets[s.n%len(s.layout.Targets)]
}

// Count returns how many selections have been made.
func (s *Selector) Count() int { return s.n }
