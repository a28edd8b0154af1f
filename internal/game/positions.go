// internal/game/positions.go
package game

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/xkilldash9x/arenabot/internal/config"
	"github.com/xkilldash9x/arenabot/internal/geom"
)

// Names of the calibratable UI positions.
const (
	BattleButton    = "battle_button"
	OKButton        = "ok_button"
	PlayAgainButton = "play_again_button"
)

var (
	// ErrUnknownPosition is returned for a name the registry was not seeded with.
	ErrUnknownPosition = errors.New("unknown ui position")
	// ErrOutOfRange is returned for coordinates outside [0,1].
	ErrOutOfRange = errors.New("position out of range")
)

// Registry holds the named button positions. It is seeded once from
// configuration; calibration may overwrite individual entries.
type Registry struct {
	mu        sync.RWMutex
	positions map[string]geom.Point
}

// NewRegistry creates a registry seeded with the given positions.
func NewRegistry(seed map[string]geom.Point) (*Registry, error) {
	r := &Registry{positions: make(map[string]geom.Point, len(seed))}
	for name, p := range seed {
		if !p.InUnit() {
			return nil, fmt.Errorf("%w: %s=%+v", ErrOutOfRange, name, p)
		}
		r.positions[name] = p
	}
	return r, nil
}

// RegistryFromConfig seeds the three standard buttons from the ui section.
func RegistryFromConfig(cfg config.UIConfig) (*Registry, error) {
	seed := map[string]geom.Point{}
	for name, pair := range map[string][]float64{
		BattleButton:    cfg.BattleButton,
		OKButton:        cfg.OKButton,
		PlayAgainButton: cfg.PlayAgainButton,
	} {
		p, err := pointFromPair(pair)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		seed[name] = p
	}
	return NewRegistry(seed)
}

// Get returns the named position.
func (r *Registry) Get(name string) (geom.Point, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.positions[name]
	return p, ok
}

// MustGet is Get for names the caller knows were seeded.
func (r *Registry) MustGet(name string) geom.Point {
	p, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("ui position %q not registered", name))
	}
	return p
}

// Set overwrites a single named position.
func (r *Registry) Set(name string, p geom.Point) error {
	if !p.InUnit() {
		return fmt.Errorf("%w: %s=%+v", ErrOutOfRange, name, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.positions[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPosition, name)
	}
	r.positions[name] = p
	return nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.positions))
	for n := range r.positions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of every position.
func (r *Registry) Snapshot() map[string]geom.Point {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]geom.Point, len(r.positions))
	for k, v := range r.positions {
		out[k] = v
	}
	return out
}

func pointFromPair(pair []float64) (geom.Point, error) {
	if len(pair) != 2 {
		return geom.Point{}, fmt.Errorf("expected [x, y], got %v", pair)
	}
	return geom.Pt(pair[0], pair[1]), nil
}
