// internal/humanoid/profile.go
package humanoid

import (
	"fmt"
	"time"

	"github.com/xkilldash9x/arenabot/internal/config"
)

// Range is an inclusive duration interval.
type Range struct {
	Min, Max time.Duration
}

// Profile is the immutable set of distribution parameters that defines the
// "personality" of a session.
type Profile struct {
	// Position noise as fractions of the window size.
	DropVariance   float64
	ButtonVariance float64
	CardOffsetX    float64
	CardOffsetY    float64

	// TimingVariance k scales JitterDelay to base +/- base*k.
	TimingVariance float64

	ThinkChance      float64
	Think            Range
	LongPauseChance  float64
	LongPause        Range
	HesitationChance float64
	Hesitation       Range

	DragSpeedMin float64
	DragSpeedMax float64

	// BetweenGames is the offset added to the nominal wait between games.
	BetweenGames Range

	// DragWobble is the peak perpendicular deviation of a drag path, in pixels.
	DragWobble float64
}

// DefaultProfile returns the stock profile.
func DefaultProfile() Profile {
	return Profile{
		DropVariance:     0.02,
		ButtonVariance:   0.01,
		CardOffsetX:      0.015,
		CardOffsetY:      0.01,
		TimingVariance:   0.5,
		ThinkChance:      0.1,
		Think:            Range{Min: time.Second, Max: 3 * time.Second},
		LongPauseChance:  0.05,
		LongPause:        Range{Min: 4 * time.Second, Max: 8 * time.Second},
		HesitationChance: 0.3,
		Hesitation:       Range{Min: 100 * time.Millisecond, Max: 400 * time.Millisecond},
		DragSpeedMin:     0.7,
		DragSpeedMax:     1.5,
		BetweenGames:     Range{Min: -time.Second, Max: 3 * time.Second},
		DragWobble:       3,
	}
}

// ProfileFromConfig maps the humanoid config section onto a Profile.
func ProfileFromConfig(cfg config.HumanoidConfig) Profile {
	return Profile{
		DropVariance:     cfg.PositionVariance,
		ButtonVariance:   cfg.ButtonVariance,
		CardOffsetX:      cfg.CardOffsetX,
		CardOffsetY:      cfg.CardOffsetY,
		TimingVariance:   cfg.TimingVariance,
		ThinkChance:      cfg.ThinkChance,
		Think:            Range{Min: cfg.ThinkMin, Max: cfg.ThinkMax},
		LongPauseChance:  cfg.LongPauseChance,
		LongPause:        Range{Min: cfg.LongPauseMin, Max: cfg.LongPauseMax},
		HesitationChance: cfg.HesitationChance,
		Hesitation:       Range{Min: cfg.HesitationMin, Max: cfg.HesitationMax},
		DragSpeedMin:     cfg.DragSpeedMin,
		DragSpeedMax:     cfg.DragSpeedMax,
		BetweenGames:     Range{Min: cfg.BetweenGamesMin, Max: cfg.BetweenGamesMax},
		DragWobble:       cfg.DragWobble,
	}
}

// Validate reports the first incoherent parameter.
func (p Profile) Validate() error {
	probs := []struct {
		name string
		v    float64
	}{
		{"think chance", p.ThinkChance},
		{"long pause chance", p.LongPauseChance},
		{"hesitation chance", p.HesitationChance},
	}
	for _, pr := range probs {
		if pr.v < 0 || pr.v > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", pr.name, pr.v)
		}
	}
	if p.TimingVariance < 0 || p.TimingVariance > 1 {
		return fmt.Errorf("timing variance must be within [0,1], got %v", p.TimingVariance)
	}
	if p.DropVariance < 0 || p.ButtonVariance < 0 || p.CardOffsetX < 0 || p.CardOffsetY < 0 {
		return fmt.Errorf("position variances must not be negative")
	}
	for name, r := range map[string]Range{
		"think":         p.Think,
		"long pause":    p.LongPause,
		"hesitation":    p.Hesitation,
		"between games": p.BetweenGames,
	} {
		if r.Min > r.Max {
			return fmt.Errorf("%s range is inverted: [%s, %s]", name, r.Min, r.Max)
		}
	}
	if p.Think.Min < 0 || p.LongPause.Min < 0 || p.Hesitation.Min < 0 {
		return fmt.Errorf("pause durations must not be negative")
	}
	if p.DragSpeedMin <= 0 || p.DragSpeedMin > p.DragSpeedMax {
		return fmt.Errorf("drag speed range invalid: [%v, %v]", p.DragSpeedMin, p.DragSpeedMax)
	}
	return nil
}
