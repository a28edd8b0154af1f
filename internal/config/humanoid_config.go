// File: internal/config/humanoid_config.go
// This file defines the HumanoidConfig struct, which contains the tunable
// parameters of the humanization layer: position jitter, timing variance,
// probabilistic think and distraction pauses, pre-drag hesitation and drag
// speed variation.
//
// The values are loaded from the config file using Viper so the "personality"
// of a session can be changed without touching code.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// HumanoidConfig holds the distribution parameters of the humanization layer.
type HumanoidConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Seed fixes the random source. Zero seeds from the clock.
	Seed uint64 `mapstructure:"seed" yaml:"seed"`

	// Position noise, as fractions of the window.
	PositionVariance float64 `mapstructure:"position_variance" yaml:"position_variance"`
	ButtonVariance   float64 `mapstructure:"button_variance" yaml:"button_variance"`
	CardOffsetX      float64 `mapstructure:"card_offset_x" yaml:"card_offset_x"`
	CardOffsetY      float64 `mapstructure:"card_offset_y" yaml:"card_offset_y"`

	// TimingVariance is the +/- multiplier applied to nominal delays.
	TimingVariance float64 `mapstructure:"timing_variance" yaml:"timing_variance"`

	ThinkChance      float64       `mapstructure:"think_chance" yaml:"think_chance"`
	ThinkMin         time.Duration `mapstructure:"think_min" yaml:"think_min"`
	ThinkMax         time.Duration `mapstructure:"think_max" yaml:"think_max"`
	LongPauseChance  float64       `mapstructure:"long_pause_chance" yaml:"long_pause_chance"`
	LongPauseMin     time.Duration `mapstructure:"long_pause_min" yaml:"long_pause_min"`
	LongPauseMax     time.Duration `mapstructure:"long_pause_max" yaml:"long_pause_max"`
	HesitationChance float64       `mapstructure:"hesitation_chance" yaml:"hesitation_chance"`
	HesitationMin    time.Duration `mapstructure:"hesitation_min" yaml:"hesitation_min"`
	HesitationMax    time.Duration `mapstructure:"hesitation_max" yaml:"hesitation_max"`

	DragSpeedMin float64 `mapstructure:"drag_speed_min" yaml:"drag_speed_min"`
	DragSpeedMax float64 `mapstructure:"drag_speed_max" yaml:"drag_speed_max"`

	// Between games the nominal wait is offset by a value in [BetweenGamesMin, BetweenGamesMax].
	BetweenGamesMin time.Duration `mapstructure:"between_games_min" yaml:"between_games_min"`
	BetweenGamesMax time.Duration `mapstructure:"between_games_max" yaml:"between_games_max"`

	// DragWobble is the amplitude, in pixels, of the noise added to drag paths.
	DragWobble float64 `mapstructure:"drag_wobble" yaml:"drag_wobble"`
}

// setHumanoidDefaults registers the defaults for the humanoid section.
func setHumanoidDefaults(v *viper.Viper) {
	v.SetDefault("humanoid.enabled", true)
	v.SetDefault("humanoid.seed", 0)
	v.SetDefault("humanoid.position_variance", 0.02)
	v.SetDefault("humanoid.button_variance", 0.01)
	v.SetDefault("humanoid.card_offset_x", 0.015)
	v.SetDefault("humanoid.card_offset_y", 0.01)
	v.SetDefault("humanoid.timing_variance", 0.5)
	v.SetDefault("humanoid.think_chance", 0.1)
	v.SetDefault("humanoid.think_min", "1s")
	v.SetDefault("humanoid.think_max", "3s")
	v.SetDefault("humanoid.long_pause_chance", 0.05)
	v.SetDefault("humanoid.long_pause_min", "4s")
	v.SetDefault("humanoid.long_pause_max", "8s")
	v.SetDefault("humanoid.hesitation_chance", 0.3)
	v.SetDefault("humanoid.hesitation_min", "100ms")
	v.SetDefault("humanoid.hesitation_max", "400ms")
	v.SetDefault("humanoid.drag_speed_min", 0.7)
	v.SetDefault("humanoid.drag_speed_max", 1.5)
	v.SetDefault("humanoid.between_games_min", "-1s")
	v.SetDefault("humanoid.between_games_max", "3s")
	v.SetDefault("humanoid.drag_wobble", 3.0)
}

// Validate checks that probabilities and ranges are coherent.
func (h HumanoidConfig) Validate() error {
	for name, p := range map[string]float64{
		"think_chance":      h.ThinkChance,
		"long_pause_chance": h.LongPauseChance,
		"hesitation_chance": h.HesitationChance,
	} {
		if !unitRange(p) {
			return fmt.Errorf("humanoid.%s must be a probability, got %v", name, p)
		}
	}
	if h.PositionVariance < 0 || h.ButtonVariance < 0 || h.CardOffsetX < 0 || h.CardOffsetY < 0 {
		return errors.New("humanoid variances must not be negative")
	}
	if h.TimingVariance < 0 || h.TimingVariance > 1 {
		return fmt.Errorf("humanoid.timing_variance must be within [0,1], got %v", h.TimingVariance)
	}
	if h.ThinkMin > h.ThinkMax || h.LongPauseMin > h.LongPauseMax || h.HesitationMin > h.HesitationMax ||
		h.BetweenGamesMin > h.BetweenGamesMax {
		return errors.New("humanoid duration ranges must have min <= max")
	}
	if h.DragSpeedMin <= 0 || h.DragSpeedMin > h.DragSpeedMax {
		return fmt.Errorf("humanoid.drag_speed range invalid: [%v, %v]", h.DragSpeedMin, h.DragSpeedMax)
	}
	if h.DragWobble < 0 {
		return errors.New("humanoid.drag_wobble must not be negative")
	}
	return nil
}
