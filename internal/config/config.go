// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Window   WindowConfig   `mapstructure:"window" yaml:"window"`
	Layout   LayoutConfig   `mapstructure:"layout" yaml:"layout"`
	UI       UIConfig       `mapstructure:"ui" yaml:"ui"`
	Timing   TimingConfig   `mapstructure:"timing" yaml:"timing"`
	Vision   VisionConfig   `mapstructure:"vision" yaml:"vision"`
	Battle   BattleConfig   `mapstructure:"battle" yaml:"battle"`
	Humanoid HumanoidConfig `mapstructure:"humanoid" yaml:"humanoid"`
	Input    InputConfig    `mapstructure:"input" yaml:"input"`
	Debug    DebugConfig    `mapstructure:"debug" yaml:"debug"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// WindowConfig locates the mirrored device window.
type WindowConfig struct {
	// Title is matched case-insensitively as a substring of the window title.
	Title string `mapstructure:"title" yaml:"title"`
	// ExcludeTitles filters out terminals that happen to mention the title.
	ExcludeTitles []string `mapstructure:"exclude_titles" yaml:"exclude_titles"`
	// FrontSettle is the pause after raising the window.
	FrontSettle time.Duration `mapstructure:"front_settle" yaml:"front_settle"`
}

// LayoutConfig is the card tray and arena geometry, as fractions of the window.
type LayoutConfig struct {
	CardSlotX   []float64   `mapstructure:"card_slot_x" yaml:"card_slot_x"`
	CardSlotY   float64     `mapstructure:"card_slot_y" yaml:"card_slot_y"`
	DropTargets [][]float64 `mapstructure:"drop_targets" yaml:"drop_targets"`
	Arena       ArenaConfig `mapstructure:"arena" yaml:"arena"`
}

// ArenaConfig bounds the playable area.
type ArenaConfig struct {
	Top    float64 `mapstructure:"top" yaml:"top"`
	Bottom float64 `mapstructure:"bottom" yaml:"bottom"`
	Left   float64 `mapstructure:"left" yaml:"left"`
	Right  float64 `mapstructure:"right" yaml:"right"`
}

// UIConfig seeds the calibratable button positions.
type UIConfig struct {
	BattleButton    []float64 `mapstructure:"battle_button" yaml:"battle_button"`
	OKButton        []float64 `mapstructure:"ok_button" yaml:"ok_button"`
	PlayAgainButton []float64 `mapstructure:"play_again_button" yaml:"play_again_button"`
}

// TimingConfig holds the nominal waits of the control loop.
type TimingConfig struct {
	DeployDelay       time.Duration `mapstructure:"deploy_delay" yaml:"deploy_delay"`
	DeployIntervalMin time.Duration `mapstructure:"deploy_interval_min" yaml:"deploy_interval_min"`
	DeployIntervalMax time.Duration `mapstructure:"deploy_interval_max" yaml:"deploy_interval_max"`
	DragDuration      time.Duration `mapstructure:"drag_duration" yaml:"drag_duration"`
	ActionPause       time.Duration `mapstructure:"action_pause" yaml:"action_pause"`
	BattleStartWait   time.Duration `mapstructure:"battle_start_wait" yaml:"battle_start_wait"`
	EndScreenSettle   time.Duration `mapstructure:"end_screen_settle" yaml:"end_screen_settle"`
	MenuSettle        time.Duration `mapstructure:"menu_settle" yaml:"menu_settle"`
	BetweenGames      time.Duration `mapstructure:"between_games" yaml:"between_games"`
}

// VisionConfig configures template matching.
type VisionConfig struct {
	TemplatesDir string `mapstructure:"templates_dir" yaml:"templates_dir"`
	// MatchConfidence is the default threshold for ad hoc lookups.
	MatchConfidence float64 `mapstructure:"match_confidence" yaml:"match_confidence"`
	// StateConfidence is the threshold used by state detection.
	StateConfidence float64 `mapstructure:"state_confidence" yaml:"state_confidence"`
}

// BattleConfig governs the deploy loop and end screen handling.
type BattleConfig struct {
	SafetyCeiling       time.Duration `mapstructure:"safety_ceiling" yaml:"safety_ceiling"`
	SkipInitialChecks   int           `mapstructure:"skip_initial_checks" yaml:"skip_initial_checks"`
	CheckEvery          int           `mapstructure:"check_every" yaml:"check_every"`
	DismissRetries      int           `mapstructure:"dismiss_retries" yaml:"dismiss_retries"`
	DismissPollInterval time.Duration `mapstructure:"dismiss_poll_interval" yaml:"dismiss_poll_interval"`
	Randomize           bool          `mapstructure:"randomize" yaml:"randomize"`
	Games               int           `mapstructure:"games" yaml:"games"`
}

// InputConfig tunes the pointer simulation.
type InputConfig struct {
	DragSteps int `mapstructure:"drag_steps" yaml:"drag_steps"`
	// StopKey is the global emergency stop hotkey. Empty disables the listener.
	StopKey string `mapstructure:"stop_key" yaml:"stop_key"`
}

// DebugConfig controls diagnostic screenshot persistence.
type DebugConfig struct {
	SaveScreenshots bool   `mapstructure:"save_screenshots" yaml:"save_screenshots"`
	ScreenshotDir   string `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
}

// ReportConfig controls the end of run summary file.
type ReportConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "arenabot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Window --
	v.SetDefault("window.title", "ClashRoyale")
	v.SetDefault("window.exclude_titles", []string{"command prompt", "cmd", "powershell"})
	v.SetDefault("window.front_settle", "500ms")

	// -- Layout --
	v.SetDefault("layout.card_slot_x", []float64{0.331, 0.504, 0.665, 0.824})
	v.SetDefault("layout.card_slot_y", 0.88)
	v.SetDefault("layout.drop_targets", [][]float64{
		{0.589, 0.532},
		{0.25, 0.50},
		{0.75, 0.50},
		{0.50, 0.45},
		{0.30, 0.55},
		{0.70, 0.55},
	})
	v.SetDefault("layout.arena.top", 0.15)
	v.SetDefault("layout.arena.bottom", 0.75)
	v.SetDefault("layout.arena.left", 0.10)
	v.SetDefault("layout.arena.right", 0.90)

	// -- UI buttons --
	v.SetDefault("ui.battle_button", []float64{0.531, 0.774})
	v.SetDefault("ui.ok_button", []float64{0.55, 0.92})
	v.SetDefault("ui.play_again_button", []float64{0.28, 0.92})

	// -- Timing --
	v.SetDefault("timing.deploy_delay", "3s")
	v.SetDefault("timing.deploy_interval_min", "2s")
	v.SetDefault("timing.deploy_interval_max", "5s")
	v.SetDefault("timing.drag_duration", "300ms")
	v.SetDefault("timing.action_pause", "500ms")
	v.SetDefault("timing.battle_start_wait", "5s")
	v.SetDefault("timing.end_screen_settle", "3s")
	v.SetDefault("timing.menu_settle", "2s")
	v.SetDefault("timing.between_games", "3s")

	// -- Vision --
	v.SetDefault("vision.templates_dir", "assets/templates")
	v.SetDefault("vision.match_confidence", 0.8)
	v.SetDefault("vision.state_confidence", 0.7)

	// -- Battle --
	v.SetDefault("battle.safety_ceiling", "300s")
	v.SetDefault("battle.skip_initial_checks", 5)
	v.SetDefault("battle.check_every", 3)
	v.SetDefault("battle.dismiss_retries", 1)
	v.SetDefault("battle.dismiss_poll_interval", "1s")
	v.SetDefault("battle.randomize", false)
	v.SetDefault("battle.games", 0)

	setHumanoidDefaults(v)

	// -- Input --
	v.SetDefault("input.drag_steps", 24)
	v.SetDefault("input.stop_key", "esc")

	// -- Debug --
	v.SetDefault("debug.save_screenshots", false)
	v.SetDefault("debug.screenshot_dir", "debug_screenshots")

	v.SetDefault("report.path", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading "~" in every user supplied path.
func (c *Config) expandPaths() error {
	paths := []*string{
		&c.Logger.LogFile,
		&c.Vision.TemplatesDir,
		&c.Debug.ScreenshotDir,
		&c.Report.Path,
	}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Window.Title == "" {
		return errors.New("window.title is required")
	}
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("layout configuration invalid: %w", err)
	}
	if err := c.UI.Validate(); err != nil {
		return fmt.Errorf("ui configuration invalid: %w", err)
	}
	if err := c.Timing.Validate(); err != nil {
		return fmt.Errorf("timing configuration invalid: %w", err)
	}
	if !unitRange(c.Vision.MatchConfidence) || !unitRange(c.Vision.StateConfidence) {
		return errors.New("vision confidences must be within [0,1]")
	}
	if err := c.Battle.Validate(); err != nil {
		return fmt.Errorf("battle configuration invalid: %w", err)
	}
	if err := c.Humanoid.Validate(); err != nil {
		return fmt.Errorf("humanoid configuration invalid: %w", err)
	}
	if c.Input.DragSteps <= 0 {
		return errors.New("input.drag_steps must be a positive integer")
	}
	return nil
}

// Validate checks the card tray and arena geometry.
func (l LayoutConfig) Validate() error {
	if len(l.CardSlotX) != 4 {
		return fmt.Errorf("layout.card_slot_x must list exactly 4 slots, got %d", len(l.CardSlotX))
	}
	for i, x := range l.CardSlotX {
		if !unitRange(x) {
			return fmt.Errorf("layout.card_slot_x[%d] out of range: %v", i, x)
		}
	}
	if !unitRange(l.CardSlotY) {
		return fmt.Errorf("layout.card_slot_y out of range: %v", l.CardSlotY)
	}
	if len(l.DropTargets) == 0 {
		return errors.New("layout.drop_targets must not be empty")
	}
	for i, t := range l.DropTargets {
		if err := validatePair(fmt.Sprintf("layout.drop_targets[%d]", i), t); err != nil {
			return err
		}
	}
	a := l.Arena
	if a.Left >= a.Right || a.Top >= a.Bottom || !unitRange(a.Left) || !unitRange(a.Right) ||
		!unitRange(a.Top) || !unitRange(a.Bottom) {
		return fmt.Errorf("layout.arena is not a valid rectangle: %+v", a)
	}
	return nil
}

// Validate checks the seeded button positions.
func (u UIConfig) Validate() error {
	if err := validatePair("ui.battle_button", u.BattleButton); err != nil {
		return err
	}
	if err := validatePair("ui.ok_button", u.OKButton); err != nil {
		return err
	}
	return validatePair("ui.play_again_button", u.PlayAgainButton)
}

// Validate checks the loop waits.
func (t TimingConfig) Validate() error {
	if t.DeployDelay <= 0 || t.DragDuration <= 0 {
		return errors.New("timing.deploy_delay and timing.drag_duration must be positive")
	}
	if t.DeployIntervalMin <= 0 || t.DeployIntervalMax < t.DeployIntervalMin {
		return fmt.Errorf("timing.deploy_interval range invalid: [%s, %s]", t.DeployIntervalMin, t.DeployIntervalMax)
	}
	if t.ActionPause < 0 || t.BattleStartWait < 0 || t.EndScreenSettle < 0 || t.MenuSettle < 0 || t.BetweenGames < 0 {
		return errors.New("timing waits must not be negative")
	}
	return nil
}

// Validate checks the deploy loop tuning.
func (b BattleConfig) Validate() error {
	if b.SafetyCeiling <= 0 {
		return errors.New("battle.safety_ceiling must be positive")
	}
	if b.SkipInitialChecks < 0 {
		return errors.New("battle.skip_initial_checks must not be negative")
	}
	if b.CheckEvery <= 0 {
		return errors.New("battle.check_every must be a positive integer")
	}
	if b.DismissRetries < 0 {
		return errors.New("battle.dismiss_retries must not be negative")
	}
	if b.Games < 0 {
		return errors.New("battle.games must not be negative")
	}
	return nil
}

func validatePair(key string, pair []float64) error {
	if len(pair) != 2 {
		return fmt.Errorf("%s must be an [x, y] pair, got %v", key, pair)
	}
	if !unitRange(pair[0]) || !unitRange(pair[1]) {
		return fmt.Errorf("%s must lie within [0,1], got %v", key, pair)
	}
	return nil
}

func unitRange(v float64) bool {
	return v >= 0 && v <= 1
}
