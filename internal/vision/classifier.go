// internal/vision/classifier.go
package vision

import (
	"context"
	"image"

	"go.uber.org/zap"

	"github.com/xkilldash9x/arenabot/internal/game"
)

// Classifier infers the game state from what is visible on screen. It never
// mutates state itself; callers apply the result to a game.Machine.
type Classifier struct {
	store      *TemplateStore
	matcher    Matcher
	capture    Capturer
	confidence float64
	sink       DebugSink
	logger     *zap.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithDebugSink persists every capture to sink.
func WithDebugSink(sink DebugSink) Option {
	return func(c *Classifier) { c.sink = sink }
}

// NewClassifier creates a classifier. confidence is the threshold used by
// state detection.
func NewClassifier(store *TemplateStore, matcher Matcher, capture Capturer, confidence float64, logger *zap.Logger, opts ...Option) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Classifier{
		store:      store,
		matcher:    matcher,
		capture:    capture,
		confidence: confidence,
		logger:     logger.Named("classifier"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindTemplate looks for the named template on screen. A confidence <= 0
// falls back to the template's own threshold. Missing templates and matcher
// failures are treated as "not found".
func (c *Classifier) FindTemplate(screen image.Image, name string, confidence float64) (Match, bool) {
	m, ok := c.score(screen, name)
	if !ok {
		return Match{}, false
	}
	if confidence <= 0 {
		if t, ok := c.store.Get(name); ok {
			confidence = t.Threshold
		}
	}
	if m.Score < confidence {
		return m, false
	}
	return m, true
}

func (c *Classifier) score(screen image.Image, name string) (Match, bool) {
	if screen == nil {
		return Match{}, false
	}
	t, ok := c.store.Get(name)
	if !ok {
		return Match{}, false
	}
	m, err := c.matcher.Match(screen, t)
	if err != nil {
		c.logger.Debug("Template match failed.", zap.String("template", name), zap.Error(err))
		return Match{}, false
	}
	m.Template = name
	return m, true
}

func (c *Classifier) visible(screen image.Image, name string) bool {
	_, ok := c.FindTemplate(screen, name, c.confidence)
	return ok
}

// Classify maps a screen image to a state. The end screen wins over the menu,
// and an in-progress battle is sticky until a marker says otherwise.
func (c *Classifier) Classify(screen image.Image, prev game.State) game.State {
	switch {
	case c.visible(screen, TemplateOK):
		return game.BattleEnded
	case c.visible(screen, TemplateBattle):
		return game.MainMenu
	case prev == game.InBattle:
		return game.InBattle
	default:
		return game.Unknown
	}
}

// DetectState captures the screen and classifies it. A failed capture yields
// Unknown.
func (c *Classifier) DetectState(ctx context.Context, prev game.State) game.State {
	screen, ok := c.grab(ctx, "detect")
	if !ok {
		return game.Unknown
	}
	s := c.Classify(screen, prev)
	c.logger.Debug("Detected state.", zap.Stringer("previous", prev), zap.Stringer("state", s))
	return s
}

// EndScreenVisible reports whether either end screen marker is visible.
// Play-again is checked first.
func (c *Classifier) EndScreenVisible(screen image.Image) bool {
	return c.visible(screen, TemplatePlayAgain) || c.visible(screen, TemplateOK)
}

// IsBattleOver captures the screen and checks for end screen markers only.
// A failed capture yields false.
func (c *Classifier) IsBattleOver(ctx context.Context) bool {
	screen, ok := c.grab(ctx, "battle_over")
	if !ok {
		return false
	}
	return c.EndScreenVisible(screen)
}

// Capture grabs a screen image, feeding the debug sink when one is set.
func (c *Classifier) Capture(ctx context.Context) (image.Image, bool) {
	return c.grab(ctx, "capture")
}

// TemplateScore is the best match score of one template. Threshold is the
// template's own match threshold; State reports whether the score also clears
// the state detection confidence.
type TemplateScore struct {
	Template  string
	Score     float64
	Threshold float64
	Loaded    bool
	Matched   bool
	State     bool
	Center    image.Point
}

// Scores reports the best match of every known template against screen.
func (c *Classifier) Scores(screen image.Image) []TemplateScore {
	out := make([]TemplateScore, 0, len(KnownTemplates))
	for _, name := range KnownTemplates {
		ts := TemplateScore{Template: name}
		if t, loaded := c.store.Get(name); loaded {
			ts.Loaded = true
			ts.Threshold = t.Threshold
			if m, ok := c.score(screen, name); ok {
				ts.Score = m.Score
				ts.Center = m.Center
				ts.Matched = m.Score >= t.Threshold
				ts.State = m.Score >= c.confidence
			}
		}
		out = append(out, ts)
	}
	return out
}

func (c *Classifier) grab(ctx context.Context, label string) (image.Image, bool) {
	if ctx.Err() != nil {
		return nil, false
	}
	screen, err := c.capture.Capture()
	if err != nil {
		c.logger.Warn("Screen capture failed.", zap.String("purpose", label), zap.Error(err))
		return nil, false
	}
	if c.sink != nil {
		c.sink.Save(label, screen)
	}
	return screen, true
}
