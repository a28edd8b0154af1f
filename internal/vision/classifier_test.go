// internal/vision/classifier_test.go
package vision

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/arenabot/internal/game"
)

// stubMatcher returns a fixed score per template name.
type stubMatcher struct {
	mu     sync.Mutex
	scores map[string]float64
	errs   map[string]error
	calls  []string
}

func (m *stubMatcher) Match(_ image.Image, t *Template) (Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, t.Name)
	if err := m.errs[t.Name]; err != nil {
		return Match{}, err
	}
	return Match{Score: m.scores[t.Name], Center: image.Pt(10, 10)}, nil
}

type stubCapturer struct {
	img image.Image
	err error
	n   int
}

func (s *stubCapturer) Capture() (image.Image, error) {
	s.n++
	return s.img, s.err
}

type recordingSink struct{ labels []string }

func (r *recordingSink) Save(label string, _ image.Image) { r.labels = append(r.labels, label) }

func newTestClassifier(t *testing.T, scores map[string]float64) (*Classifier, *stubMatcher, *stubCapturer) {
	t.Helper()
	store := NewTemplateStore(t.TempDir(), 0.8, zap.NewNop())
	for _, name := range KnownTemplates {
		store.Put(&Template{Name: name, Image: image.NewRGBA(image.Rect(0, 0, 4, 4))})
	}
	m := &stubMatcher{scores: scores, errs: map[string]error{}}
	capt := &stubCapturer{img: image.NewRGBA(image.Rect(0, 0, 100, 200))}
	return NewClassifier(store, m, capt, 0.7, zap.NewNop()), m, capt
}

func TestClassifyPriority(t *testing.T) {
	screen := image.NewRGBA(image.Rect(0, 0, 10, 10))
	tests := []struct {
		name   string
		scores map[string]float64
		prev   game.State
		want   game.State
	}{
		{"OKWinsOverBattle", map[string]float64{TemplateOK: 0.9, TemplateBattle: 0.95}, game.InBattle, game.BattleEnded},
		{"BattleButtonIsMenu", map[string]float64{TemplateBattle: 0.75}, game.Unknown, game.MainMenu},
		{"BattleButtonBeatsStickyBattle", map[string]float64{TemplateBattle: 0.75}, game.InBattle, game.MainMenu},
		{"StickyInBattle", map[string]float64{TemplateOK: 0.5}, game.InBattle, game.InBattle},
		{"NothingVisible", nil, game.MainMenu, game.Unknown},
		{"ThresholdIsInclusive", map[string]float64{TemplateOK: 0.7}, game.Unknown, game.BattleEnded},
		{"PlayAgainAloneIsNotAState", map[string]float64{TemplatePlayAgain: 0.99}, game.Unknown, game.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := newTestClassifier(t, tt.scores)
			assert.Equal(t, tt.want, c.Classify(screen, tt.prev))
		})
	}
}

func TestFindTemplate(t *testing.T) {
	screen := image.NewRGBA(image.Rect(0, 0, 10, 10))
	c, m, _ := newTestClassifier(t, map[string]float64{TemplateOK: 0.85})

	t.Run("AboveConfidence", func(t *testing.T) {
		match, ok := c.FindTemplate(screen, TemplateOK, 0.8)
		require.True(t, ok)
		assert.Equal(t, TemplateOK, match.Template)
		assert.InDelta(t, 0.85, match.Score, 1e-9)
	})

	t.Run("BelowConfidence", func(t *testing.T) {
		_, ok := c.FindTemplate(screen, TemplateOK, 0.9)
		assert.False(t, ok)
	})

	t.Run("DefaultsToTemplateThreshold", func(t *testing.T) {
		_, ok := c.FindTemplate(screen, TemplateOK, 0)
		assert.True(t, ok, "0.85 clears the store default of 0.8")
	})

	t.Run("MissingTemplateIsNoMatch", func(t *testing.T) {
		_, ok := c.FindTemplate(screen, "settings_gear", 0.1)
		assert.False(t, ok)
	})

	t.Run("MatcherErrorIsNoMatch", func(t *testing.T) {
		m.errs[TemplateOK] = errors.New("template larger than screen")
		defer delete(m.errs, TemplateOK)
		_, ok := c.FindTemplate(screen, TemplateOK, 0.1)
		assert.False(t, ok)
	})

	t.Run("NilScreen", func(t *testing.T) {
		_, ok := c.FindTemplate(nil, TemplateOK, 0.1)
		assert.False(t, ok)
	})
}

func TestDetectState(t *testing.T) {
	t.Run("CaptureFailureIsUnknown", func(t *testing.T) {
		c, _, capt := newTestClassifier(t, map[string]float64{TemplateBattle: 0.9})
		capt.err = errors.New("window gone")
		assert.Equal(t, game.Unknown, c.DetectState(context.Background(), game.InBattle))
	})

	t.Run("Classifies", func(t *testing.T) {
		c, _, _ := newTestClassifier(t, map[string]float64{TemplateBattle: 0.9})
		assert.Equal(t, game.MainMenu, c.DetectState(context.Background(), game.Unknown))
	})

	t.Run("CancelledContextSkipsCapture", func(t *testing.T) {
		c, _, capt := newTestClassifier(t, map[string]float64{TemplateBattle: 0.9})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Equal(t, game.Unknown, c.DetectState(ctx, game.Unknown))
		assert.Zero(t, capt.n)
	})
}

func TestIsBattleOver(t *testing.T) {
	ctx := context.Background()

	t.Run("PlayAgainCheckedFirst", func(t *testing.T) {
		c, m, _ := newTestClassifier(t, map[string]float64{TemplatePlayAgain: 0.9, TemplateOK: 0.9})
		assert.True(t, c.IsBattleOver(ctx))
		assert.Equal(t, []string{TemplatePlayAgain}, m.calls, "first hit wins")
	})

	t.Run("FallsBackToOK", func(t *testing.T) {
		c, m, _ := newTestClassifier(t, map[string]float64{TemplateOK: 0.75})
		assert.True(t, c.IsBattleOver(ctx))
		assert.Equal(t, []string{TemplatePlayAgain, TemplateOK}, m.calls)
	})

	t.Run("BattleButtonIsIgnored", func(t *testing.T) {
		c, _, _ := newTestClassifier(t, map[string]float64{TemplateBattle: 0.99})
		assert.False(t, c.IsBattleOver(ctx))
	})

	t.Run("CaptureFailureIsFalse", func(t *testing.T) {
		c, _, capt := newTestClassifier(t, map[string]float64{TemplateOK: 0.99})
		capt.err = errors.New("boom")
		assert.False(t, c.IsBattleOver(ctx))
	})
}

func TestScores(t *testing.T) {
	c, _, _ := newTestClassifier(t, map[string]float64{TemplateBattle: 0.42, TemplateOK: 0.75, TemplatePlayAgain: 0.9})
	scores := c.Scores(image.NewRGBA(image.Rect(0, 0, 10, 10)))
	require.Len(t, scores, len(KnownTemplates))

	byName := map[string]TemplateScore{}
	for _, s := range scores {
		assert.True(t, s.Loaded)
		assert.Equal(t, 0.8, s.Threshold, "the store's match confidence")
		byName[s.Template] = s
	}
	assert.InDelta(t, 0.42, byName[TemplateBattle].Score, 1e-9)
	assert.False(t, byName[TemplateBattle].Matched)
	assert.False(t, byName[TemplateBattle].State)

	// 0.75 is visible to state detection (0.7) but not a template match (0.8).
	assert.False(t, byName[TemplateOK].Matched)
	assert.True(t, byName[TemplateOK].State)
	assert.True(t, byName[TemplatePlayAgain].Matched)
	assert.Equal(t, image.Pt(10, 10), byName[TemplatePlayAgain].Center)
}

func TestScoresMissingTemplate(t *testing.T) {
	store := NewTemplateStore(t.TempDir(), 0.8, nil)
	c := NewClassifier(store, &stubMatcher{}, &stubCapturer{}, 0.7, nil)
	for _, s := range c.Scores(image.NewRGBA(image.Rect(0, 0, 10, 10))) {
		assert.False(t, s.Loaded)
		assert.False(t, s.Matched)
	}
}

func TestDebugSinkReceivesCaptures(t *testing.T) {
	store := NewTemplateStore(t.TempDir(), 0.8, nil)
	sink := &recordingSink{}
	c := NewClassifier(store, &stubMatcher{}, &stubCapturer{img: image.NewRGBA(image.Rect(0, 0, 1, 1))}, 0.7, nil, WithDebugSink(sink))

	c.DetectState(context.Background(), game.Unknown)
	c.IsBattleOver(context.Background())
	assert.Equal(t, []string{"detect", "battle_over"}, sink.labels)
}
