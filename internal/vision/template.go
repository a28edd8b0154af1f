// internal/vision/template.go
package vision

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Template names of the UI markers used for state detection.
const (
	TemplateOK        = "ok_button"
	TemplateBattle    = "battle_button"
	TemplatePlayAgain = "play_again"
)

// KnownTemplates lists every template the classifier consults.
var KnownTemplates = []string{TemplateOK, TemplateBattle, TemplatePlayAgain}

var templateExtensions = []string{".png", ".jpg", ".jpeg"}

// Template is a reference image of a UI element.
type Template struct {
	Name      string
	Image     image.Image
	Threshold float64
	Path      string
}

// TemplateStore loads templates from a directory on first use and caches the
// outcome, including misses, for the life of the process.
type TemplateStore struct {
	dir       string
	threshold float64
	logger    *zap.Logger

	mu    sync.Mutex
	cache map[string]*Template // nil value records a miss
}

// NewTemplateStore creates a store rooted at dir. Loaded templates get the
// given default threshold.
func NewTemplateStore(dir string, threshold float64, logger *zap.Logger) *TemplateStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateStore{
		dir:       dir,
		threshold: threshold,
		logger:    logger.Named("templates"),
		cache:     make(map[string]*Template),
	}
}

// Get returns the named template, loading it on first access. A missing or
// undecodable file is reported once and then remembered as a miss.
func (s *TemplateStore) Get(name string) (*Template, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, cached := s.cache[name]; cached {
		return t, t != nil
	}
	t, err := s.load(name)
	if err != nil {
		s.logger.Warn("Template unavailable, detection for it is disabled.", zap.String("template", name), zap.Error(err))
	}
	s.cache[name] = t
	return t, t != nil
}

// Put registers an already decoded template, replacing any cached entry.
func (s *TemplateStore) Put(t *Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Threshold == 0 {
		t.Threshold = s.threshold
	}
	s.cache[t.Name] = t
}

// Dir returns the directory templates are loaded from.
func (s *TemplateStore) Dir() string { return s.dir }

// Save writes img to <dir>/<name>.png and registers it, replacing any cached
// template or remembered miss. It returns the written path.
func (s *TemplateStore) Save(name string, img image.Image) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create template directory %s: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, name+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	s.Put(&Template{Name: name, Image: img, Path: path})
	s.logger.Info("Saved template.", zap.String("template", name), zap.String("path", path))
	return path, nil
}

func (s *TemplateStore) load(name string) (*Template, error) {
	for _, ext := range templateExtensions {
		path := filepath.Join(s.dir, name+ext)
		f, err := os.Open(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		s.logger.Debug("Loaded template.", zap.String("template", name), zap.String("path", path))
		return &Template{Name: name, Image: img, Threshold: s.threshold, Path: path}, nil
	}
	return nil, fmt.Errorf("no template file for %q in %s", name, s.dir)
}
