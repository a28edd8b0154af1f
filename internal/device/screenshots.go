// internal/device/screenshots.go
package device

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/quartz"
	"go.uber.org/zap"
)

// ScreenshotSink writes captures to a directory as PNG files named
// <timestamp>_<seq>_<label>.png. Failures are logged, never returned.
type ScreenshotSink struct {
	dir    string
	clock  quartz.Clock
	logger *zap.Logger

	mu  sync.Mutex
	seq int
}

// NewScreenshotSink creates the directory if needed.
func NewScreenshotSink(dir string, clock quartz.Clock, logger *zap.Logger) (*ScreenshotSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create screenshot directory %s: %w", dir, err)
	}
	return &ScreenshotSink{dir: dir, clock: clock, logger: logger.Named("screenshots")}, nil
}

// Save encodes img to a new file.
func (s *ScreenshotSink) Save(label string, img image.Image) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	name := fmt.Sprintf("%s_%04d_%s.png", s.clock.Now().Format("20060102_150405"), seq, label)
	path := filepath.Join(s.dir, name)
	if err := writePNG(path, img); err != nil {
		s.logger.Warn("Failed to save debug screenshot.", zap.String("path", path), zap.Error(err))
		return
	}
	s.logger.Debug("Saved debug screenshot.", zap.String("path", path))
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
