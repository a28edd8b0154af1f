// internal/device/hotkey.go
package device

import (
	"context"
	"sync"

	hook "github.com/robotn/gohook"
	"go.uber.org/zap"
)

// hookMu serializes listeners; gohook keeps a single global event loop.
var hookMu sync.Mutex

// keyDispatch routes gohook key callbacks to the active listener. Every
// registration is tagged with a generation; callbacks left behind by earlier
// listeners are ignored, so a press reaches exactly one handler.
type keyDispatch struct {
	mu       sync.Mutex
	gen      map[string]int
	handlers map[string]func()
}

var stopKeys = &keyDispatch{
	gen:      map[string]int{},
	handlers: map[string]func(){},
}

// bind installs fn as the handler for key and registers a callback for the
// new generation.
func (d *keyDispatch) bind(key string, fn func(), register func(key string, cb func())) {
	d.mu.Lock()
	d.gen[key]++
	gen := d.gen[key]
	d.handlers[key] = fn
	d.mu.Unlock()
	register(key, func() { d.fire(key, gen) })
}

func (d *keyDispatch) unbind(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.handlers, key)
}

func (d *keyDispatch) fire(key string, gen int) {
	d.mu.Lock()
	var fn func()
	if d.gen[key] == gen {
		fn = d.handlers[key]
	}
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func registerKeyDown(key string, cb func()) {
	hook.Register(hook.KeyDown, []string{key}, func(hook.Event) { cb() })
}

// StopHotkey listens for a global key press and invokes a callback.
type StopHotkey struct {
	key    string
	logger *zap.Logger
}

// NewStopHotkey creates a listener for key (gohook key names, e.g. "esc").
func NewStopHotkey(key string, logger *zap.Logger) *StopHotkey {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StopHotkey{key: key, logger: logger.Named("hotkey")}
}

// Listen blocks until ctx is done, calling onStop every time the key is
// pressed.
func (h *StopHotkey) Listen(ctx context.Context, onStop func()) error {
	hookMu.Lock()
	defer hookMu.Unlock()

	stopKeys.bind(h.key, func() {
		h.logger.Info("Emergency stop key pressed.", zap.String("key", h.key))
		onStop()
	}, registerKeyDown)
	defer stopKeys.unbind(h.key)

	s := hook.Start()
	h.logger.Debug("Listening for emergency stop key.", zap.String("key", h.key))

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-hook.Process(s)
	}()

	<-ctx.Done()
	hook.End()
	<-done
	return nil
}
