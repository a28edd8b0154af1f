// internal/orchestrator/sleeper.go
package orchestrator

import (
	"context"
	"time"

	"github.com/coder/quartz"
)

// Sleeper is every suspension point of the loop.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// ClockSleeper sleeps on a quartz clock and wakes early on cancellation.
type ClockSleeper struct {
	clock quartz.Clock
}

// NewClockSleeper creates a sleeper driven by clock.
func NewClockSleeper(clock quartz.Clock) *ClockSleeper {
	return &ClockSleeper{clock: clock}
}

// Sleep blocks for d or until ctx is done.
func (s *ClockSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := s.clock.NewTimer(d, "sleep")
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
