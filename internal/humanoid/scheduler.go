// internal/humanoid/scheduler.go
package humanoid

import (
	"time"

	"github.com/xkilldash9x/arenabot/internal/geom"
)

// PauseKind classifies an idle period injected between actions.
type PauseKind int

const (
	PauseNone PauseKind = iota
	PauseThink
	PauseLong
)

func (k PauseKind) String() string {
	switch k {
	case PauseThink:
		return "think"
	case PauseLong:
		return "long"
	default:
		return "none"
	}
}

// Pause is the result of a NextPause draw.
type Pause struct {
	Kind     PauseKind
	Duration time.Duration
}

// Scheduler is the policy the control loop consults for every position and
// wait it uses. The Randomizer is the humanized policy and Identity the
// deterministic one.
type Scheduler interface {
	JitterDrop(p geom.Point) geom.Point
	JitterButton(p geom.Point) geom.Point
	CardOffset() geom.Point
	JitterDelay(base time.Duration) time.Duration
	DragDuration(base time.Duration) time.Duration
	NextPause() Pause
	Hesitation() time.Duration
	DeployInterval(min, max time.Duration) time.Duration
	BetweenGames(base time.Duration) time.Duration
	Trajectory(start, end geom.Pixel, steps int) []geom.Pixel
}

// Identity returns nominal values and never pauses.
type Identity struct{}

var _ Scheduler = Identity{}

func (Identity) JitterDrop(p geom.Point) geom.Point { return p }
func (Identity) JitterButton(p geom.Point) geom.Point { return p }
func (Identity) CardOffset() geom.Point { return geom.Point{} }
func (Identity) JitterDelay(base time.Duration) time.Duration { return floorDelay(base) }
func (Identity) DragDuration(base time.Duration) time.Duration { return base }
func (Identity) NextPause() Pause { return Pause{} }
func (Identity) Hesitation() time.Duration { return 0 }
func (Identity) DeployInterval(min, _ time.Duration) time.Duration { return min }
func (Identity) BetweenGames(base time.Duration) time.Duration { return floorDelay(base) }

// Trajectory returns a straight, evenly spaced path.
func (Identity) Trajectory(start, end geom.Pixel, steps int) []geom.Pixel {
	return linearPath(start, end, steps)
}

func linearPath(start, end geom.Pixel, steps int) []geom.Pixel {
	if steps < 2 {
		return []geom.Pixel{start, end}
	}
	path := make([]geom.Pixel, steps)
	for i := range path {
		t := float64(i) / float64(steps-1)
		path[i] = geom.Pixel{
			X: start.X + int(float64(end.X-start.X)*t),
			Y: start.Y + int(float64(end.Y-start.Y)*t),
		}
	}
	path[steps-1] = end
	return path
}
