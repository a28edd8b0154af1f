// internal/humanoid/randomizer.go
package humanoid

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aquilax/go-perlin"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/xkilldash9x/arenabot/internal/geom"
)

const (
	// Jittered positions never land closer than this to a window edge.
	edgeMargin = 0.05
	// minDelay is the floor for every humanized wait.
	minDelay = 10 * time.Millisecond
)

// Randomizer is the humanized Scheduler. It draws every value from a single
// seeded source, so two randomizers built from the same profile and seed
// produce identical sequences.
type Randomizer struct {
	// mu guards rng, beta, noise and noiseT.
	mu      sync.Mutex
	profile Profile
	logger  *zap.Logger
	seed    uint64
	rng     *rand.Rand
	beta    distuv.Beta
	noise   *perlin.Perlin
	// noiseT advances per trajectory so consecutive drags wobble differently.
	noiseT float64
}

var _ Scheduler = (*Randomizer)(nil)

// New creates a Randomizer. A zero seed is replaced with one derived from the
// wall clock and logged so a session can be replayed.
func New(profile Profile, seed uint64, logger *zap.Logger) *Randomizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
		logger.Debug("Humanoid seeded from clock.", zap.Uint64("seed", seed))
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	// Standard Perlin noise parameters.
	alpha, beta, n := 2.0, 2.0, int32(3)

	return &Randomizer{
		profile: profile,
		logger:  logger,
		seed:    seed,
		rng:     rng,
		beta:    distuv.Beta{Alpha: 2, Beta: 3, Src: rng},
		noise:   perlin.NewPerlin(alpha, beta, n, int64(seed)),
	}
}

// Profile returns the parameters the randomizer was built with.
func (r *Randomizer) Profile() Profile { return r.profile }

// Seed returns the effective seed.
func (r *Randomizer) Seed() uint64 { return r.seed }

// uniform returns a value in [lo, hi). Caller must hold r.mu.
func (r *Randomizer) uniform(lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + r.rng.Float64()*(hi-lo)
}

// uniformDuration returns a duration in [rg.Min, rg.Max]. Caller must hold r.mu.
func (r *Randomizer) uniformDuration(rg Range) time.Duration {
	if rg.Max <= rg.Min {
		return rg.Min
	}
	return rg.Min + time.Duration(r.rng.Int64N(int64(rg.Max-rg.Min)+1))
}

// JitterPosition offsets each axis of p independently by U(-variance, variance)
// and clamps the result to [0.05, 0.95]. A negative variance is treated as zero.
func (r *Randomizer) JitterPosition(p geom.Point, variance float64) geom.Point {
	if variance < 0 {
		variance = 0
	}
	r.mu.Lock()
	dx := r.uniform(-variance, variance)
	dy := r.uniform(-variance, variance)
	r.mu.Unlock()
	return geom.Point{X: p.X + dx, Y: p.Y + dy}.Clamp(edgeMargin, 1-edgeMargin)
}

// JitterDrop jitters a drop target with the profile's drop variance.
func (r *Randomizer) JitterDrop(p geom.Point) geom.Point {
	return r.JitterPosition(p, r.profile.DropVariance)
}

// JitterButton jitters a button position with the profile's button variance.
func (r *Randomizer) JitterButton(p geom.Point) geom.Point {
	return r.JitterPosition(p, r.profile.ButtonVariance)
}

// CardOffset returns where inside a card slot the card is grabbed, relative to
// the slot centre.
func (r *Randomizer) CardOffset() geom.Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return geom.Point{
		X: r.uniform(-r.profile.CardOffsetX, r.profile.CardOffsetX),
		Y: r.uniform(-r.profile.CardOffsetY, r.profile.CardOffsetY),
	}
}

// JitterDelay returns base +/- base*k, never less than 10ms.
func (r *Randomizer) JitterDelay(base time.Duration) time.Duration {
	spread := float64(base) * r.profile.TimingVariance
	if spread < 0 {
		spread = -spread
	}
	r.mu.Lock()
	d := float64(base) + r.uniform(-spread, spread)
	r.mu.Unlock()
	return floorDelay(time.Duration(d))
}

// DragDuration scales base by a speed multiplier drawn from the profile range.
func (r *Randomizer) DragDuration(base time.Duration) time.Duration {
	r.mu.Lock()
	m := r.uniform(r.profile.DragSpeedMin, r.profile.DragSpeedMax)
	r.mu.Unlock()
	return time.Duration(float64(base) * m)
}

// NextPause checks for a long distraction first and a short think second.
func (r *Randomizer) NextPause() Pause {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rng.Float64() < r.profile.LongPauseChance {
		return Pause{Kind: PauseLong, Duration: r.uniformDuration(r.profile.LongPause)}
	}
	if r.rng.Float64() < r.profile.ThinkChance {
		return Pause{Kind: PauseThink, Duration: r.uniformDuration(r.profile.Think)}
	}
	return Pause{}
}

// Hesitation returns the delay before a drag, or zero when the draw decides
// not to hesitate.
func (r *Randomizer) Hesitation() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rng.Float64() >= r.profile.HesitationChance {
		return 0
	}
	return r.uniformDuration(r.profile.Hesitation)
}

// DeployInterval samples Beta(2,3) and rescales it into [min, max]. The
// distribution skews toward the faster end of the range.
func (r *Randomizer) DeployInterval(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	r.mu.Lock()
	x := r.beta.Rand()
	r.mu.Unlock()
	return min + time.Duration(x*float64(max-min))
}

// BetweenGames offsets the nominal inter-game wait, floored at 10ms.
func (r *Randomizer) BetweenGames(base time.Duration) time.Duration {
	r.mu.Lock()
	off := r.uniformDuration(r.profile.BetweenGames)
	r.mu.Unlock()
	return floorDelay(base + off)
}

func floorDelay(d time.Duration) time.Duration {
	if d < minDelay {
		return minDelay
	}
	return d
}
