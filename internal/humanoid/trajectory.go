// internal/humanoid/trajectory.go
package humanoid

import (
	"math"

	"github.com/xkilldash9x/arenabot/internal/geom"
)

// computeEaseInOutCubic provides a smooth acceleration and deceleration profile for movement.
func computeEaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// Trajectory generates the pixel waypoints of a drag from start to end.
// Progress along the path is eased and the path bows sideways by Perlin noise
// scaled with sin(pi*t), so both endpoints are exact.
func (r *Randomizer) Trajectory(start, end geom.Pixel, steps int) []geom.Pixel {
	if steps < 2 {
		return []geom.Pixel{start, end}
	}
	a := geom.Pt(float64(start.X), float64(start.Y))
	b := geom.Pt(float64(end.X), float64(end.Y))
	normal := b.Sub(a).Normal()

	r.mu.Lock()
	base := r.noiseT
	r.noiseT += 1.7
	offsets := make([]float64, steps)
	for i := range offsets {
		t := float64(i) / float64(steps-1)
		n := math.Max(-1, math.Min(1, r.noise.Noise1D(base+t*2)))
		offsets[i] = n * r.profile.DragWobble * math.Sin(math.Pi*t)
	}
	r.mu.Unlock()

	path := make([]geom.Pixel, steps)
	for i := range path {
		t := float64(i) / float64(steps-1)
		p := a.Lerp(b, computeEaseInOutCubic(t)).Add(normal.Mul(offsets[i]))
		path[i] = geom.Pixel{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
	}
	path[0], path[steps-1] = start, end
	return path
}
