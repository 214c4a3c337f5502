// internal/humanoid/trajectory.go
package humanoid

import (
	"math"
	"time"

	"github.com/xkilldash9x/drover/api/schemas"
	"github.com/xkilldash9x/drover/internal/timing"
)

// jitterBandLo/Hi bound the fraction of a natural path that receives
// per-step jitter; the curve stays clean near its endpoints.
const (
	jitterBandLo = 0.1
	jitterBandHi = 0.9
)

// hesitantWarpStrength controls how much a hesitant path slows through its
// midpoint. Must stay below 1 to keep progress monotonic.
const hesitantWarpStrength = 0.7

// pathDuration derives the animation time for a move from its distance and
// the named speed class.
func pathDuration(dist float64, speed schemas.Speed) time.Duration {
	pps := timing.PointerSpeed(speed)
	d := time.Duration(dist / pps * float64(time.Second))
	if d < 120*time.Millisecond {
		d = 120 * time.Millisecond
	}
	return d
}

// generatePath produces the pointer positions for one move, one entry per
// animation frame. The caller holds the lock.
func (h *Humanoid) generatePath(start, end Vector2D, pattern schemas.MovePattern, steps int) []Vector2D {
	if steps < 2 {
		steps = 2
	}
	if start.Dist(end) < 1.0 {
		return []Vector2D{end}
	}

	switch pattern {
	case schemas.PatternNatural:
		return h.naturalPath(start, end, steps)
	case schemas.PatternHesitant:
		return h.hesitantPath(start, end, steps)
	default:
		return directPath(start, end, steps)
	}
}

// directPath is straight linear interpolation.
func directPath(start, end Vector2D, steps int) []Vector2D {
	path := make([]Vector2D, steps)
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)
		path[i] = start.Add(end.Sub(start).Mul(t))
	}
	return path
}

// naturalPath follows a quadratic Bézier through a randomly offset control
// point, with small per-step jitter through the middle of the curve.
func (h *Humanoid) naturalPath(start, end Vector2D, steps int) []Vector2D {
	main := end.Sub(start)
	dist := main.Mag()

	// Control point: the midpoint pushed sideways by up to 20% of the
	// distance, either side.
	offset := (h.rng.Float64()*2 - 1) * dist * 0.2
	control := start.Add(main.Mul(0.5)).Add(main.Perp().Mul(offset))

	path := make([]Vector2D, steps)
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)
		omt := 1.0 - t
		p := start.Mul(omt * omt).
			Add(control.Mul(2 * omt * t)).
			Add(end.Mul(t * t))

		if t > jitterBandLo && t < jitterBandHi {
			p = p.Add(Vector2D{
				X: h.rng.NormFloat64() * 1.2,
				Y: h.rng.NormFloat64() * 1.2,
			})
		}
		path[i] = p
	}
	return path
}

// hesitantPath runs the natural curve through a non-uniform time warp whose
// progress slows through the midpoint.
func (h *Humanoid) hesitantPath(start, end Vector2D, steps int) []Vector2D {
	base := h.naturalPath(start, end, steps)
	warped := make([]Vector2D, steps)
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)
		// s(0)=0, s(1)=1, with ds/dt minimal at t=0.5.
		s := t + hesitantWarpStrength*math.Sin(2*math.Pi*t)/(2*math.Pi)
		idx := int(math.Round(s * float64(steps-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= steps {
			idx = steps - 1
		}
		warped[i] = base[idx]
	}
	return warped
}
