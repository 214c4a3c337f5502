// internal/timing/timing.go
package timing

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xkilldash9x/drover/api/schemas"
)

// minWait is the floor for any resolved duration, to avoid busy-looping.
const minWait = 100 * time.Millisecond

// jitterFraction is the uniform perturbation applied to sampled durations.
const jitterFraction = 0.20

// Range is a parsed duration spec.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// ParseSpec parses a duration spec: a bare number ("2", "1.5"), a number
// with unit ("500ms", "2s"), or a range "<min>-<max><unit>" ("3-8s",
// "200-600ms"). The unit applies to both bounds and defaults to seconds.
func ParseSpec(spec string) (Range, error) {
	s := strings.TrimSpace(spec)
	if s == "" {
		return Range{}, fmt.Errorf("timing: empty duration spec")
	}

	unit := time.Second
	switch {
	case strings.HasSuffix(s, "ms"):
		unit = time.Millisecond
		s = strings.TrimSuffix(s, "ms")
	case strings.HasSuffix(s, "s"):
		s = strings.TrimSuffix(s, "s")
	}

	lo, hi, isRange := strings.Cut(s, "-")
	minVal, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return Range{}, fmt.Errorf("timing: invalid duration spec %q: %w", spec, err)
	}
	maxVal := minVal
	if isRange {
		maxVal, err = strconv.ParseFloat(strings.TrimSpace(hi), 64)
		if err != nil {
			return Range{}, fmt.Errorf("timing: invalid duration spec %q: %w", spec, err)
		}
	}
	if minVal < 0 || maxVal < minVal {
		return Range{}, fmt.Errorf("timing: invalid duration bounds in %q", spec)
	}

	return Range{
		Min: time.Duration(minVal * float64(unit)),
		Max: time.Duration(maxVal * float64(unit)),
	}, nil
}

// Model produces randomized, human-plausible durations from declarative
// specs. All randomness flows through the injected source so tests can force
// deterministic schedules.
type Model struct {
	mu   sync.Mutex
	rng  *rand.Rand
	slow bool
}

// New creates a timing model. A nil rng falls back to a time-seeded source.
func New(rng *rand.Rand, slowMode bool) *Model {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Model{rng: rng, slow: slowMode}
}

// Resolve parses the spec, samples uniformly from its range, perturbs the
// result by ±20% jitter, doubles it under slow mode, and clamps the result
// to a 100ms floor.
func (m *Model) Resolve(spec string) (time.Duration, error) {
	r, err := ParseSpec(spec)
	if err != nil {
		return 0, err
	}
	return m.ResolveRange(r), nil
}

// ResolveRange applies sampling, jitter, slow mode and the floor to an
// already-parsed range.
func (m *Model) ResolveRange(r Range) time.Duration {
	m.mu.Lock()
	raw := m.sampleLocked(r)
	jitter := 1.0 - jitterFraction + m.rng.Float64()*2*jitterFraction
	m.mu.Unlock()

	d := time.Duration(float64(raw) * jitter)
	if m.slow {
		d *= 2
	}
	if d < minWait {
		d = minWait
	}
	return d
}

// Sample returns the raw uniform draw from the range, before jitter, slow
// mode, or clamping.
func (m *Model) Sample(r Range) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sampleLocked(r)
}

func (m *Model) sampleLocked(r Range) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(m.rng.Int63n(int64(r.Max-r.Min)))
}

// Float64 draws a uniform value in [0,1) from the model's source.
func (m *Model) Float64() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Float64()
}

// Between draws a uniform duration in [min, max).
func (m *Model) Between(min, max time.Duration) time.Duration {
	return m.Sample(Range{Min: min, Max: max})
}

// PointerSpeed maps a named speed class to pointer velocity in pixels per
// second.
func PointerSpeed(s schemas.Speed) float64 {
	switch s {
	case schemas.SpeedSlow:
		return 400
	case schemas.SpeedFast:
		return 1800
	default:
		return 900
	}
}

// ScrollStepDelay maps a named speed class to the pause between fixed-size
// scroll steps.
func ScrollStepDelay(s schemas.Speed) time.Duration {
	switch s {
	case schemas.SpeedSlow:
		return 120 * time.Millisecond
	case schemas.SpeedFast:
		return 30 * time.Millisecond
	default:
		return 60 * time.Millisecond
	}
}
