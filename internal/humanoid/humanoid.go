// internal/humanoid/humanoid.go

// Package humanoid turns abstract interaction targets into timed, noisy
// input primitives: pointer paths, hover jitter, click cycles, typing with
// typos, and stepped scrolling.
package humanoid

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/aquilax/go-perlin"
	"go.uber.org/zap"

	"github.com/xkilldash9x/drover/api/schemas"
)

// Surface is the low-level input surface the humanoid drives. The concrete
// implementation dispatches CDP events; tests record the stream.
type Surface interface {
	DispatchMouse(ctx context.Context, data schemas.MouseEventData) error
	SendKeys(ctx context.Context, keys string) error
	ScrollBy(ctx context.Context, dx, dy float64) error
	Sleep(ctx context.Context, d time.Duration) error
}

// defaultFrameRate is the pointer animation step rate when none is
// configured.
const defaultFrameRate = 60

// Humanoid holds the pointer state and random sources for one session.
type Humanoid struct {
	// mu protects pos, noiseTime and rng access.
	mu        sync.Mutex
	surface   Surface
	logger    *zap.Logger
	rng       *rand.Rand
	frameRate int
	pos       Vector2D
	noiseX    *perlin.Perlin
	noiseY    *perlin.Perlin
	noiseTime float64
}

// New creates a Humanoid over the given surface. A nil rng falls back to a
// time-seeded source; frameRate <= 0 falls back to the default.
func New(surface Surface, rng *rand.Rand, frameRate int, logger *zap.Logger) *Humanoid {
	seed := time.Now().UnixNano()
	if rng == nil {
		rng = rand.New(rand.NewSource(seed))
	}
	if frameRate <= 0 {
		frameRate = defaultFrameRate
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Standard Perlin parameters; the two axes get distinct seeds so hover
	// drift is not diagonal.
	alpha, beta, n := 2.0, 2.0, int32(3)
	return &Humanoid{
		surface:   surface,
		logger:    logger.With(zap.String("component", "humanoid")),
		rng:       rng,
		frameRate: frameRate,
		noiseX:    perlin.NewPerlin(alpha, beta, n, seed),
		noiseY:    perlin.NewPerlin(alpha, beta, n, seed+1),
	}
}

// Position returns the last known pointer position.
func (h *Humanoid) Position() Vector2D {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos
}

// SetPosition force-places the pointer, used when a session starts or after
// a navigation resets the page coordinate space.
func (h *Humanoid) SetPosition(v Vector2D) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pos = v
}

// float64n draws a uniform value in [0,1) under the lock.
func (h *Humanoid) float64n() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rng.Float64()
}

// between draws a uniform duration in [lo, hi).
func (h *Humanoid) between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return lo + time.Duration(h.rng.Int63n(int64(hi-lo)))
}
