// internal/humanoid/scrolling.go
package humanoid

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/xkilldash9x/drover/api/schemas"
	"github.com/xkilldash9x/drover/internal/timing"
)

// scrollStepPx is the fixed step size, matching one wheel detent.
const scrollStepPx = 120.0

// extraPauseChance is the per-step probability of an additional reading
// pause during a long scroll.
const extraPauseChance = 0.12

// ScrollByDistance scrolls the page by a signed vertical pixel distance in
// fixed-size steps, with a speed-dependent inter-step delay and occasional
// extra pauses.
func (h *Humanoid) ScrollByDistance(ctx context.Context, distance int, speed schemas.Speed) error {
	if distance == 0 {
		return nil
	}

	remaining := math.Abs(float64(distance))
	dir := 1.0
	if distance < 0 {
		dir = -1.0
	}
	delay := timing.ScrollStepDelay(speed)

	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		step := scrollStepPx
		if remaining < step {
			step = remaining
		}
		remaining -= step

		if err := h.surface.ScrollBy(ctx, 0, dir*step); err != nil {
			return fmt.Errorf("humanoid: scroll step: %w", err)
		}

		// The inter-step delay varies a little so the cadence is not
		// mechanical.
		jittered := delay + h.between(0, delay/2)
		if err := h.surface.Sleep(ctx, jittered); err != nil {
			return err
		}

		if remaining > 0 && h.float64n() < extraPauseChance {
			if err := h.surface.Sleep(ctx, h.between(300*time.Millisecond, 900*time.Millisecond)); err != nil {
				return err
			}
		}
	}
	return nil
}
