// internal/humanoid/movement.go
package humanoid

import (
	"context"
	"fmt"
	"time"

	"github.com/xkilldash9x/drover/api/schemas"
)

// MoveTo animates a synthetic pointer path from the last known position to
// the target point, stepped at the configured frame rate.
func (h *Humanoid) MoveTo(ctx context.Context, target Vector2D, pattern schemas.MovePattern, speed schemas.Speed) error {
	h.mu.Lock()
	start := h.pos
	dist := start.Dist(target)
	duration := pathDuration(dist, speed)
	steps := int(duration.Seconds() * float64(h.frameRate))
	path := h.generatePath(start, target, pattern, steps)
	h.mu.Unlock()

	if len(path) == 0 {
		return nil
	}
	frame := duration / time.Duration(len(path))

	for _, p := range path {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.surface.DispatchMouse(ctx, schemas.MouseEventData{
			Type:   schemas.MouseMove,
			X:      p.X,
			Y:      p.Y,
			Button: schemas.ButtonNone,
		}); err != nil {
			return fmt.Errorf("humanoid: dispatching move: %w", err)
		}
		h.mu.Lock()
		h.pos = p
		h.mu.Unlock()

		if err := h.surface.Sleep(ctx, frame); err != nil {
			return err
		}
	}
	return nil
}

// TargetWithin picks a click point inside the element's box: a normally
// distributed offset around the center, clamped to the inner 90% of the box.
func (h *Humanoid) TargetWithin(box schemas.Box) Vector2D {
	h.mu.Lock()
	defer h.mu.Unlock()

	cx, cy := box.CenterX(), box.CenterY()
	if box.Width <= 2 || box.Height <= 2 {
		return Vector2D{X: cx, Y: cy}
	}

	offX := h.rng.NormFloat64() * box.Width / 6.0
	offY := h.rng.NormFloat64() * box.Height / 6.0

	minX, maxX := box.X+box.Width*0.05, box.X+box.Width*0.95
	minY, maxY := box.Y+box.Height*0.05, box.Y+box.Height*0.95

	return Vector2D{
		X: clamp(cx+offX, minX, maxX),
		Y: clamp(cy+offY, minY, maxY),
	}
}

// Hover holds the pointer near its current position for the given duration,
// drifting with low-frequency Perlin noise so the cursor never freezes.
func (h *Humanoid) Hover(ctx context.Context, hold time.Duration) error {
	h.mu.Lock()
	anchor := h.pos
	h.mu.Unlock()

	const step = 80 * time.Millisecond
	deadline := time.Now().Add(hold)

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}

		h.mu.Lock()
		h.noiseTime += 0.15
		drift := Vector2D{
			X: h.noiseX.Noise1D(h.noiseTime) * 4.0,
			Y: h.noiseY.Noise1D(h.noiseTime) * 4.0,
		}
		p := anchor.Add(drift)
		h.pos = p
		h.mu.Unlock()

		if err := h.surface.DispatchMouse(ctx, schemas.MouseEventData{
			Type:   schemas.MouseMove,
			X:      p.X,
			Y:      p.Y,
			Button: schemas.ButtonNone,
		}); err != nil {
			return fmt.Errorf("humanoid: dispatching hover jitter: %w", err)
		}

		pause := step
		if remaining := time.Until(deadline); remaining < pause {
			pause = remaining
		}
		if pause <= 0 {
			break
		}
		if err := h.surface.Sleep(ctx, pause); err != nil {
			return err
		}
	}
	return nil
}

// Click performs count discrete press/hold/release cycles at the current
// pointer position, with 50-150ms holds and inter-click delays.
func (h *Humanoid) Click(ctx context.Context, count int) error {
	if count <= 0 {
		count = 1
	}
	h.mu.Lock()
	pos := h.pos
	h.mu.Unlock()

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.surface.DispatchMouse(ctx, schemas.MouseEventData{
			Type:       schemas.MousePress,
			X:          pos.X,
			Y:          pos.Y,
			Button:     schemas.ButtonLeft,
			Buttons:    1,
			ClickCount: i + 1,
		}); err != nil {
			return fmt.Errorf("humanoid: dispatching press: %w", err)
		}

		if err := h.surface.Sleep(ctx, h.between(50*time.Millisecond, 150*time.Millisecond)); err != nil {
			return err
		}

		if err := h.surface.DispatchMouse(ctx, schemas.MouseEventData{
			Type:       schemas.MouseRelease,
			X:          pos.X,
			Y:          pos.Y,
			Button:     schemas.ButtonLeft,
			ClickCount: i + 1,
		}); err != nil {
			return fmt.Errorf("humanoid: dispatching release: %w", err)
		}

		if i < count-1 {
			if err := h.surface.Sleep(ctx, h.between(50*time.Millisecond, 150*time.Millisecond)); err != nil {
				return err
			}
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
