// internal/engine/interpreter.go
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/drover/api/schemas"
	"github.com/xkilldash9x/drover/internal/humanoid"
	"github.com/xkilldash9x/drover/internal/page"
	"github.com/xkilldash9x/drover/internal/resolver"
	"github.com/xkilldash9x/drover/internal/timing"
)

// Capture is the external screenshot sink.
type Capture interface {
	Save(ctx context.Context, name string, png []byte) error
}

// ActionLogger is the external fire-and-forget logging collaborator.
type ActionLogger interface {
	LogAction(actionType string, context map[string]interface{})
}

// Default spec strings for steps that omit a duration.
const (
	defaultHoverDuration = "1-3s"
	defaultTypeDelay     = "60-180ms"
)

// scrollSettleRange is the pause after scrolling a target into view.
var scrollSettleRange = timing.Range{Min: 400 * time.Millisecond, Max: 600 * time.Millisecond}

// Interpreter executes single micro-action steps against the live page,
// dispatching to the timing model, resolver and humanoid primitives.
type Interpreter struct {
	pg      page.Page
	sleeper page.Sleeper
	res     *resolver.Resolver
	hum     *humanoid.Humanoid
	tm      *timing.Model
	capture Capture
	actions ActionLogger
	logger  *zap.Logger
}

// NewInterpreter assembles an interpreter. Capture and actions may be nil,
// in which case screenshot steps fail recoverably and log steps fall back to
// the structured logger.
func NewInterpreter(
	pg page.Page,
	sleeper page.Sleeper,
	res *resolver.Resolver,
	hum *humanoid.Humanoid,
	tm *timing.Model,
	capture Capture,
	actions ActionLogger,
	logger *zap.Logger,
) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{
		pg:      pg,
		sleeper: sleeper,
		res:     res,
		hum:     hum,
		tm:      tm,
		capture: capture,
		actions: actions,
		logger:  logger.With(zap.String("component", "interpreter")),
	}
}

// Execute runs one micro action. The switch over kinds is exhaustive; a kind
// that slipped past validation is an explicit error, never a silent no-op.
func (in *Interpreter) Execute(ctx context.Context, m schemas.MicroAction, pageType string) error {
	var err error
	switch m.Kind {
	case schemas.MicroWait:
		err = in.execWait(ctx, m)
	case schemas.MicroMove:
		err = in.execMove(ctx, m, pageType)
	case schemas.MicroHover:
		err = in.execHover(ctx, m, pageType)
	case schemas.MicroClick:
		err = in.execClick(ctx, m, pageType)
	case schemas.MicroScroll:
		err = in.execScroll(ctx, m, pageType)
	case schemas.MicroType:
		err = in.execType(ctx, m, pageType)
	case schemas.MicroVerify:
		err = in.execVerify(ctx, m, pageType)
	case schemas.MicroScreenshot:
		err = in.execScreenshot(ctx, m)
	case schemas.MicroLog:
		in.execLog(m, pageType)
	default:
		err = fmt.Errorf("unhandled micro action kind %q", m.Kind)
	}
	if err != nil {
		// Context errors pass through untagged so the run loop can tell
		// cooperative cancellation apart from step failure.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &MicroActionError{Kind: m.Kind, Cause: err}
	}
	return nil
}

func (in *Interpreter) execWait(ctx context.Context, m schemas.MicroAction) error {
	d, err := in.tm.Resolve(m.Duration)
	if err != nil {
		return err
	}
	return in.sleeper.Sleep(ctx, d)
}

// moveToTarget resolves the selector and animates the pointer to it,
// scrolling it into view first when needed. center selects the box center;
// otherwise a bounded random point within the box is used.
func (in *Interpreter) moveToTarget(ctx context.Context, m schemas.MicroAction, pageType string, center bool) (page.Element, error) {
	el, err := in.resolveElement(ctx, m.Target, pageType)
	if err != nil {
		return page.Element{}, err
	}

	vp, err := in.pg.Viewport(ctx)
	if err != nil {
		return page.Element{}, fmt.Errorf("viewport lookup: %w", err)
	}
	if !vp.Contains(el.Box) {
		if err := in.pg.ScrollIntoView(ctx, el); err != nil {
			return page.Element{}, fmt.Errorf("scrolling target into view: %w", err)
		}
		if err := in.sleeper.Sleep(ctx, in.tm.Sample(scrollSettleRange)); err != nil {
			return page.Element{}, err
		}
		// Geometry is stale after the scroll; resolve again.
		el, err = in.resolveElement(ctx, m.Target, pageType)
		if err != nil {
			return page.Element{}, err
		}
	}

	target := humanoid.Vector2D{X: el.Box.CenterX(), Y: el.Box.CenterY()}
	if !center {
		target = in.hum.TargetWithin(el.Box)
	}
	if err := in.hum.MoveTo(ctx, target, m.Pattern, m.Speed); err != nil {
		return page.Element{}, err
	}
	return el, nil
}

func (in *Interpreter) execMove(ctx context.Context, m schemas.MicroAction, pageType string) error {
	_, err := in.moveToTarget(ctx, m, pageType, true)
	return err
}

func (in *Interpreter) execHover(ctx context.Context, m schemas.MicroAction, pageType string) error {
	if _, err := in.moveToTarget(ctx, m, pageType, true); err != nil {
		return err
	}
	spec := m.Duration
	if spec == "" {
		spec = defaultHoverDuration
	}
	hold, err := in.tm.Resolve(spec)
	if err != nil {
		return err
	}
	return in.hum.Hover(ctx, hold)
}

func (in *Interpreter) execClick(ctx context.Context, m schemas.MicroAction, pageType string) error {
	res, err := in.res.Resolve(ctx, m.Target, in.resolveOpts(pageType))
	if err != nil {
		return err
	}
	if res.BrowserBack {
		return in.pg.Back(ctx)
	}
	if _, err := in.moveToTarget(ctx, m, pageType, false); err != nil {
		return err
	}
	return in.hum.Click(ctx, m.Count)
}

func (in *Interpreter) execScroll(ctx context.Context, m schemas.MicroAction, pageType string) error {
	if m.Target != "" {
		el, err := in.resolveElement(ctx, m.Target, pageType)
		if err != nil {
			return err
		}
		if err := in.pg.ScrollIntoView(ctx, el); err != nil {
			return fmt.Errorf("smooth scroll to target: %w", err)
		}
		return in.sleeper.Sleep(ctx, in.tm.Sample(scrollSettleRange))
	}
	return in.hum.ScrollByDistance(ctx, m.Distance, m.Speed)
}

func (in *Interpreter) execType(ctx context.Context, m schemas.MicroAction, pageType string) error {
	el, err := in.moveToTarget(ctx, m, pageType, false)
	if err != nil {
		return err
	}
	if err := in.hum.Click(ctx, 1); err != nil {
		return err
	}
	if err := in.pg.Focus(ctx, el); err != nil {
		return fmt.Errorf("focusing input: %w", err)
	}
	if m.ClearFirst {
		if err := in.pg.ClearInput(ctx, el); err != nil {
			return fmt.Errorf("clearing input: %w", err)
		}
	}

	spec := m.Duration
	if spec == "" {
		spec = defaultTypeDelay
	}
	delayRange, err := timing.ParseSpec(spec)
	if err != nil {
		return err
	}
	return in.hum.TypeText(ctx, m.Text, func() time.Duration {
		return in.tm.ResolveRange(delayRange)
	})
}

func (in *Interpreter) execVerify(ctx context.Context, m schemas.MicroAction, pageType string) error {
	exists := in.res.Exists(ctx, m.Target, in.resolveOpts(pageType))
	if exists != m.Expects() {
		return fmt.Errorf("verify %q: exists=%v, expected %v", m.Target, exists, m.Expects())
	}
	return nil
}

func (in *Interpreter) execScreenshot(ctx context.Context, m schemas.MicroAction) error {
	if in.capture == nil {
		return fmt.Errorf("no capture service configured")
	}
	png, err := in.pg.Screenshot(ctx)
	if err != nil {
		return fmt.Errorf("capturing screenshot: %w", err)
	}
	name := m.Message
	if name == "" {
		name = fmt.Sprintf("capture-%d", time.Now().UnixMilli())
	}
	return in.capture.Save(ctx, name, png)
}

func (in *Interpreter) execLog(m schemas.MicroAction, pageType string) {
	if in.actions != nil {
		in.actions.LogAction("scenario_log", map[string]interface{}{
			"message": m.Message,
			"page":    pageType,
		})
		return
	}
	in.logger.Info("Scenario log step", zap.String("message", m.Message), zap.String("page", pageType))
}

// resolveElement resolves a selector that must name a concrete DOM element.
func (in *Interpreter) resolveElement(ctx context.Context, selector, pageType string) (page.Element, error) {
	res, err := in.res.Resolve(ctx, selector, in.resolveOpts(pageType))
	if err != nil {
		return page.Element{}, err
	}
	if res.BrowserBack {
		return page.Element{}, fmt.Errorf("%s is not a pointer target", resolver.BrowserBack)
	}
	return res.Element, nil
}

func (in *Interpreter) resolveOpts(pageType string) resolver.Options {
	pos := in.hum.Position()
	return resolver.Options{PageType: pageType, PointerX: pos.X, PointerY: pos.Y}
}
