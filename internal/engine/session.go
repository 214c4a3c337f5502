// internal/engine/session.go
package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/drover/api/schemas"
	"github.com/xkilldash9x/drover/internal/config"
	"github.com/xkilldash9x/drover/internal/goals"
	"github.com/xkilldash9x/drover/internal/page"
	"github.com/xkilldash9x/drover/internal/resolver"
	"github.com/xkilldash9x/drover/internal/timing"
)

// State is the session lifecycle state. Transitions are owned exclusively by
// the session; every other component reads it through accessors.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateTimedOut  State = "timedOut"
	StateError     State = "error"
)

// Terminal reports whether the state ends the session.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateTimedOut || s == StateError
}

// defaultStayDuration applies when a page config omits its stayDuration.
const defaultStayDuration = "3-8s"

// unknownPage is the detection result when no page type's identifiers match.
const unknownPage = "unknown"

// session drives one scenario against one page. It owns the run loop
// goroutine; at most one session is active per engine at a time.
type session struct {
	id       string
	scenario schemas.Scenario
	set      schemas.SelectorSet
	cfg      config.EngineConfig
	logger   *zap.Logger

	pg      page.Page
	sleeper page.Sleeper
	tracker *goals.Tracker
	res     *resolver.Resolver
	sel     *ActionSelector
	interp  *Interpreter
	tm      *timing.Model
	actions ActionLogger

	ctx    context.Context
	cancel context.CancelFunc
	// wake signals the parked loop on resume or stop.
	wake chan struct{}
	done chan struct{}

	mu         sync.Mutex
	state      State
	lastErr    string
	tickCancel context.CancelFunc
	entryDone  bool
}

// State returns the current lifecycle state.
func (s *session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the originating message retained when the state is
// StateError.
func (s *session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// setState moves to a new state under the lock.
func (s *session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// pause moves running→paused and cancels the pending tick so no stale
// continuation fires after the state change. The in-flight micro action
// honors the cancellation at its next suspension point.
func (s *session) pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return errors.New("engine: session is not running")
	}
	s.state = StatePaused
	if s.tickCancel != nil {
		s.tickCancel()
	}
	return nil
}

// resume moves paused→running and wakes the parked loop immediately.
func (s *session) resume() error {
	s.mu.Lock()
	if s.state != StatePaused {
		s.mu.Unlock()
		return errors.New("engine: session is not paused")
	}
	s.state = StateRunning
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// stop cancels everything and waits for the loop goroutine to exit.
func (s *session) stop() {
	s.mu.Lock()
	if !s.state.Terminal() {
		s.state = StateIdle
	}
	if s.tickCancel != nil {
		s.tickCancel()
	}
	s.mu.Unlock()

	s.cancel()
	select {
	case s.wake <- struct{}{}:
	default:
	}
	<-s.done
}

// run is the loop goroutine. One iteration of tick is one scheduling unit;
// pause parks the loop until resume or stop.
func (s *session) run() {
	defer close(s.done)
	s.logger.Info("Session run loop started",
		zap.String("session_id", s.id),
		zap.String("scenario", s.scenario.ID))

	for {
		switch s.State() {
		case StateRunning:
			tickCtx, cancel := context.WithCancel(s.ctx)
			s.mu.Lock()
			s.tickCancel = cancel
			s.mu.Unlock()

			err := s.tick(tickCtx)
			cancel()
			s.handleTickError(err)

		case StatePaused:
			select {
			case <-s.wake:
			case <-s.ctx.Done():
				return
			}

		default:
			s.logger.Info("Session run loop exiting",
				zap.String("session_id", s.id),
				zap.String("state", string(s.State())))
			return
		}
	}
}

// tick is one iteration: goal check, timeout check, page detection, entry
// actions, action selection, execution, impact, transition handling, and
// scheduling of the next tick via the stay delay.
func (s *session) tick(ctx context.Context) error {
	if s.tracker.AreGoalsMet() {
		s.logger.Info("Session goals met", zap.String("session_id", s.id))
		s.setState(StateCompleted)
		return nil
	}
	if s.tracker.IsSessionTimedOut() {
		s.logger.Info("Session time budget exhausted", zap.String("session_id", s.id))
		s.setState(StateTimedOut)
		return nil
	}

	pageType := s.detectPage(ctx)
	s.notePage(pageType)

	pc, ok := s.scenario.Pages[pageType]
	if !ok {
		return s.recoverStuck(ctx, &PageConfigError{PageType: pageType})
	}

	if err := s.runEntryActions(ctx, pc, pageType); err != nil {
		return err
	}

	action := s.sel.Select(ctx, pc.Actions.All(), pageType)
	if action == nil {
		return s.recoverStuck(ctx, ErrNoEligibleActions)
	}
	s.logger.Debug("Action selected",
		zap.String("action", action.Name),
		zap.String("page", pageType))

	if err := s.runSequence(ctx, action.Micro, pageType); err != nil {
		return err
	}

	// Metric deltas apply only after the full sequence completed.
	s.tracker.UpdateMetrics(action.Impact)
	if s.actions != nil {
		s.actions.LogAction("action_completed", map[string]interface{}{
			"action": action.Name,
			"page":   pageType,
		})
	}

	if action.TargetPage != "" && action.TargetPage != pageType {
		s.awaitTransition(ctx, action.TargetPage)
	}

	stay := pc.StayDuration
	if stay == "" {
		stay = defaultStayDuration
	}
	delay, err := s.tm.Resolve(stay)
	if err != nil {
		s.logger.Warn("Invalid stayDuration, using default",
			zap.String("spec", stay), zap.Error(err))
		delay, _ = s.tm.Resolve(defaultStayDuration)
	}
	return s.sleeper.Sleep(ctx, delay)
}

// runEntryActions executes a page's entry sequence once per arrival.
func (s *session) runEntryActions(ctx context.Context, pc schemas.PageConfig, pageType string) error {
	s.mu.Lock()
	done := s.entryDone
	s.entryDone = true
	s.mu.Unlock()
	if done || len(pc.EntryActions) == 0 {
		return nil
	}
	return s.runSequence(ctx, pc.EntryActions, pageType)
}

// runSequence executes micro actions in order, checking the session's
// run/pause state before each step and stopping early when either changed.
func (s *session) runSequence(ctx context.Context, seq []schemas.MicroAction, pageType string) error {
	for _, m := range seq {
		if s.State() != StateRunning {
			return context.Canceled
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.interp.Execute(ctx, m, pageType); err != nil {
			return err
		}
	}
	return nil
}

// notePage records a freshly detected page type, resetting the entry flag
// and the resolver cache on change.
func (s *session) notePage(pageType string) {
	if s.tracker.CurrentPage() == pageType {
		return
	}
	s.logger.Info("Page type changed",
		zap.String("from", s.tracker.CurrentPage()),
		zap.String("to", pageType))
	s.tracker.UpdateCurrentPage(pageType)
	s.res.InvalidateCache()
	s.mu.Lock()
	s.entryDone = false
	s.mu.Unlock()
}

// detectPage classifies the current page: the page type whose identifier
// selectors all resolve, most-specific (most identifiers) first for a
// deterministic outcome when several match.
func (s *session) detectPage(ctx context.Context) string {
	type cand struct {
		name string
		ids  []string
	}
	cands := make([]cand, 0, len(s.set.Pages))
	for name, ps := range s.set.Pages {
		if len(ps.Identifiers) == 0 {
			continue
		}
		cands = append(cands, cand{name: name, ids: ps.Identifiers})
	}
	sort.Slice(cands, func(i, j int) bool {
		if len(cands[i].ids) != len(cands[j].ids) {
			return len(cands[i].ids) > len(cands[j].ids)
		}
		return cands[i].name < cands[j].name
	})

	for _, c := range cands {
		all := true
		for _, id := range c.ids {
			if !s.res.Exists(ctx, id, resolver.Options{PageType: c.name}) {
				all = false
				break
			}
		}
		if all {
			return c.name
		}
	}
	return unknownPage
}

// awaitTransition polls page detection until the expected type appears or
// the bound elapses. A timeout is a warning; execution continues on the
// actual current page.
func (s *session) awaitTransition(ctx context.Context, target string) {
	deadline := time.Now().Add(s.cfg.TransitionTimeout)
	for time.Now().Before(deadline) {
		if s.State() != StateRunning || ctx.Err() != nil {
			return
		}
		if s.detectPage(ctx) == target {
			s.notePage(target)
			return
		}
		if err := s.sleeper.Sleep(ctx, s.cfg.TransitionPoll); err != nil {
			return
		}
	}
	s.logger.Warn("Expected page transition did not occur",
		zap.String("expected", target),
		zap.Duration("timeout", s.cfg.TransitionTimeout),
		zap.Error(ErrTransitionTimeout))
}

// recoverStuck handles the no-config and no-eligible-action paths: try a
// browser-back recovery when history allows, otherwise complete the session
// rather than looping forever.
func (s *session) recoverStuck(ctx context.Context, cause error) error {
	s.logger.Warn("Session stuck, attempting recovery", zap.Error(cause))

	canBack, err := s.pg.CanGoBack(ctx)
	if err == nil && canBack {
		if err := s.pg.Back(ctx); err != nil {
			s.logger.Warn("Recovery navigation failed", zap.Error(err))
			s.setState(StateCompleted)
			return nil
		}
		// Give the navigation a moment before the next tick re-detects.
		return s.sleeper.Sleep(ctx, s.tm.Sample(scrollSettleRange))
	}

	s.logger.Info("No recovery possible, completing session", zap.Error(cause))
	s.setState(StateCompleted)
	return nil
}

// handleTickError is the run-loop boundary: every per-tick error is
// classified into continue-to-next-tick or stop-session. Nothing escapes.
func (s *session) handleTickError(err error) {
	if err == nil {
		return
	}

	// Cooperative cancellation: the state change already happened; the loop
	// reads it on the next iteration.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.Debug("Tick interrupted", zap.Error(err))
		return
	}

	if isFatal(err) {
		s.logger.Error("Fatal session error", zap.Error(err))
		s.mu.Lock()
		s.state = StateError
		s.lastErr = err.Error()
		s.mu.Unlock()
		return
	}

	var mae *MicroActionError
	if errors.As(err, &mae) {
		s.logger.Warn("Micro action failed, continuing to next tick", zap.Error(mae))
	} else {
		s.logger.Warn("Tick failed, continuing", zap.Error(err))
	}
	if s.actions != nil {
		s.actions.LogAction("tick_error", map[string]interface{}{"error": err.Error()})
	}
}
