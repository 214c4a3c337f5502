// internal/engine/engine.go

// Package engine runs declarative interaction scenarios against a live page:
// per-tick action selection, micro-action execution, goal tracking and the
// session lifecycle state machine.
package engine

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/drover/api/schemas"
	"github.com/xkilldash9x/drover/internal/config"
	"github.com/xkilldash9x/drover/internal/goals"
	"github.com/xkilldash9x/drover/internal/humanoid"
	"github.com/xkilldash9x/drover/internal/page"
	"github.com/xkilldash9x/drover/internal/resolver"
	"github.com/xkilldash9x/drover/internal/timing"
)

// ErrSessionActive is returned by Start when a session is already running or
// paused.
var ErrSessionActive = errors.New("engine: a session is already active")

// ErrNoSession is returned by the lifecycle commands when no session exists.
var ErrNoSession = errors.New("engine: no active session")

// Deps bundles the collaborators an engine needs. Page and Sleeper are
// required; the rest may be nil and degrade to no-ops or defaults.
type Deps struct {
	Config  config.EngineConfig
	Logger  *zap.Logger
	Page    page.Page
	Surface humanoid.Surface
	Sleeper page.Sleeper
	Capture Capture
	Actions ActionLogger
	// Rng seeds every random draw in the session. Nil uses a time-seeded
	// source; tests inject a fixed seed for determinism.
	Rng *rand.Rand
	// Now is the tracker clock, injectable for tests.
	Now func() time.Time
}

// Engine manages at most one session at a time and is the single entry point
// for the control protocol.
type Engine struct {
	deps   Deps
	logger *zap.Logger

	mu   sync.Mutex
	sess *session
}

// New creates an engine. It returns an error rather than panicking later when
// a required collaborator is missing.
func New(deps Deps) (*Engine, error) {
	if deps.Page == nil {
		return nil, errors.New("engine: page is required")
	}
	if deps.Surface == nil {
		return nil, errors.New("engine: input surface is required")
	}
	if deps.Sleeper == nil {
		deps.Sleeper = &page.RealSleeper{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Rng == nil {
		deps.Rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		deps:   deps,
		logger: deps.Logger.With(zap.String("component", "engine")),
	}, nil
}

// Start launches a session for the named scenario. Fails when a session is
// already active; a finished session is discarded and replaced.
func (e *Engine) Start(ctx context.Context, scenarioID string, doc *schemas.WebsiteConfig) (string, error) {
	if doc == nil {
		return "", errors.New("engine: website config is required")
	}
	scenario, ok := doc.Scenarios[scenarioID]
	if !ok {
		return "", errors.New("engine: unknown scenario " + scenarioID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess != nil && !e.sess.State().Terminal() {
		return "", ErrSessionActive
	}
	if e.sess != nil {
		// Reap the finished session's goroutine before replacing it.
		e.sess.stop()
	}

	s := e.newSession(ctx, scenario, doc.Selectors)
	e.sess = s
	go s.run()

	e.logger.Info("Session started",
		zap.String("session_id", s.id),
		zap.String("scenario", scenarioID))
	return s.id, nil
}

// newSession assembles a session and its per-session component graph.
func (e *Engine) newSession(parent context.Context, scenario schemas.Scenario, set schemas.SelectorSet) *session {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))

	tracker := goals.New(scenario.Goals, e.deps.Now)
	res := resolver.New(e.deps.Page, set, e.deps.Rng, e.deps.Logger)
	tm := timing.New(e.deps.Rng, e.deps.Config.SlowMode)
	hum := humanoid.New(e.deps.Surface, e.deps.Rng, e.deps.Config.FrameRate, e.deps.Logger)
	interp := NewInterpreter(e.deps.Page, e.deps.Sleeper, res, hum, tm,
		e.deps.Capture, e.deps.Actions, e.deps.Logger)
	sel := NewActionSelector(tracker, res, e.deps.Rng, e.deps.Logger)

	s := &session{
		id:       uuid.NewString(),
		scenario: scenario,
		set:      set,
		cfg:      e.deps.Config,
		logger:   e.deps.Logger.With(zap.String("component", "session")),
		pg:       e.deps.Page,
		sleeper:  e.deps.Sleeper,
		tracker:  tracker,
		res:      res,
		sel:      sel,
		interp:   interp,
		tm:       tm,
		actions:  e.deps.Actions,
		ctx:      ctx,
		cancel:   cancel,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		state:    StateRunning,
	}

	// DOM mutation invalidates cached resolutions; the next tick re-detects
	// the page type regardless.
	if n, ok := e.deps.Page.(page.ChangeNotifier); ok {
		n.OnPageChanged(res.InvalidateCache)
	}
	return s
}

// Stop ends the active session and discards it.
func (e *Engine) Stop() error {
	e.mu.Lock()
	s := e.sess
	e.sess = nil
	e.mu.Unlock()
	if s == nil {
		return ErrNoSession
	}
	s.stop()
	e.logger.Info("Session stopped", zap.String("session_id", s.id))
	return nil
}

// Pause suspends the active session at its next suspension point.
func (e *Engine) Pause() error {
	s := e.current()
	if s == nil {
		return ErrNoSession
	}
	return s.pause()
}

// Resume continues a paused session.
func (e *Engine) Resume() error {
	s := e.current()
	if s == nil {
		return ErrNoSession
	}
	return s.resume()
}

// Status snapshots the engine and session state for reporting. Always
// answers, session or not.
func (e *Engine) Status() schemas.StatusData {
	s := e.current()
	if s == nil {
		return schemas.StatusData{Status: string(StateIdle)}
	}
	st := s.State()
	return schemas.StatusData{
		IsRunning:      st == StateRunning,
		IsPaused:       st == StatePaused,
		CurrentSession: s.id,
		CurrentPage:    s.tracker.CurrentPage(),
		Progress:       s.tracker.OverallProgress(),
		DurationMs:     s.tracker.SessionDuration().Milliseconds(),
		Status:         string(st),
		LastError:      s.LastError(),
		Metrics:        s.tracker.GoalStatus(),
	}
}

// TestSelector resolves a selector against the live page for diagnostics.
// With an active session the session's resolver (and its alias set) is used;
// otherwise a transient resolver with no aliases.
func (e *Engine) TestSelector(ctx context.Context, selector string) schemas.TestSelectorResult {
	var res *resolver.Resolver
	var pageType string
	if s := e.current(); s != nil {
		res = s.res
		pageType = s.tracker.CurrentPage()
	} else {
		res = resolver.New(e.deps.Page, schemas.SelectorSet{}, e.deps.Rng, e.deps.Logger)
	}

	r, err := res.Resolve(ctx, selector, resolver.Options{PageType: pageType, NoCache: true})
	if err != nil {
		return schemas.TestSelectorResult{Found: false}
	}
	if r.BrowserBack {
		return schemas.TestSelectorResult{Found: true, Element: resolver.BrowserBack}
	}
	desc := r.Element.Tag
	if r.Element.Locator != "" {
		desc = r.Element.Tag + " " + r.Element.Locator
	}
	return schemas.TestSelectorResult{Found: true, Element: desc}
}

// LogAction forwards an external fire-and-forget log entry.
func (e *Engine) LogAction(actionType string, fields map[string]interface{}) {
	if e.deps.Actions != nil {
		e.deps.Actions.LogAction(actionType, fields)
		return
	}
	e.logger.Info("Action log", zap.String("action_type", actionType), zap.Any("context", fields))
}

// Close stops any active session. Safe to call repeatedly.
func (e *Engine) Close() {
	_ = e.Stop()
}

func (e *Engine) current() *session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess
}
