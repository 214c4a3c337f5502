// internal/engine/interpreter_test.go
package engine

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/drover/api/schemas"
	"github.com/xkilldash9x/drover/internal/humanoid"
	"github.com/xkilldash9x/drover/internal/resolver"
	"github.com/xkilldash9x/drover/internal/timing"
)

type interpFixture struct {
	pg      *mockPage
	sleeper *zeroSleeper
	capture *mockCapture
	actions *mockActionLogger
	interp  *Interpreter
}

func newInterpFixture(t *testing.T) *interpFixture {
	pg := newMockPage()
	sleeper := &zeroSleeper{}
	capture := &mockCapture{}
	actions := &mockActionLogger{}
	logger := zaptest.NewLogger(t)
	rng := rand.New(rand.NewSource(1))

	res := resolver.New(pg, schemas.SelectorSet{
		Global: map[string]string{"go_back": "browser_back"},
	}, rng, logger)
	hum := humanoid.New(pg, rng, 60, logger)
	tm := timing.New(rng, false)

	return &interpFixture{
		pg:      pg,
		sleeper: sleeper,
		capture: capture,
		actions: actions,
		interp:  NewInterpreter(pg, sleeper, res, hum, tm, capture, actions, logger),
	}
}

func (f *interpFixture) exec(t *testing.T, m schemas.MicroAction) error {
	t.Helper()
	return f.interp.Execute(context.Background(), m, "home")
}

func TestExecute_Wait(t *testing.T) {
	f := newInterpFixture(t)
	require.NoError(t, f.exec(t, schemas.MicroAction{Kind: schemas.MicroWait, Duration: "200ms"}))

	sleeps := f.sleeper.requested()
	require.Len(t, sleeps, 1)
	// 200ms with +-20% jitter, floored at 100ms.
	assert.GreaterOrEqual(t, sleeps[0], 100*time.Millisecond)
	assert.LessOrEqual(t, sleeps[0], 240*time.Millisecond)
}

func TestExecute_WaitInvalidSpec(t *testing.T) {
	f := newInterpFixture(t)
	err := f.exec(t, schemas.MicroAction{Kind: schemas.MicroWait, Duration: "bogus"})
	var mae *MicroActionError
	require.ErrorAs(t, err, &mae)
	assert.Equal(t, schemas.MicroWait, mae.Kind)
}

func TestExecute_MoveDispatchesPointer(t *testing.T) {
	f := newInterpFixture(t)
	f.pg.setQuery("#target", visibleEl("#target", 200, 150))

	require.NoError(t, f.exec(t, schemas.MicroAction{Kind: schemas.MicroMove, Target: "#target"}))

	f.pg.mu.Lock()
	events := f.pg.mouseEvents
	f.pg.mu.Unlock()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, schemas.MouseMove, last.Type)
	// The move ends at the box center.
	assert.InDelta(t, 250.0, last.X, 0.001)
	assert.InDelta(t, 165.0, last.Y, 0.001)
}

func TestExecute_MoveUnresolvedTarget(t *testing.T) {
	f := newInterpFixture(t)
	err := f.exec(t, schemas.MicroAction{Kind: schemas.MicroMove, Target: "#missing"})
	var mae *MicroActionError
	require.ErrorAs(t, err, &mae)
	assert.ErrorIs(t, err, resolver.ErrElementNotFound)
}

func TestExecute_ClickPressAndRelease(t *testing.T) {
	f := newInterpFixture(t)
	f.pg.setQuery("button.buy", visibleEl("button.buy", 300, 200))

	require.NoError(t, f.exec(t, schemas.MicroAction{Kind: schemas.MicroClick, Target: "button.buy"}))

	f.pg.mu.Lock()
	events := f.pg.mouseEvents
	f.pg.mu.Unlock()
	var presses, releases int
	for _, ev := range events {
		switch ev.Type {
		case schemas.MousePress:
			presses++
		case schemas.MouseRelease:
			releases++
		}
	}
	assert.Equal(t, 1, presses)
	assert.Equal(t, 1, releases)
}

func TestExecute_ClickBrowserBack(t *testing.T) {
	f := newInterpFixture(t)

	require.NoError(t, f.exec(t, schemas.MicroAction{Kind: schemas.MicroClick, Target: "browser_back"}))
	assert.Equal(t, 1, f.pg.backCount())

	// Also through an alias, with no pointer events at all.
	require.NoError(t, f.exec(t, schemas.MicroAction{Kind: schemas.MicroClick, Target: "@go_back"}))
	assert.Equal(t, 2, f.pg.backCount())
	f.pg.mu.Lock()
	assert.Empty(t, f.pg.mouseEvents)
	f.pg.mu.Unlock()
}

func TestExecute_MoveRejectsBrowserBack(t *testing.T) {
	f := newInterpFixture(t)
	err := f.exec(t, schemas.MicroAction{Kind: schemas.MicroMove, Target: "browser_back"})
	require.Error(t, err)
}

func TestExecute_ScrollByDistance(t *testing.T) {
	f := newInterpFixture(t)
	require.NoError(t, f.exec(t, schemas.MicroAction{Kind: schemas.MicroScroll, Distance: 240}))

	f.pg.mu.Lock()
	scrolls := f.pg.scrolls
	f.pg.mu.Unlock()
	var total float64
	for _, dy := range scrolls {
		total += dy
	}
	assert.InDelta(t, 240.0, total, 0.001)
}

func TestExecute_TypeFocusesAndTypes(t *testing.T) {
	f := newInterpFixture(t)
	f.pg.setQuery("input.search", visibleEl("input.search", 100, 100))

	require.NoError(t, f.exec(t, schemas.MicroAction{
		Kind:       schemas.MicroType,
		Target:     "input.search",
		Text:       "abc",
		ClearFirst: true,
	}))

	f.pg.mu.Lock()
	focus, clear := f.pg.focusCalls, f.pg.clearCalls
	f.pg.mu.Unlock()
	assert.Equal(t, 1, focus)
	assert.Equal(t, 1, clear)

	var typed string
	for _, k := range f.pg.typed() {
		if k != "\b" {
			typed += k
		}
	}
	assert.Contains(t, typed, "a")
	assert.Contains(t, typed, "b")
	assert.Contains(t, typed, "c")
}

func TestExecute_Verify(t *testing.T) {
	f := newInterpFixture(t)
	f.pg.setQuery("#present", visibleEl("#present", 10, 10))
	no := false

	require.NoError(t, f.exec(t, schemas.MicroAction{Kind: schemas.MicroVerify, Target: "#present"}))
	require.NoError(t, f.exec(t, schemas.MicroAction{Kind: schemas.MicroVerify, Target: "#absent", ShouldExist: &no}))

	assert.Error(t, f.exec(t, schemas.MicroAction{Kind: schemas.MicroVerify, Target: "#absent"}))
	assert.Error(t, f.exec(t, schemas.MicroAction{Kind: schemas.MicroVerify, Target: "#present", ShouldExist: &no}))
}

func TestExecute_Screenshot(t *testing.T) {
	f := newInterpFixture(t)

	require.NoError(t, f.exec(t, schemas.MicroAction{Kind: schemas.MicroScreenshot, Message: "checkout"}))
	saved := f.capture.saved()
	require.Len(t, saved, 1)
	assert.Equal(t, "checkout", saved[0])

	// Without a name a timestamped default is used.
	require.NoError(t, f.exec(t, schemas.MicroAction{Kind: schemas.MicroScreenshot}))
	saved = f.capture.saved()
	require.Len(t, saved, 2)
	assert.Contains(t, saved[1], "capture-")
}

func TestExecute_Log(t *testing.T) {
	f := newInterpFixture(t)
	require.NoError(t, f.exec(t, schemas.MicroAction{Kind: schemas.MicroLog, Message: "reached cart"}))
	assert.Equal(t, []string{"scenario_log"}, f.actions.logged())
}

func TestExecute_UnknownKindIsError(t *testing.T) {
	f := newInterpFixture(t)
	err := f.exec(t, schemas.MicroAction{Kind: "teleport"})
	var mae *MicroActionError
	require.ErrorAs(t, err, &mae)
	assert.Contains(t, err.Error(), "teleport")
}

func TestExecute_ContextCancellationPassesThrough(t *testing.T) {
	f := newInterpFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.interp.Execute(ctx, schemas.MicroAction{Kind: schemas.MicroWait, Duration: "1s"}, "home")
	assert.ErrorIs(t, err, context.Canceled)
	var mae *MicroActionError
	assert.False(t, errors.As(err, &mae), "cancellation must not be tagged as a step failure")
}
