// internal/engine/selector_test.go
package engine

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/drover/api/schemas"
	"github.com/xkilldash9x/drover/internal/goals"
	"github.com/xkilldash9x/drover/internal/resolver"
)

type selectorFixture struct {
	pg      *mockPage
	tracker *goals.Tracker
	clock   *fakeClock
	sel     *ActionSelector
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newSelectorFixture(t *testing.T, seed int64) *selectorFixture {
	pg := newMockPage()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	tracker := goals.New(schemas.Goals{}, clock.Now)
	rng := rand.New(rand.NewSource(seed))
	res := resolver.New(pg, schemas.SelectorSet{}, rng, zaptest.NewLogger(t))
	return &selectorFixture{
		pg:      pg,
		tracker: tracker,
		clock:   clock,
		sel:     NewActionSelector(tracker, res, rng, zaptest.NewLogger(t)),
	}
}

func TestSelect_EmptyAndZeroWeight(t *testing.T) {
	f := newSelectorFixture(t, 1)
	ctx := context.Background()

	assert.Nil(t, f.sel.Select(ctx, nil, "home"))
	assert.Nil(t, f.sel.Select(ctx, []schemas.Action{
		{Name: "disabled", Probability: 0},
		{Name: "negative", Probability: -1},
	}, "home"))
}

func TestSelect_SingleEligible(t *testing.T) {
	f := newSelectorFixture(t, 1)
	got := f.sel.Select(context.Background(), []schemas.Action{
		{Name: "only", Probability: 0.2},
	}, "home")
	require.NotNil(t, got)
	assert.Equal(t, "only", got.Name)
}

func TestSelect_TimeOnPageConditions(t *testing.T) {
	f := newSelectorFixture(t, 1)
	ctx := context.Background()
	f.tracker.UpdateCurrentPage("home")
	f.clock.Advance(10 * time.Second)

	actions := []schemas.Action{
		{Name: "too-early", Probability: 1, Conditions: &schemas.Condition{MinTimeOnPage: 20_000}},
		{Name: "too-late", Probability: 1, Conditions: &schemas.Condition{MaxTimeOnPage: 5_000}},
		{Name: "in-window", Probability: 1, Conditions: &schemas.Condition{MinTimeOnPage: 5_000, MaxTimeOnPage: 30_000}},
	}
	got := f.sel.Select(ctx, actions, "home")
	require.NotNil(t, got)
	assert.Equal(t, "in-window", got.Name)
}

func TestSelect_ElementConditions(t *testing.T) {
	f := newSelectorFixture(t, 1)
	f.pg.setQuery("#banner", visibleEl("#banner", 10, 10))
	ctx := context.Background()

	t.Run("ElementExists", func(t *testing.T) {
		got := f.sel.Select(ctx, []schemas.Action{
			{Name: "needs-missing", Probability: 1, Conditions: &schemas.Condition{ElementExists: "#gone"}},
			{Name: "needs-banner", Probability: 1, Conditions: &schemas.Condition{ElementExists: "#banner"}},
		}, "home")
		require.NotNil(t, got)
		assert.Equal(t, "needs-banner", got.Name)
	})

	t.Run("ElementNotExists", func(t *testing.T) {
		got := f.sel.Select(ctx, []schemas.Action{
			{Name: "banner-absent", Probability: 1, Conditions: &schemas.Condition{ElementNotExists: "#banner"}},
			{Name: "gone-absent", Probability: 1, Conditions: &schemas.Condition{ElementNotExists: "#gone"}},
		}, "home")
		require.NotNil(t, got)
		assert.Equal(t, "gone-absent", got.Name)
	})
}

func TestSelect_GoalProgressCondition(t *testing.T) {
	f := newSelectorFixture(t, 1)
	f.tracker.UpdateMetrics(schemas.MetricDeltas{"visits": 2})
	ctx := context.Background()

	got := f.sel.Select(ctx, []schemas.Action{
		{Name: "needs-5", Probability: 1, Conditions: &schemas.Condition{GoalProgress: map[string]float64{"visits": 5}}},
		{Name: "needs-2", Probability: 1, Conditions: &schemas.Condition{GoalProgress: map[string]float64{"visits": 2}}},
	}, "home")
	require.NotNil(t, got)
	assert.Equal(t, "needs-2", got.Name)
}

func TestSelect_WeightedDistribution(t *testing.T) {
	f := newSelectorFixture(t, 42)
	ctx := context.Background()
	actions := []schemas.Action{
		{Name: "heavy", Probability: 0.9},
		{Name: "light", Probability: 0.1},
	}

	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		got := f.sel.Select(ctx, actions, "home")
		require.NotNil(t, got)
		counts[got.Name]++
	}
	// Relative weights 9:1; allow generous slack around the expectation.
	assert.Greater(t, counts["heavy"], 1600)
	assert.Greater(t, counts["light"], 50)
}

func TestSelect_DeterministicWithSeed(t *testing.T) {
	actions := []schemas.Action{
		{Name: "a", Probability: 0.3},
		{Name: "b", Probability: 0.3},
		{Name: "c", Probability: 0.4},
	}

	runDraws := func() []string {
		f := newSelectorFixture(t, 7)
		var names []string
		for i := 0; i < 50; i++ {
			names = append(names, f.sel.Select(context.Background(), actions, "home").Name)
		}
		return names
	}
	assert.Equal(t, runDraws(), runDraws())
}

func TestPickWeighted_ResidueFallsToLast(t *testing.T) {
	f := newSelectorFixture(t, 1)
	// A single candidate must always be picked regardless of the draw.
	got := f.sel.pickWeighted([]schemas.Action{{Name: "solo", Probability: 0.000001}})
	assert.Equal(t, "solo", got.Name)
}
