// internal/engine/selector.go
package engine

import (
	"context"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/drover/api/schemas"
	"github.com/xkilldash9x/drover/internal/goals"
	"github.com/xkilldash9x/drover/internal/resolver"
)

// ActionSelector filters a page's candidate actions by precondition and
// performs weighted-random choice over the survivors.
type ActionSelector struct {
	tracker *goals.Tracker
	res     *resolver.Resolver
	logger  *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewActionSelector wires the selector to the session's tracker, resolver
// and random source.
func NewActionSelector(tracker *goals.Tracker, res *resolver.Resolver, rng *rand.Rand, logger *zap.Logger) *ActionSelector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActionSelector{
		tracker: tracker,
		res:     res,
		rng:     rng,
		logger:  logger.With(zap.String("component", "action_selector")),
	}
}

// Select returns one eligible action, or nil when nothing is eligible.
// Candidates with zero weight are dropped first, then each survivor's
// conditions are evaluated; the weighted draw runs over what remains.
func (s *ActionSelector) Select(ctx context.Context, candidates []schemas.Action, pageType string) *schemas.Action {
	eligible := make([]schemas.Action, 0, len(candidates))
	for _, a := range candidates {
		if a.Probability <= 0 {
			continue
		}
		if !s.conditionsMet(ctx, a.Conditions, pageType) {
			s.logger.Debug("Action filtered by conditions", zap.String("action", a.Name))
			continue
		}
		eligible = append(eligible, a)
	}
	if len(eligible) == 0 {
		return nil
	}
	picked := s.pickWeighted(eligible)
	return &picked
}

// conditionsMet evaluates an action's precondition set. Check order is
// fixed: time-on-page bounds, required element present, required element
// absent, then per-metric goal-progress thresholds. The first failing check
// short-circuits the rest.
func (s *ActionSelector) conditionsMet(ctx context.Context, c *schemas.Condition, pageType string) bool {
	if c == nil {
		return true
	}

	onPage := s.tracker.TimeOnCurrentPage().Milliseconds()
	if c.MinTimeOnPage > 0 && onPage < c.MinTimeOnPage {
		return false
	}
	if c.MaxTimeOnPage > 0 && onPage > c.MaxTimeOnPage {
		return false
	}

	opts := resolver.Options{PageType: pageType}
	if c.ElementExists != "" && !s.res.Exists(ctx, c.ElementExists, opts) {
		return false
	}
	if c.ElementNotExists != "" && s.res.Exists(ctx, c.ElementNotExists, opts) {
		return false
	}

	for metric, min := range c.GoalProgress {
		if s.tracker.Metric(metric) < min {
			return false
		}
	}
	return true
}

// pickWeighted draws r uniformly in [0, sumOfWeights) and walks the list
// subtracting each weight. The weights are relative, not normalized
// probabilities; scenario authors tune them under that model. Floating-point
// residue falls through to the last element rather than returning nothing.
func (s *ActionSelector) pickWeighted(actions []schemas.Action) schemas.Action {
	var sum float64
	for _, a := range actions {
		sum += a.Probability
	}

	s.mu.Lock()
	r := s.rng.Float64() * sum
	s.mu.Unlock()

	for _, a := range actions {
		r -= a.Probability
		if r <= 0 {
			return a
		}
	}
	return actions[len(actions)-1]
}
