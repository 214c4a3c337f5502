// internal/goals/tracker.go

// Package goals accumulates named numeric metrics for a session and decides
// when a scenario's goals are satisfied or its time budget is exhausted.
package goals

import (
	"sync"
	"time"

	"github.com/xkilldash9x/drover/api/schemas"
)

// Tracker owns a session's metric accumulators and time bookkeeping. Safe
// for concurrent reads from status reporting while the run loop writes.
type Tracker struct {
	mu           sync.Mutex
	goals        schemas.Goals
	metrics      map[string]float64
	sessionStart time.Time
	currentPage  string
	pageArrival  time.Time
	now          func() time.Time
}

// New creates a tracker for the scenario's goals, stamping the session start.
// The clock is injectable for tests; nil uses time.Now.
func New(g schemas.Goals, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	t := &Tracker{
		goals:   g,
		metrics: make(map[string]float64),
		now:     now,
	}
	t.sessionStart = now()
	t.pageArrival = t.sessionStart
	return t
}

// UpdateMetrics adds each delta to its accumulator. Metrics not declared in
// the goals are created on first use.
func (t *Tracker) UpdateMetrics(deltas schemas.MetricDeltas) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, d := range deltas {
		t.metrics[name] += d
	}
}

// UpdateCurrentPage records arrival on a page type, resetting the
// time-on-page clock.
func (t *Tracker) UpdateCurrentPage(pageType string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentPage = pageType
	t.pageArrival = t.now()
}

// CurrentPage returns the last recorded page type.
func (t *Tracker) CurrentPage() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentPage
}

// Metric returns the current value of one accumulator.
func (t *Tracker) Metric(name string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.metrics[name]
}

// AreGoalsMet reports whether every required metric has reached its
// threshold. Optional metrics never block completion.
func (t *Tracker) AreGoalsMet() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.goals.RequiredMetrics) == 0 {
		return false
	}
	for name, required := range t.goals.RequiredMetrics {
		if t.metrics[name] < required {
			return false
		}
	}
	return true
}

// IsSessionTimedOut reports whether the elapsed session time has exceeded
// the goals' session-duration bound. Always false without a bound.
func (t *Tracker) IsSessionTimedOut() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	sd := t.goals.SessionDuration
	if sd == nil || sd.Max <= 0 {
		return false
	}
	return t.now().Sub(t.sessionStart) >= time.Duration(sd.Max)*time.Millisecond
}

// TimeOnCurrentPage returns the elapsed time since the last page arrival.
func (t *Tracker) TimeOnCurrentPage() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now().Sub(t.pageArrival)
}

// SessionDuration returns the elapsed time since the session started.
func (t *Tracker) SessionDuration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now().Sub(t.sessionStart)
}

// OverallProgress is a derived completion percentage in [0,100]: the larger
// of the elapsed-time ratio (when a duration bound exists) and the mean
// required-metric completion ratio.
func (t *Tracker) OverallProgress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var timeRatio float64
	if sd := t.goals.SessionDuration; sd != nil && sd.Max > 0 {
		timeRatio = float64(t.now().Sub(t.sessionStart)) / float64(time.Duration(sd.Max)*time.Millisecond)
	}

	var metricRatio float64
	if n := len(t.goals.RequiredMetrics); n > 0 {
		var sum float64
		for name, required := range t.goals.RequiredMetrics {
			if required <= 0 {
				sum += 1
				continue
			}
			ratio := t.metrics[name] / required
			if ratio > 1 {
				ratio = 1
			}
			sum += ratio
		}
		metricRatio = sum / float64(n)
	}

	progress := timeRatio
	if metricRatio > progress {
		progress = metricRatio
	}
	if progress > 1 {
		progress = 1
	}
	if progress < 0 {
		progress = 0
	}
	return progress * 100
}

// GoalStatus returns the per-metric current/required snapshot for status
// reporting. Optional metrics are flagged as such.
func (t *Tracker) GoalStatus() map[string]schemas.MetricStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]schemas.MetricStatus, len(t.goals.RequiredMetrics)+len(t.goals.OptionalMetrics))
	for name, required := range t.goals.RequiredMetrics {
		out[name] = schemas.MetricStatus{Current: t.metrics[name], Required: required}
	}
	for name, target := range t.goals.OptionalMetrics {
		out[name] = schemas.MetricStatus{Current: t.metrics[name], Required: target, Optional: true}
	}
	return out
}
