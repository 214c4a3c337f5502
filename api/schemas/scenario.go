// api/schemas/scenario.go
package schemas

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WebsiteConfig is the top-level declarative document consumed at session
// start. It is validated upstream; the engine only re-checks what it cannot
// run without (known micro-action kinds, scenario identifiers).
type WebsiteConfig struct {
	Website   Website             `json:"website"`
	Selectors SelectorSet         `json:"selectors"`
	Scenarios map[string]Scenario `json:"scenarios"`
}

// Website identifies the target site the document was authored for.
type Website struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Type   string `json:"type"`
}

// SelectorSet holds the named selectors a scenario can reference with the
// `@name` alias syntax, plus per-page-type identification selectors.
type SelectorSet struct {
	Global map[string]string        `json:"global"`
	Pages  map[string]PageSelectors `json:"pages"`
}

// PageSelectors describes one page type: the selectors that identify it and
// the named elements available on it.
type PageSelectors struct {
	// Identifiers are selectors that must all be present for the page type
	// to be considered detected.
	Identifiers []string `json:"identifiers"`
	// Elements are page-scoped named selectors, consulted after Global when
	// expanding an `@name` alias.
	Elements map[string]string `json:"elements"`
}

// GlobalSelector expands an alias name against the set, preferring a
// page-scoped element for the given page type over a global entry.
func (s SelectorSet) GlobalSelector(name, pageType string) (string, bool) {
	if pageType != "" {
		if ps, ok := s.Pages[pageType]; ok {
			if sel, ok := ps.Elements[name]; ok {
				return sel, true
			}
		}
	}
	sel, ok := s.Global[name]
	return sel, ok
}

// Scenario bundles per-page-type behaviour with completion goals. It is
// immutable once a session starts.
type Scenario struct {
	ID    string                `json:"id"`
	Name  string                `json:"name"`
	Goals Goals                 `json:"goals"`
	Pages map[string]PageConfig `json:"pages"`
}

// Goals defines when a session is finished.
type Goals struct {
	// RequiredMetrics must all reach their thresholds for completion.
	RequiredMetrics map[string]float64 `json:"required_metrics"`
	// OptionalMetrics are reported but never block completion.
	OptionalMetrics map[string]float64 `json:"optional_metrics"`
	// SessionDuration bounds the wall-clock lifetime of the session.
	SessionDuration *SessionDuration `json:"session_duration,omitempty"`
}

// SessionDuration is a wall-clock budget in milliseconds.
type SessionDuration struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// PageConfig describes how the agent behaves while on one page type.
type PageConfig struct {
	// StayDuration is a duration spec (e.g. "20-40s") governing the pause
	// between ticks while on this page.
	StayDuration string `json:"stayDuration"`
	// EntryActions run once when the page type is first entered.
	EntryActions []MicroAction `json:"entryActions,omitempty"`
	Actions      ActionGroups  `json:"actions"`
}

// ActionGroups partitions a page's actions by whether they are expected to
// navigate away from the page.
type ActionGroups struct {
	Navigation    []Action `json:"navigation,omitempty"`
	NonNavigation []Action `json:"nonNavigation,omitempty"`
}

// All returns the navigation and non-navigation actions as one candidate
// list, navigation actions first.
func (g ActionGroups) All() []Action {
	out := make([]Action, 0, len(g.Navigation)+len(g.NonNavigation))
	out = append(out, g.Navigation...)
	out = append(out, g.NonNavigation...)
	return out
}

// Action is one selectable behaviour on a page. Probability is a relative
// weight, not a normalized probability; selection is weighted-random across
// all eligible actions.
type Action struct {
	Name        string        `json:"name"`
	Probability float64       `json:"probability"`
	Conditions  *Condition    `json:"conditions,omitempty"`
	Impact      MetricDeltas  `json:"impact,omitempty"`
	Micro       []MicroAction `json:"microSequence"`
	// TargetPage, when set, names the page type expected after the action
	// completes. Used for transition wait-and-recheck.
	TargetPage string `json:"targetPage,omitempty"`
}

// MetricDeltas maps metric names to additive deltas applied when an action's
// full micro-sequence completes successfully.
type MetricDeltas map[string]float64

// Condition is the precondition set gating an action's eligibility.
type Condition struct {
	// Time bounds on the current page, in milliseconds. Zero means unset.
	MinTimeOnPage int64 `json:"minTimeOnPage,omitempty"`
	MaxTimeOnPage int64 `json:"maxTimeOnPage,omitempty"`
	// Element presence checks, evaluated against the live page.
	ElementExists    string `json:"elementExists,omitempty"`
	ElementNotExists string `json:"elementNotExists,omitempty"`
	// GoalProgress requires each named metric to have reached a minimum.
	GoalProgress map[string]float64 `json:"goalProgress,omitempty"`
}

// ParseWebsiteConfig decodes a website configuration document.
func ParseWebsiteConfig(data []byte) (*WebsiteConfig, error) {
	var cfg WebsiteConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("schemas: decoding website config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate performs the minimal structural checks the engine cannot run
// without. Full schema validation is an upstream concern.
func (c *WebsiteConfig) Validate() error {
	if len(c.Scenarios) == 0 {
		return fmt.Errorf("schemas: website config declares no scenarios")
	}
	for id, sc := range c.Scenarios {
		if len(sc.Pages) == 0 {
			return fmt.Errorf("schemas: scenario %q declares no pages", id)
		}
		for pageType, pc := range sc.Pages {
			for _, a := range pc.Actions.All() {
				if a.Probability < 0 || a.Probability > 1 {
					return fmt.Errorf("schemas: scenario %q page %q action %q: probability %v outside [0,1]",
						id, pageType, a.Name, a.Probability)
				}
				for i, m := range a.Micro {
					if err := m.Validate(); err != nil {
						return fmt.Errorf("schemas: scenario %q page %q action %q step %d: %w",
							id, pageType, a.Name, i, err)
					}
				}
			}
			for i, m := range pc.EntryActions {
				if err := m.Validate(); err != nil {
					return fmt.Errorf("schemas: scenario %q page %q entry step %d: %w", id, pageType, i, err)
				}
			}
		}
	}
	return nil
}
