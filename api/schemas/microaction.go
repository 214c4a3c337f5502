// api/schemas/microaction.go
package schemas

import "fmt"

// MicroKind tags the fixed set of primitive interaction steps. Dispatch on
// the tag is exhaustive; an unknown kind is a validation error, never a
// silent no-op.
type MicroKind string

const (
	MicroWait       MicroKind = "wait"
	MicroMove       MicroKind = "move"
	MicroHover      MicroKind = "hover"
	MicroClick      MicroKind = "click"
	MicroScroll     MicroKind = "scroll"
	MicroType       MicroKind = "type"
	MicroVerify     MicroKind = "verify"
	MicroScreenshot MicroKind = "screenshot"
	MicroLog        MicroKind = "log"
)

// MovePattern names the pointer path shape used by move/hover steps.
type MovePattern string

const (
	PatternDirect   MovePattern = "direct"
	PatternNatural  MovePattern = "natural"
	PatternHesitant MovePattern = "hesitant"
)

// Speed names a pointer or scroll velocity class.
type Speed string

const (
	SpeedSlow   Speed = "slow"
	SpeedNormal Speed = "normal"
	SpeedFast   Speed = "fast"
)

// MicroAction is one primitive step of an action's sequence. The populated
// fields depend on Kind; Validate enforces the per-kind requirements.
type MicroAction struct {
	Kind MicroKind `json:"type"`
	// Target is a declarative selector, resolved through the full strategy
	// chain (alias, virtual token, structural, text, attribute, geometric).
	Target string `json:"target,omitempty"`
	// Duration is a spec string (e.g. "1-3s", "500ms", "2") resolved by the
	// timing model. Meaning varies by kind: wait length, hover hold, typing
	// inter-character delay.
	Duration string      `json:"duration,omitempty"`
	Pattern  MovePattern `json:"pattern,omitempty"`
	Speed    Speed       `json:"speed,omitempty"`
	// Text is the payload for type steps.
	Text string `json:"text,omitempty"`
	// ClearFirst clears existing input content before typing.
	ClearFirst bool `json:"clearFirst,omitempty"`
	// Count is the number of click cycles. Zero means one.
	Count int `json:"count,omitempty"`
	// Distance is a signed pixel distance for scroll steps without a target.
	Distance int `json:"distance,omitempty"`
	// ShouldExist is the expected presence for verify steps. Nil defaults to
	// true.
	ShouldExist *bool `json:"shouldExist,omitempty"`
	// Message is the payload for log steps.
	Message string `json:"message,omitempty"`
}

// Validate checks that the step's kind is known and its required fields are
// present.
func (m MicroAction) Validate() error {
	switch m.Kind {
	case MicroWait:
		if m.Duration == "" {
			return fmt.Errorf("wait step requires a duration")
		}
	case MicroMove, MicroHover, MicroClick:
		if m.Target == "" {
			return fmt.Errorf("%s step requires a target", m.Kind)
		}
	case MicroType:
		if m.Target == "" {
			return fmt.Errorf("type step requires a target")
		}
		if m.Text == "" {
			return fmt.Errorf("type step requires text")
		}
	case MicroScroll:
		if m.Target == "" && m.Distance == 0 {
			return fmt.Errorf("scroll step requires a target or a distance")
		}
	case MicroVerify:
		if m.Target == "" {
			return fmt.Errorf("verify step requires a target")
		}
	case MicroScreenshot, MicroLog:
		// No required fields.
	case "":
		return fmt.Errorf("micro action missing type")
	default:
		return fmt.Errorf("unknown micro action type %q", m.Kind)
	}
	if m.Pattern != "" {
		switch m.Pattern {
		case PatternDirect, PatternNatural, PatternHesitant:
		default:
			return fmt.Errorf("unknown move pattern %q", m.Pattern)
		}
	}
	if m.Speed != "" {
		switch m.Speed {
		case SpeedSlow, SpeedNormal, SpeedFast:
		default:
			return fmt.Errorf("unknown speed %q", m.Speed)
		}
	}
	return nil
}

// Expects reports the expected-existence flag for verify steps, defaulting
// to true when unset.
func (m MicroAction) Expects() bool {
	if m.ShouldExist == nil {
		return true
	}
	return *m.ShouldExist
}
