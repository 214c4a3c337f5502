// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xkilldash9x/drover/api/schemas"
)

// ErrNoEligibleActions signals that every candidate action on the current
// page was filtered out. It triggers the stuck/recovery path, not a stop.
var ErrNoEligibleActions = errors.New("no eligible actions")

// ErrTransitionTimeout signals that an expected page change did not occur
// within the bound. Logged as a warning; execution continues on the actual
// page.
var ErrTransitionTimeout = errors.New("page transition timed out")

// PageConfigError reports a detected page type with no configuration in the
// active scenario.
type PageConfigError struct {
	PageType string
}

func (e *PageConfigError) Error() string {
	return fmt.Sprintf("engine: no page config for detected page type %q", e.PageType)
}

// MicroActionError reports a failed primitive step, tagged with its kind.
type MicroActionError struct {
	Kind  schemas.MicroKind
	Cause error
}

func (e *MicroActionError) Error() string {
	return fmt.Sprintf("engine: micro action %q failed: %v", e.Kind, e.Cause)
}

func (e *MicroActionError) Unwrap() error { return e.Cause }

// fatalSubstrings is the fixed set of failure messages that end the session
// instead of rolling to the next tick.
var fatalSubstrings = []string{
	"network error",
	"page crash",
	"extension error",
}

// isFatal classifies an error as session-fatal.
func isFatal(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range fatalSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
