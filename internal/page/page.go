// internal/page/page.go

// Package page defines the capability surface the engine needs from a live
// browser page. The concrete implementation lives in internal/browser; tests
// substitute in-memory fakes. Keeping this a pure interface package decouples
// the resolver and interpreter from any specific driving mechanism.
package page

import (
	"context"
	"time"

	"github.com/xkilldash9x/drover/api/schemas"
)

// Element is a snapshot of one concrete page element at resolution time.
// Locator plus MatchIndex re-identify the element for input dispatch and
// cache revalidation; the snapshot fields can go stale as the tree mutates.
type Element struct {
	// Locator is the structural expression that found the element.
	Locator string
	// MatchIndex disambiguates multiple matches of the same locator.
	MatchIndex int
	Box        schemas.Box
	Visible    bool
	Tag        string
	// Text is the element's trimmed text content, populated by text queries.
	Text string
}

// Page is the live-page capability surface.
type Page interface {
	// Query runs a structural query and returns all matches with fresh
	// geometry and visibility.
	Query(ctx context.Context, selector string) ([]Element, error)
	// FindByText returns all elements whose text content contains the given
	// string, with Text populated for exact-vs-substring classification.
	FindByText(ctx context.Context, content string) ([]Element, error)
	// FindByAttr returns elements carrying the attribute; substring selects
	// containment matching instead of exact equality.
	FindByAttr(ctx context.Context, attr, value string, substring bool) ([]Element, error)
	// VisibleElements returns the currently visible elements with geometry,
	// used by the geometric resolution strategy.
	VisibleElements(ctx context.Context) ([]Element, error)
	// IsAttached reports whether a previously resolved element is still part
	// of the live tree.
	IsAttached(ctx context.Context, el Element) (bool, error)

	Viewport(ctx context.Context) (schemas.Viewport, error)
	ScrollIntoView(ctx context.Context, el Element) error
	// ScrollBy scrolls the page by a signed pixel delta.
	ScrollBy(ctx context.Context, dx, dy float64) error

	DispatchMouse(ctx context.Context, data schemas.MouseEventData) error
	SendKeys(ctx context.Context, keys string) error
	Focus(ctx context.Context, el Element) error
	ClearInput(ctx context.Context, el Element) error

	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error
	CanGoBack(ctx context.Context) (bool, error)
	CurrentURL(ctx context.Context) (string, error)

	Screenshot(ctx context.Context) ([]byte, error)
}

// Sleeper abstracts timed suspension so tests can collapse waits to zero
// while asserting the exact requested durations.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// ChangeNotifier is the external page-change watch capability. The engine
// subscribes once and re-runs page detection whenever the callback fires.
type ChangeNotifier interface {
	OnPageChanged(fn func())
}

// RealSleeper suspends on a timer, honoring context cancellation.
type RealSleeper struct{}

// Sleep blocks for d or until the context is done.
func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
