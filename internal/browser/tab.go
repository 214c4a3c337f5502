// internal/browser/tab.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/drover/api/schemas"
	"github.com/xkilldash9x/drover/internal/config"
	"github.com/xkilldash9x/drover/internal/page"
)

// elementSnapshot is the wire form of one in-page element capture.
type elementSnapshot struct {
	Locator string      `json:"locator"`
	Box     schemas.Box `json:"box"`
	Visible bool        `json:"visible"`
	Tag     string      `json:"tag"`
	Text    string      `json:"text"`
}

// Tab is one live automation tab. It implements the page capability surface
// and the humanoid input surface over the same CDP target.
type Tab struct {
	// ctx is the tab's lifetime context carrying the chromedp target.
	ctx    context.Context
	cfg    config.BrowserConfig
	logger *zap.Logger
}

var _ page.Page = (*Tab)(nil)
var _ page.ChangeNotifier = (*Tab)(nil)

// NewTab wraps an attached chromedp target context.
func NewTab(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) *Tab {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tab{
		ctx:    ctx,
		cfg:    cfg,
		logger: logger.Named("tab"),
	}
}

// run executes chromedp actions against the tab, honoring both the tab
// lifetime and the caller's context.
func (t *Tab) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// snapshots evaluates an element-query script and converts the result.
func (t *Tab) snapshots(ctx context.Context, script string) ([]page.Element, error) {
	var snaps []elementSnapshot
	if err := t.run(ctx, chromedp.Evaluate(script, &snaps)); err != nil {
		return nil, fmt.Errorf("browser: element query: %w", err)
	}
	els := make([]page.Element, 0, len(snaps))
	for _, s := range snaps {
		els = append(els, page.Element{
			Locator: s.Locator,
			Box:     s.Box,
			Visible: s.Visible,
			Tag:     s.Tag,
			Text:    s.Text,
		})
	}
	return els, nil
}

func (t *Tab) Query(ctx context.Context, selector string) ([]page.Element, error) {
	return t.snapshots(ctx, fmt.Sprintf(jsQuery, selector))
}

func (t *Tab) FindByText(ctx context.Context, content string) ([]page.Element, error) {
	return t.snapshots(ctx, fmt.Sprintf(jsFindByText, content))
}

func (t *Tab) FindByAttr(ctx context.Context, attr, value string, substring bool) ([]page.Element, error) {
	return t.snapshots(ctx, fmt.Sprintf(jsFindByAttr, attr, substring, value))
}

func (t *Tab) VisibleElements(ctx context.Context) ([]page.Element, error) {
	return t.snapshots(ctx, jsVisibleElements)
}

func (t *Tab) IsAttached(ctx context.Context, el page.Element) (bool, error) {
	var attached bool
	err := t.run(ctx, chromedp.Evaluate(fmt.Sprintf(jsIsAttached, el.Locator), &attached))
	if err != nil {
		return false, fmt.Errorf("browser: attachment check: %w", err)
	}
	return attached, nil
}

func (t *Tab) Viewport(ctx context.Context) (schemas.Viewport, error) {
	var vp schemas.Viewport
	if err := t.run(ctx, chromedp.Evaluate(jsViewport, &vp)); err != nil {
		return schemas.Viewport{}, fmt.Errorf("browser: viewport query: %w", err)
	}
	return vp, nil
}

func (t *Tab) ScrollIntoView(ctx context.Context, el page.Element) error {
	var ok bool
	if err := t.run(ctx, chromedp.Evaluate(fmt.Sprintf(jsScrollIntoView, el.Locator), &ok)); err != nil {
		return fmt.Errorf("browser: scroll into view: %w", err)
	}
	if !ok {
		return fmt.Errorf("browser: element %q no longer present", el.Locator)
	}
	return nil
}

func (t *Tab) ScrollBy(ctx context.Context, dx, dy float64) error {
	return t.run(ctx, chromedp.Evaluate(fmt.Sprintf(jsScrollBy, dx, dy), nil))
}

// DispatchMouse maps one synthetic mouse event onto Input.dispatchMouseEvent.
func (t *Tab) DispatchMouse(ctx context.Context, data schemas.MouseEventData) error {
	return t.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		p := input.DispatchMouseEvent(input.MouseType(data.Type), data.X, data.Y).
			WithButton(input.MouseButton(data.Button)).
			WithButtons(data.Buttons).
			WithClickCount(int64(data.ClickCount))
		if data.Type == schemas.MouseWheel {
			p = p.WithDeltaX(data.DeltaX).WithDeltaY(data.DeltaY)
		}
		return p.Do(c)
	}))
}

// SendKeys types the string through the CDP key event pipeline; control
// runes like backspace are encoded as their key events.
func (t *Tab) SendKeys(ctx context.Context, keys string) error {
	return t.run(ctx, chromedp.KeyEvent(keys))
}

// Sleep makes the tab usable as a humanoid input surface directly.
func (t *Tab) Sleep(ctx context.Context, d time.Duration) error {
	return page.RealSleeper{}.Sleep(ctx, d)
}

func (t *Tab) Focus(ctx context.Context, el page.Element) error {
	return t.run(ctx, chromedp.Focus(el.Locator, chromedp.ByQuery))
}

func (t *Tab) ClearInput(ctx context.Context, el page.Element) error {
	var ok bool
	if err := t.run(ctx, chromedp.Evaluate(fmt.Sprintf(jsClearInput, el.Locator), &ok)); err != nil {
		return fmt.Errorf("browser: clearing input: %w", err)
	}
	if !ok {
		return fmt.Errorf("browser: input %q no longer present", el.Locator)
	}
	return nil
}

// Navigate loads a URL and waits for the document body, bounded by the
// configured navigation timeout.
func (t *Tab) Navigate(ctx context.Context, url string) error {
	navCtx := ctx
	if t.cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, t.cfg.NavigationTimeout)
		defer cancel()
	}
	if err := t.run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("browser: navigating to %s: %w", url, err)
	}
	return nil
}

func (t *Tab) Back(ctx context.Context) error {
	if err := t.run(ctx, chromedp.NavigateBack()); err != nil {
		return fmt.Errorf("browser: history back: %w", err)
	}
	return nil
}

// CanGoBack consults the target's navigation history.
func (t *Tab) CanGoBack(ctx context.Context) (bool, error) {
	var can bool
	err := t.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		index, _, err := cdppage.GetNavigationHistory().Do(c)
		if err != nil {
			return err
		}
		can = index > 0
		return nil
	}))
	if err != nil {
		return false, fmt.Errorf("browser: navigation history: %w", err)
	}
	return can, nil
}

func (t *Tab) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := t.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("browser: reading location: %w", err)
	}
	return url, nil
}

func (t *Tab) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := t.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("browser: capturing screenshot: %w", err)
	}
	return buf, nil
}

// OnPageChanged fires the callback on every main-frame navigation for the
// lifetime of the tab.
func (t *Tab) OnPageChanged(fn func()) {
	chromedp.ListenTarget(t.ctx, func(ev interface{}) {
		switch ev.(type) {
		case *cdppage.EventFrameNavigated, *cdppage.EventNavigatedWithinDocument:
			fn()
		}
	})
}
