// internal/engine/mocks_test.go
package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/xkilldash9x/drover/api/schemas"
	"github.com/xkilldash9x/drover/internal/page"
)

// mockPage is an in-memory page doubling as the input surface, the way the
// real tab does. Sleeps never wait so tests run in zero time.
type mockPage struct {
	mu sync.Mutex

	queries    map[string][]page.Element
	texts      []page.Element
	visible    []page.Element
	viewport   schemas.Viewport
	canGoBack  bool
	currentURL string

	mouseErr error
	backErr  error

	mouseEvents []schemas.MouseEventData
	sentKeys    []string
	scrolls     []float64
	backCalls   int
	focusCalls  int
	clearCalls  int
	navigations []string
	screenshots int
}

func newMockPage() *mockPage {
	return &mockPage{
		queries:    make(map[string][]page.Element),
		viewport:   schemas.Viewport{Width: 1280, Height: 800},
		currentURL: "https://example.test/",
	}
}

// setQuery installs the elements a structural selector resolves to.
func (m *mockPage) setQuery(selector string, els ...page.Element) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries[selector] = els
}

func (m *mockPage) Query(ctx context.Context, selector string) ([]page.Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries[selector], nil
}

func (m *mockPage) FindByText(ctx context.Context, content string) ([]page.Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []page.Element
	for _, el := range m.texts {
		if strings.Contains(el.Text, content) {
			out = append(out, el)
		}
	}
	return out, nil
}

func (m *mockPage) FindByAttr(ctx context.Context, attr, value string, substring bool) ([]page.Element, error) {
	return nil, nil
}

func (m *mockPage) VisibleElements(ctx context.Context) ([]page.Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible, nil
}

func (m *mockPage) IsAttached(ctx context.Context, el page.Element) (bool, error) {
	return true, nil
}

func (m *mockPage) Viewport(ctx context.Context) (schemas.Viewport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewport, nil
}

func (m *mockPage) ScrollIntoView(ctx context.Context, el page.Element) error { return nil }

func (m *mockPage) ScrollBy(ctx context.Context, dx, dy float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scrolls = append(m.scrolls, dy)
	return nil
}

func (m *mockPage) DispatchMouse(ctx context.Context, data schemas.MouseEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mouseEvents = append(m.mouseEvents, data)
	return m.mouseErr
}

func (m *mockPage) SendKeys(ctx context.Context, keys string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sentKeys = append(m.sentKeys, keys)
	return nil
}

func (m *mockPage) Sleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func (m *mockPage) Focus(ctx context.Context, el page.Element) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focusCalls++
	return nil
}

func (m *mockPage) ClearInput(ctx context.Context, el page.Element) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearCalls++
	return nil
}

func (m *mockPage) Navigate(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.navigations = append(m.navigations, url)
	return nil
}

func (m *mockPage) Back(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backCalls++
	return m.backErr
}

func (m *mockPage) CanGoBack(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canGoBack, nil
}

func (m *mockPage) CurrentURL(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentURL, nil
}

func (m *mockPage) Screenshot(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.screenshots++
	return []byte("png"), nil
}

func (m *mockPage) backCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backCalls
}

func (m *mockPage) typed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.sentKeys))
	copy(out, m.sentKeys)
	return out
}

var _ page.Page = (*mockPage)(nil)

// zeroSleeper records requested durations and returns immediately.
type zeroSleeper struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *zeroSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.sleeps = append(s.sleeps, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *zeroSleeper) requested() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.sleeps))
	copy(out, s.sleeps)
	return out
}

// mockCapture records saved screenshots.
type mockCapture struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (c *mockCapture) Save(ctx context.Context, name string, png []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
	return c.err
}

func (c *mockCapture) saved() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// mockActionLogger records forwarded action log entries.
type mockActionLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *mockActionLogger) LogAction(actionType string, context map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, actionType)
}

func (l *mockActionLogger) logged() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

func visibleEl(locator string, x, y float64) page.Element {
	return page.Element{
		Locator: locator,
		Visible: true,
		Tag:     "div",
		Box:     schemas.Box{X: x, Y: y, Width: 100, Height: 30},
	}
}
