// internal/resolver/mocks_test.go
package resolver

import (
	"context"
	"strings"
	"sync"

	"github.com/xkilldash9x/drover/api/schemas"
	"github.com/xkilldash9x/drover/internal/page"
)

// mockPage is an in-memory page for resolver tests. Element sets are wired
// per selector; call counters let tests assert which strategies ran.
type mockPage struct {
	mu sync.Mutex

	queries  map[string][]page.Element
	texts    []page.Element
	attrs    map[string][]page.Element
	visible  []page.Element
	detached map[string]bool
	viewport schemas.Viewport

	queryCalls    map[string]int
	attachedCalls int
}

func newMockPage() *mockPage {
	return &mockPage{
		queries:    make(map[string][]page.Element),
		attrs:      make(map[string][]page.Element),
		detached:   make(map[string]bool),
		viewport:   schemas.Viewport{Width: 1280, Height: 800},
		queryCalls: make(map[string]int),
	}
}

func attrKey(attr, value string, substring bool) string {
	if substring {
		return attr + "*=" + value
	}
	return attr + "=" + value
}

func (m *mockPage) Query(ctx context.Context, selector string) ([]page.Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls[selector]++
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
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attrs[attrKey(attr, value, substring)], nil
}

func (m *mockPage) VisibleElements(ctx context.Context) ([]page.Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible, nil
}

func (m *mockPage) IsAttached(ctx context.Context, el page.Element) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attachedCalls++
	return !m.detached[el.Locator], nil
}

func (m *mockPage) Viewport(ctx context.Context) (schemas.Viewport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewport, nil
}

func (m *mockPage) ScrollIntoView(ctx context.Context, el page.Element) error { return nil }
func (m *mockPage) ScrollBy(ctx context.Context, dx, dy float64) error        { return nil }

func (m *mockPage) DispatchMouse(ctx context.Context, data schemas.MouseEventData) error { return nil }
func (m *mockPage) SendKeys(ctx context.Context, keys string) error                      { return nil }
func (m *mockPage) Focus(ctx context.Context, el page.Element) error                     { return nil }
func (m *mockPage) ClearInput(ctx context.Context, el page.Element) error                { return nil }

func (m *mockPage) Navigate(ctx context.Context, url string) error { return nil }
func (m *mockPage) Back(ctx context.Context) error                 { return nil }
func (m *mockPage) CanGoBack(ctx context.Context) (bool, error)    { return false, nil }
func (m *mockPage) CurrentURL(ctx context.Context) (string, error) { return "about:blank", nil }

func (m *mockPage) Screenshot(ctx context.Context) ([]byte, error) { return nil, nil }

func (m *mockPage) queryCount(selector string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryCalls[selector]
}

var _ page.Page = (*mockPage)(nil)

func el(locator string, visible bool) page.Element {
	return page.Element{Locator: locator, Visible: visible, Tag: "div"}
}
