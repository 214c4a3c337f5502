// internal/humanoid/mocks_test.go
package humanoid

import (
	"context"
	"sync"
	"time"

	"github.com/xkilldash9x/drover/api/schemas"
)

// mockSurface records the full input stream the humanoid produces. Sleeps
// are recorded but never actually wait, so tests run in zero time.
type mockSurface struct {
	mu        sync.Mutex
	mouse     []schemas.MouseEventData
	keys      []string
	scrolls   []float64
	sleeps    []time.Duration
	returnErr error
}

func newMockSurface() *mockSurface {
	return &mockSurface{}
}

func (m *mockSurface) DispatchMouse(ctx context.Context, data schemas.MouseEventData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mouse = append(m.mouse, data)
	return m.returnErr
}

func (m *mockSurface) SendKeys(ctx context.Context, keys string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, keys)
	return m.returnErr
}

func (m *mockSurface) ScrollBy(ctx context.Context, dx, dy float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scrolls = append(m.scrolls, dy)
	return m.returnErr
}

func (m *mockSurface) Sleep(ctx context.Context, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleeps = append(m.sleeps, d)
	return ctx.Err()
}

func (m *mockSurface) mouseEvents() []schemas.MouseEventData {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]schemas.MouseEventData, len(m.mouse))
	copy(out, m.mouse)
	return out
}

func (m *mockSurface) typedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *mockSurface) scrollDeltas() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, len(m.scrolls))
	copy(out, m.scrolls)
	return out
}
