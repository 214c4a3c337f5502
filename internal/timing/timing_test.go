// internal/timing/timing_test.go
package timing

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/drover/api/schemas"
)

func TestParseSpec(t *testing.T) {
	cases := []struct {
		spec string
		want Range
	}{
		{"2", Range{2 * time.Second, 2 * time.Second}},
		{"1.5", Range{1500 * time.Millisecond, 1500 * time.Millisecond}},
		{"500ms", Range{500 * time.Millisecond, 500 * time.Millisecond}},
		{"2s", Range{2 * time.Second, 2 * time.Second}},
		{"3-8s", Range{3 * time.Second, 8 * time.Second}},
		{"200-600ms", Range{200 * time.Millisecond, 600 * time.Millisecond}},
		{" 1-2s ", Range{1 * time.Second, 2 * time.Second}},
		{"0.5-1.5", Range{500 * time.Millisecond, 1500 * time.Millisecond}},
	}
	for _, tc := range cases {
		t.Run(tc.spec, func(t *testing.T) {
			got, err := ParseSpec(tc.spec)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseSpec_Invalid(t *testing.T) {
	for _, spec := range []string{"", "abc", "5x2", "-3s", "8-3s", "--", "3-"} {
		t.Run(spec, func(t *testing.T) {
			_, err := ParseSpec(spec)
			assert.Error(t, err)
		})
	}
}

func TestResolve_WithinJitteredBounds(t *testing.T) {
	m := New(rand.New(rand.NewSource(42)), false)

	// With +-20% jitter, any resolved value must land inside the widened
	// envelope of the declared range (and above the floor).
	lo := time.Duration(float64(3*time.Second) * 0.8)
	hi := time.Duration(float64(8*time.Second) * 1.2)

	for i := 0; i < 1000; i++ {
		d, err := m.Resolve("3-8s")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, d, lo)
		assert.LessOrEqual(t, d, hi)
	}
}

func TestResolve_Floor(t *testing.T) {
	m := New(rand.New(rand.NewSource(1)), false)
	for i := 0; i < 100; i++ {
		d, err := m.Resolve("1ms")
		require.NoError(t, err)
		assert.Equal(t, 100*time.Millisecond, d)
	}
}

func TestResolve_SlowModeDoubles(t *testing.T) {
	fast := New(rand.New(rand.NewSource(7)), false)
	slow := New(rand.New(rand.NewSource(7)), true)

	// Identical seeds draw the identical sample and jitter, so the slow value
	// is exactly twice the fast one.
	for i := 0; i < 50; i++ {
		df, err := fast.Resolve("2-4s")
		require.NoError(t, err)
		ds, err := slow.Resolve("2-4s")
		require.NoError(t, err)
		assert.Equal(t, 2*df, ds)
	}
}

func TestResolve_InvalidSpec(t *testing.T) {
	m := New(rand.New(rand.NewSource(1)), false)
	_, err := m.Resolve("not-a-duration")
	assert.Error(t, err)
}

func TestSample_DeterministicWithSeed(t *testing.T) {
	a := New(rand.New(rand.NewSource(99)), false)
	b := New(rand.New(rand.NewSource(99)), false)
	r := Range{Min: time.Second, Max: 5 * time.Second}
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Sample(r), b.Sample(r))
	}
}

func TestSample_DegenerateRange(t *testing.T) {
	m := New(rand.New(rand.NewSource(1)), false)
	r := Range{Min: 2 * time.Second, Max: 2 * time.Second}
	assert.Equal(t, 2*time.Second, m.Sample(r))
}

func TestBetween_Bounds(t *testing.T) {
	m := New(rand.New(rand.NewSource(3)), false)
	for i := 0; i < 200; i++ {
		d := m.Between(50*time.Millisecond, 150*time.Millisecond)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.Less(t, d, 150*time.Millisecond)
	}
}

func TestPointerSpeed(t *testing.T) {
	assert.Equal(t, 400.0, PointerSpeed(schemas.SpeedSlow))
	assert.Equal(t, 900.0, PointerSpeed(schemas.SpeedNormal))
	assert.Equal(t, 900.0, PointerSpeed(schemas.Speed("")))
	assert.Equal(t, 1800.0, PointerSpeed(schemas.SpeedFast))
}

func TestScrollStepDelay(t *testing.T) {
	assert.Equal(t, 120*time.Millisecond, ScrollStepDelay(schemas.SpeedSlow))
	assert.Equal(t, 60*time.Millisecond, ScrollStepDelay(schemas.SpeedNormal))
	assert.Equal(t, 30*time.Millisecond, ScrollStepDelay(schemas.SpeedFast))
}

func FuzzParseSpec(f *testing.F) {
	for _, seed := range []string{"3-8s", "500ms", "2", "1.5", "a-b", "-1"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, spec string) {
		r, err := ParseSpec(spec)
		if err != nil {
			return
		}
		// Any accepted spec must yield ordered, non-negative bounds.
		if r.Min < 0 || r.Max < r.Min {
			t.Fatalf("ParseSpec(%q) accepted inverted bounds %+v", spec, r)
		}
	})
}
