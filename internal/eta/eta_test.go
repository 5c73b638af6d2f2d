package eta

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverallProgress(t *testing.T) {
	assert.Equal(t, 0, OverallProgress(nil))
	assert.Equal(t, 100, OverallProgress([]int{100, 100, 100}))
	assert.Equal(t, 50, OverallProgress([]int{0, 100}))
	assert.Equal(t, 34, OverallProgress([]int{33, 34, 34}))
	assert.Equal(t, 1, OverallProgress([]int{1, 0}))

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		progress := make([]int, r.Intn(8))
		for j := range progress {
			progress[j] = r.Intn(101)
		}
		got := OverallProgress(progress)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 100)
	}
}

func TestFormat(t *testing.T) {
	testCases := []struct {
		d    time.Duration
		want string
	}{
		{0, AlmostDone},
		{999 * time.Millisecond, AlmostDone},
		{time.Second, "1 second"},
		{12400 * time.Millisecond, "12 seconds"},
		{60 * time.Second, "1 minute"},
		{61 * time.Second, "2 minutes"},
		{59 * time.Minute, "59 minutes"},
		{time.Hour, "1 hour"},
		{2*time.Hour + 5*time.Minute + 30*time.Second, "2 hours 5 minutes"},
		{time.Hour + time.Minute, "1 hour 1 minute"},
	}
	for _, tc := range testCases {
		t.Run(tc.d.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, Format(tc.d))
		})
	}
}

func TestEstimator_Sentinels(t *testing.T) {
	start := time.Unix(1000, 0)
	var e Estimator
	e.Reset(start)

	assert.Equal(t, Calculating, e.Estimate(start, Input{}))
	assert.Equal(t, Complete, e.Estimate(start, Input{Items: 3, Pending: 0, Overall: 100}))

	// Pending but no usable sample inside the warm-up window.
	in := Input{Items: 2, Pending: 2, Samples: []Sample{{Progress: 2, Elapsed: time.Second}}}
	assert.Equal(t, Calculating, e.Estimate(start.Add(time.Second), in))
	assert.Equal(t, 0, e.Window().Len())
}

func TestEstimator_Fallback(t *testing.T) {
	start := time.Unix(1000, 0)
	var e Estimator
	e.Reset(start)

	// 25s * 2 pending * (1 - 0.2) = 40s
	in := Input{Items: 2, Pending: 2, Overall: 20}
	assert.Equal(t, "40 seconds", e.Estimate(start.Add(3*time.Second), in))

	e.Reset(start)
	// Floored at one second, which then formats as whole seconds.
	in = Input{Items: 1, Pending: 1, Overall: 99}
	assert.Equal(t, "1 second", e.Estimate(start.Add(3*time.Second), in))
}

func TestEstimator_RateSamples(t *testing.T) {
	start := time.Unix(1000, 0)
	var e Estimator
	e.Reset(start)

	in := Input{
		Items:   3,
		Pending: 3,
		Overall: 50,
		Samples: []Sample{
			{Progress: 50, Elapsed: 10 * time.Second},  // 200ms per percent
			{Progress: 50, Elapsed: 30 * time.Second},  // 600ms per percent
			{Progress: 4, Elapsed: 1 * time.Second},    // below threshold
			{Progress: 10, Elapsed: 200 * time.Second}, // 20s per percent, noise
		},
	}
	// mean 400ms * 50 remaining percent = 20s
	assert.Equal(t, "20 seconds", e.Estimate(start.Add(30*time.Second), in))
	assert.InDelta(t, 20000, e.Window().Smoothed(), 0.001)
}

func TestWindow_ClampAndAverage(t *testing.T) {
	var w Window
	assert.InDelta(t, 1000, w.Push(1000), 0.001)
	// 10000 is clamped to 1500, mean(1000, 1500)
	assert.InDelta(t, 1250, w.Push(10000), 0.001)
	assert.InDelta(t, 1500, w.Accepted(), 0.001)
}

func TestWindow_KeepsLastFive(t *testing.T) {
	var w Window
	for i := 0; i < 20; i++ {
		w.Push(1000)
	}
	assert.Equal(t, WindowSize, w.Len())
	assert.InDelta(t, 1000, w.Smoothed(), 0.001)

	w.Reset()
	assert.Equal(t, 0, w.Len())
	assert.Zero(t, w.Smoothed())
}

// Each accepted value stays within MaxChange of the previous smoothed value,
// however wild the raw input.
func TestWindow_ClampBoundProperty(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	var w Window
	w.Push(5000)
	for i := 0; i < 1000; i++ {
		prev := w.Smoothed()
		raw := r.ExpFloat64() * float64(r.Intn(1_000_000)+1)
		w.Push(raw)
		accepted := w.Accepted()
		assert.GreaterOrEqual(t, accepted, prev*(1-MaxChange)-1e-9)
		assert.LessOrEqual(t, accepted, prev*(1+MaxChange)+1e-9)
	}
}
