// Package eta derives aggregate progress and a smoothed time-remaining
// estimate for a batch of transfers.
package eta

import (
	"fmt"
	"math"
	"time"
)

// Sentinel estimates.
const (
	Calculating = "Calculating..."
	AlmostDone  = "Almost done"
	Complete    = "Complete"
)

const (
	// MinProgress is the progress an item needs before its rate is trusted.
	MinProgress = 5
	// MaxTimePerPercent discards rate samples slower than this per percent.
	MaxTimePerPercent = 10 * time.Second
	// WarmUp is how long the estimate stays Calculating without samples.
	WarmUp = 2 * time.Second
	// FallbackPerItem is the coarse per-item remaining time used once the
	// warm-up passed without any usable sample.
	FallbackPerItem = 25 * time.Second
	// MinFallback floors the coarse estimate.
	MinFallback = time.Second
)

// OverallProgress is the rounded mean of per-item progress, 0 for no items.
func OverallProgress(progress []int) int {
	if len(progress) == 0 {
		return 0
	}
	total := 0
	for _, p := range progress {
		total += p
	}
	return int(math.Round(float64(total) / float64(len(progress))))
}

// Sample is the observed state of one pending item.
type Sample struct {
	Progress int
	Elapsed  time.Duration
}

// Input is everything Estimate needs from the live batch.
type Input struct {
	Items   int
	Pending int
	Overall int
	// Samples holds one entry per pending item that has a start time.
	Samples []Sample
}

// Estimator turns batch state into a human readable remaining time.
// It is not safe for concurrent use; the owner serializes calls.
type Estimator struct {
	start  time.Time
	window Window
}

// Reset starts a new batch: the smoothing history is dropped and the warm-up
// period is measured from start.
func (e *Estimator) Reset(start time.Time) {
	e.start = start
	e.window.Reset()
}

// Window exposes the smoothing state, mainly for inspection in tests.
func (e *Estimator) Window() *Window { return &e.window }

// Estimate recomputes the estimate. Only calls with pending items feed the
// smoothing window.
func (e *Estimator) Estimate(now time.Time, in Input) string {
	if in.Items == 0 {
		return Calculating
	}
	if in.Pending == 0 {
		return Complete
	}

	raw, ok := rawEstimate(in)
	if !ok {
		if e.start.IsZero() || now.Sub(e.start) < WarmUp {
			return Calculating
		}
		raw = float64(FallbackPerItem.Milliseconds()) * float64(in.Pending) * (1 - float64(in.Overall)/100)
		raw = math.Max(raw, float64(MinFallback.Milliseconds()))
	}

	smoothed := e.window.Push(raw)
	return Format(time.Duration(smoothed * float64(time.Millisecond)))
}

func rawEstimate(in Input) (float64, bool) {
	var sum float64
	var n int
	limit := float64(MaxTimePerPercent.Milliseconds())
	for _, s := range in.Samples {
		if s.Progress < MinProgress {
			continue
		}
		perPercent := float64(s.Elapsed.Milliseconds()) / float64(s.Progress)
		if perPercent >= limit {
			continue
		}
		sum += perPercent
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n) * float64(100-in.Overall), true
}

// Format renders a remaining duration: seconds below a minute, whole minutes
// (rounded up) below an hour, hours and minutes above.
func Format(d time.Duration) string {
	ms := float64(d.Milliseconds())
	switch {
	case ms < 1000:
		return AlmostDone
	case ms < 60000:
		return plural(int(math.Round(ms/1000)), "second")
	case ms < 3600000:
		return plural(int(math.Ceil(ms/60000)), "minute")
	default:
		hours := int(ms / 3600000)
		minutes := int(math.Mod(ms, 3600000) / 60000)
		if minutes == 0 {
			return plural(hours, "hour")
		}
		return plural(hours, "hour") + " " + plural(minutes, "minute")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
