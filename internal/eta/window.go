package eta

// WindowSize is the number of recent estimates averaged into the output.
const WindowSize = 5

// MaxChange bounds how far a new raw estimate may move away from the
// previous smoothed estimate, as a fraction of that estimate.
const MaxChange = 0.5

// Window is the smoothing state of one batch: a fixed ring of the last
// WindowSize accepted estimates plus the previous smoothed output, which is
// the baseline for clamping the next raw estimate. Values are milliseconds.
type Window struct {
	buf      [WindowSize]float64
	n        int
	next     int
	smoothed float64
	accepted float64
}

// Push clamps raw against the previous smoothed value, stores it and
// returns the new smoothed value (the mean of the ring).
func (w *Window) Push(raw float64) float64 {
	if w.n > 0 && w.smoothed > 0 {
		lo := w.smoothed * (1 - MaxChange)
		hi := w.smoothed * (1 + MaxChange)
		if raw < lo {
			raw = lo
		} else if raw > hi {
			raw = hi
		}
	}
	w.accepted = raw

	w.buf[w.next] = raw
	w.next = (w.next + 1) % WindowSize
	if w.n < WindowSize {
		w.n++
	}

	var sum float64
	for i := 0; i < w.n; i++ {
		sum += w.buf[i]
	}
	w.smoothed = sum / float64(w.n)
	return w.smoothed
}

// Smoothed returns the last smoothed value, 0 before the first Push.
func (w *Window) Smoothed() float64 { return w.smoothed }

// Accepted returns the last value stored after clamping.
func (w *Window) Accepted() float64 { return w.accepted }

// Len returns how many values the ring currently holds.
func (w *Window) Len() int { return w.n }

// Reset empties the ring.
func (w *Window) Reset() { *w = Window{} }
