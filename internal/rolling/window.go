// Package rolling provides bounded-memory online estimators: FIFO sample
// windows, mean/stdev/z-score, liquidity-weighted VWAP fair value, EMA and
// momentum. Every estimator keeps at most its configured window of samples and
// returns defined fallbacks while warming up.
package rolling

// Window is a bounded FIFO of the most recent samples. Pushing onto a full
// window evicts the oldest sample. The zero value is unusable; use NewWindow.
type Window[T any] struct {
	buf []T
	cap int
}

// NewWindow creates a Window holding at most capacity samples.
func NewWindow[T any](capacity int) *Window[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Window[T]{buf: make([]T, 0, capacity), cap: capacity}
}

// Push appends a sample, evicting the oldest when full.
func (w *Window[T]) Push(v T) {
	if len(w.buf) == w.cap {
		copy(w.buf, w.buf[1:])
		w.buf[len(w.buf)-1] = v
		return
	}
	w.buf = append(w.buf, v)
}

// Len returns the number of held samples.
func (w *Window[T]) Len() int { return len(w.buf) }

// Cap returns the window capacity.
func (w *Window[T]) Cap() int { return w.cap }

// Full reports whether the window holds its full capacity of samples.
func (w *Window[T]) Full() bool { return len(w.buf) == w.cap }

// Values returns the held samples oldest first. The slice is a copy.
func (w *Window[T]) Values() []T {
	out := make([]T, len(w.buf))
	copy(out, w.buf)
	return out
}

// Oldest returns the least recent sample.
func (w *Window[T]) Oldest() (T, bool) {
	if len(w.buf) == 0 {
		var zero T
		return zero, false
	}
	return w.buf[0], true
}

// Newest returns the most recent sample.
func (w *Window[T]) Newest() (T, bool) {
	if len(w.buf) == 0 {
		var zero T
		return zero, false
	}
	return w.buf[len(w.buf)-1], true
}

// Tail returns up to n most recent samples, oldest first.
func (w *Window[T]) Tail(n int) []T {
	if n <= 0 {
		return nil
	}
	if n > len(w.buf) {
		n = len(w.buf)
	}
	out := make([]T, n)
	copy(out, w.buf[len(w.buf)-n:])
	return out
}
