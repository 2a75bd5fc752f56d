package rolling

import "math"

// Stats maintains mean, population standard deviation and z-score over a
// bounded window of float64 samples using running sums, so each update is O(1).
type Stats struct {
	win        *Window[float64]
	sum        float64
	sumSquares float64
}

// NewStats creates a Stats over a window of the given capacity.
func NewStats(capacity int) *Stats {
	return &Stats{win: NewWindow[float64](capacity)}
}

// Push adds a sample, evicting the oldest when the window is full.
func (s *Stats) Push(x float64) {
	if s.win.Full() {
		old, _ := s.win.Oldest()
		s.sum -= old
		s.sumSquares -= old * old
	}
	s.win.Push(x)
	s.sum += x
	s.sumSquares += x * x
}

// Len returns the number of held samples.
func (s *Stats) Len() int { return s.win.Len() }

// Full reports whether the window is at capacity.
func (s *Stats) Full() bool { return s.win.Full() }

// Values returns the held samples oldest first.
func (s *Stats) Values() []float64 { return s.win.Values() }

// Mean returns the window mean, 0 with no samples.
func (s *Stats) Mean() float64 {
	n := s.win.Len()
	if n == 0 {
		return 0
	}
	return s.sum / float64(n)
}

// Stdev returns the population standard deviation of the window. It returns 0
// with fewer than two samples.
func (s *Stats) Stdev() float64 {
	n := s.win.Len()
	if n < 2 {
		return 0
	}
	mean := s.sum / float64(n)
	variance := s.sumSquares/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// ZScore returns how many standard deviations x lies from the window mean.
// When the stdev is 0 the z-score is 0, never a division error.
func (s *Stats) ZScore(x float64) float64 {
	sd := s.Stdev()
	if sd == 0 {
		return 0
	}
	return (x - s.Mean()) / sd
}

// Momentum returns the difference between the newest and oldest held sample,
// 0 with fewer than two samples. The sign indicates trend direction.
func (s *Stats) Momentum() float64 {
	if s.win.Len() < 2 {
		return 0
	}
	newest, _ := s.win.Newest()
	oldest, _ := s.win.Oldest()
	return newest - oldest
}
