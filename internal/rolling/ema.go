package rolling

// EMA is an exponential moving average seeded from the first observed sample.
type EMA struct {
	alpha  float64
	value  float64
	primed bool
}

// NewEMA creates an EMA with smoothing factor alpha in (0, 1].
func NewEMA(alpha float64) *EMA {
	return &EMA{alpha: alpha}
}

// NewEMASpan creates an EMA with alpha = 2/(span+1).
func NewEMASpan(span int) *EMA {
	return NewEMA(2 / float64(span+1))
}

// Push folds a sample into the average and returns the updated value.
func (e *EMA) Push(x float64) float64 {
	if !e.primed {
		e.value = x
		e.primed = true
		return e.value
	}
	e.value = e.alpha*x + (1-e.alpha)*e.value
	return e.value
}

// Value returns the current average, 0 before the first sample.
func (e *EMA) Value() float64 { return e.value }

// Primed reports whether at least one sample has been observed.
func (e *EMA) Primed() bool { return e.primed }

// Restore reinstates a previously exported value.
func (e *EMA) Restore(value float64, primed bool) {
	e.value = value
	e.primed = primed
}
