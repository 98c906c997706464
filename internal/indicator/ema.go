package indicator

// StreamingEMA calculates an Exponential Moving Average seeded by the simple
// mean of the first period values. O(1) per update.
type StreamingEMA struct {
	period     int
	multiplier float64
	current    float64
	count      int
	sum        float64
}

// NewStreamingEMA creates a new EMA with the given period.
func NewStreamingEMA(period int) *StreamingEMA {
	return &StreamingEMA{
		period:     period,
		multiplier: 2.0 / float64(period+1),
	}
}

func (e *StreamingEMA) Update(x float64) {
	e.count++

	if e.count <= e.period {
		// Accumulate for initial SMA seed
		e.sum += x
		if e.count == e.period {
			e.current = e.sum / float64(e.period)
		}
		return
	}

	e.current = (x-e.current)*e.multiplier + e.current
}

func (e *StreamingEMA) Value() float64 { return e.current }
func (e *StreamingEMA) Ready() bool    { return e.period > 0 && e.count >= e.period }

// EMA returns the exponential moving average of series at its last element.
// ok is false when len(series) < period.
func EMA(series []float64, period int) (float64, bool) {
	if period <= 0 || len(series) < period {
		return 0, false
	}
	e := NewStreamingEMA(period)
	feed(e, series)
	return e.Value(), e.Ready()
}
