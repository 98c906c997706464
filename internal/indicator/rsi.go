package indicator

import "math"

// rsiLossFloor keeps RS finite when there were no losses in the window.
const rsiLossFloor = 0.001

// StreamingRSI calculates the Relative Strength Index using Wilder's smoothing.
// The seed window averages the first period deltas; the first value is
// produced by the first smoothed delta after it. A flat series yields 0
// because both averages are zero.
type StreamingRSI struct {
	period    int
	count     int
	prevClose float64
	avgGain   float64
	avgLoss   float64
	current   float64
}

// NewStreamingRSI creates a new RSI with the given period (typically 14).
func NewStreamingRSI(period int) *StreamingRSI {
	return &StreamingRSI{period: period}
}

func (r *StreamingRSI) Update(x float64) {
	r.count++

	if r.count == 1 {
		// First value: record it, no delta yet
		r.prevClose = x
		return
	}

	delta := x - r.prevClose
	r.prevClose = x

	if r.count <= r.period+1 {
		// Seed window: an unchanged price counts toward gains
		if delta >= 0 {
			r.avgGain += delta
		} else {
			r.avgLoss -= delta
		}
		if r.count == r.period+1 {
			r.avgGain /= float64(r.period)
			r.avgLoss /= float64(r.period)
		}
		return
	}

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else if delta < 0 {
		loss = -delta
	}

	p := float64(r.period)
	r.avgGain = (r.avgGain*(p-1) + gain) / p
	r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	r.current = rsiFrom(r.avgGain, r.avgLoss)
}

func (r *StreamingRSI) Value() float64 { return r.current }
func (r *StreamingRSI) Ready() bool    { return r.period > 0 && r.count > r.period+1 }

func rsiFrom(avgGain, avgLoss float64) float64 {
	rs := avgGain / math.Max(avgLoss, rsiLossFloor)
	return 100.0 - (100.0 / (1.0 + rs))
}

// RSI returns the relative strength index at the last element of series.
// ok is false when len(series) < period+2: the seed window alone yields no
// value.
func RSI(series []float64, period int) (float64, bool) {
	if period <= 0 || len(series) < period+2 {
		return 0, false
	}
	r := NewStreamingRSI(period)
	feed(r, series)
	return r.Value(), r.Ready()
}
