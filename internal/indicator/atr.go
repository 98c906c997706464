package indicator

import "math"

// ATR returns the Average True Range at the last bar. The first value is the
// mean of the first period true ranges; later ones use Wilder smoothing.
// ok is false with fewer than period+1 bars or mismatched inputs.
func ATR(highs, lows, closes []float64, period int) (float64, bool) {
	n := len(closes)
	if period <= 0 || len(highs) != n || len(lows) != n || n < period+1 {
		return 0, false
	}

	s := NewSMMA(period)
	for i := 1; i < n; i++ {
		s.Update(trueRange(highs[i], lows[i], closes[i-1]))
	}
	return s.Value(), s.Ready()
}

func trueRange(high, low, prevClose float64) float64 {
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
}
