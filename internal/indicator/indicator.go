// Package indicator computes technical indicators over float64 price series.
//
// The exported functions (EMA, RSI, MACD, BollingerBands, ATR, VWAP,
// FibonacciLevels, Snapshot) are pure: they never mutate their inputs and are
// safe to call concurrently on independent series. Insufficient input is
// reported through an ok=false return (or model.Unavailable), never a panic.
//
// The streaming types (StreamingEMA, StreamingRSI, SMMA) hold O(1) state and
// back the batch functions.
package indicator

// Stream is a single-input indicator fed one value at a time.
type Stream interface {
	// Update feeds the next value of the series.
	Update(x float64)

	// Value returns the current value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true once enough values have been accumulated.
	Ready() bool
}

// feed pushes every element of xs into s, oldest first.
func feed(s Stream, xs []float64) {
	for _, x := range xs {
		s.Update(x)
	}
}
