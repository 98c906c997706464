package indicator

import "stockpulse/internal/model"

// MACD returns the MACD line, signal line and histogram at the last element of
// series. The signal line is the EMA(signal) of the MACD values from index
// slow-1 onward; both EMAs are carried forward incrementally so the result
// equals recomputing each prefix from scratch at O(n) cost.
// ok is false when len(series) < slow+signal or fast > slow.
func MACD(series []float64, fast, slow, signal int) (model.MACD, bool) {
	if fast <= 0 || slow <= 0 || signal <= 0 || fast > slow {
		return model.MACD{}, false
	}
	if len(series) < slow+signal {
		return model.MACD{}, false
	}

	fastEMA := NewStreamingEMA(fast)
	slowEMA := NewStreamingEMA(slow)
	signalEMA := NewStreamingEMA(signal)

	var line float64
	for i, x := range series {
		fastEMA.Update(x)
		slowEMA.Update(x)
		if i < slow-1 {
			continue
		}
		line = fastEMA.Value() - slowEMA.Value()
		signalEMA.Update(line)
	}
	if !signalEMA.Ready() {
		return model.MACD{}, false
	}

	sig := signalEMA.Value()
	return model.MACD{
		MACDLine:   line,
		SignalLine: sig,
		Histogram:  line - sig,
	}, true
}
