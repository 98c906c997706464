package indicator

import "stockpulse/internal/model"

// Standard parameters for the metrics battery.
const (
	MinSnapshotBars = 30
	YearBars        = 252

	RSIPeriod       = 14
	MACDFast        = 12
	MACDSlow        = 26
	MACDSignal      = 9
	BollingerPeriod = 20
	BollingerMult   = 2.0
	ATRPeriod       = 14

	defaultVolume   = 1_000_000
	defaultBandFrac = 0.01
)

// Input holds the parallel columns of a price series, oldest first. Highs,
// Lows and Volumes are optional; when nil they are synthesized from Prices.
type Input struct {
	Prices  []float64
	Highs   []float64
	Lows    []float64
	Volumes []float64
}

// InputOf extracts all four columns from a series.
func InputOf(s model.Series) Input {
	return Input{
		Prices:  s.Closes(),
		Highs:   s.Highs(),
		Lows:    s.Lows(),
		Volumes: s.Volumes(),
	}
}

// Snapshot computes the full metrics battery at the last element of in.
// With fewer than MinSnapshotBars prices every field is unavailable.
func Snapshot(in Input) model.MetricsSnapshot {
	prices := in.Prices
	if len(prices) < MinSnapshotBars {
		return model.MetricsSnapshot{}
	}

	volumes := in.Volumes
	if volumes == nil {
		volumes = fill(len(prices), defaultVolume)
	}
	highs := in.Highs
	if highs == nil {
		highs = scale(prices, 1+defaultBandFrac)
	}
	lows := in.Lows
	if lows == nil {
		lows = scale(prices, 1-defaultBandFrac)
	}

	year := prices
	if len(year) > YearBars {
		year = year[len(year)-YearBars:]
	}
	high, low := year[0], year[0]
	for _, p := range year[1:] {
		if p > high {
			high = p
		}
		if p < low {
			low = p
		}
	}

	snap := model.MetricsSnapshot{
		CurrentPrice: model.Available(prices[len(prices)-1]),
		High52Week:   model.Available(high),
		Low52Week:    model.Available(low),
		RSI:          model.Of(RSI(prices, RSIPeriod)),
		EMA20:        model.Of(EMA(prices, 20)),
		EMA50:        model.Of(EMA(prices, 50)),
		EMA200:       model.Of(EMA(prices, 200)),
		ATR:          model.Of(ATR(highs, lows, prices, ATRPeriod)),
		VWAP:         model.Of(VWAP(prices, volumes)),
	}
	if m, ok := MACD(prices, MACDFast, MACDSlow, MACDSignal); ok && model.Finite(m.MACDLine, m.SignalLine, m.Histogram) {
		snap.MACD = &m
	}
	if b, ok := BollingerBands(prices, BollingerPeriod, BollingerMult); ok && model.Finite(b.Upper, b.Middle, b.Lower) {
		snap.BollingerBands = &b
	}
	fib := FibonacciLevels(high, low)
	if model.Finite(fib.Level0, fib.Level23_6, fib.Level38_2, fib.Level50, fib.Level61_8, fib.Level78_6, fib.Level100) {
		snap.FibonacciLevels = &fib
	}
	return snap
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func scale(xs []float64, f float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x * f
	}
	return out
}
