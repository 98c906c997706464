package indicator

import (
	"math"
	"math/rand"
	"testing"
)

// ────────────────────────────────────────────────────────────
// Helper
// ────────────────────────────────────────────────────────────

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func randomWalk(n int, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	p := 100.0
	for i := range out {
		p += (r.Float64() - 0.5) * 4
		out[i] = p
	}
	return out
}

// ────────────────────────────────────────────────────────────
// EMA Correctness
// ────────────────────────────────────────────────────────────

func TestEMA_Correctness_Period3(t *testing.T) {
	// Prices: 1, 2, 3, 4, 5   k = 2/(3+1) = 0.5
	// Seed after 3: (1+2+3)/3 = 2
	// After 4: (4-2)*0.5 + 2 = 3
	// After 5: (5-3)*0.5 + 3 = 4
	got, ok := EMA([]float64{1, 2, 3, 4, 5}, 3)
	if !ok {
		t.Fatal("EMA(3) should be available with 5 values")
	}
	assertClose(t, "EMA(3)", got, 4.0, 1e-12)
}

func TestEMA_SeedIsMean(t *testing.T) {
	series := randomWalk(40, 1)
	for _, period := range []int{1, 5, 20, 40} {
		var sum float64
		for _, x := range series[:period] {
			sum += x
		}
		got, ok := EMA(series[:period], period)
		if !ok {
			t.Fatalf("EMA(%d) unavailable at exactly period values", period)
		}
		assertClose(t, "EMA seed", got, sum/float64(period), 1e-9)
	}
}

func TestEMA_Unavailable(t *testing.T) {
	if _, ok := EMA([]float64{1, 2}, 3); ok {
		t.Error("EMA(3) of 2 values should be unavailable")
	}
	if _, ok := EMA([]float64{1, 2, 3}, 0); ok {
		t.Error("EMA(0) should be unavailable")
	}
}

func TestStreamingEMA_Ready(t *testing.T) {
	e := NewStreamingEMA(3)
	ready := []bool{false, false, true, true}
	for i, x := range []float64{1, 2, 3, 4} {
		e.Update(x)
		if e.Ready() != ready[i] {
			t.Errorf("value %d: Ready()=%v, want %v", i, e.Ready(), ready[i])
		}
	}
	assertClose(t, "streaming EMA", e.Value(), 3.0, 1e-12)
}

// ────────────────────────────────────────────────────────────
// RSI Correctness
// ────────────────────────────────────────────────────────────

func TestRSI_SeedWindowAloneUnavailable(t *testing.T) {
	// Prices: 1, 2, 1   deltas +1, -1 fill the seed window only
	if _, ok := RSI([]float64{1, 2, 1}, 2); ok {
		t.Fatal("RSI(2) of period+1 values should be unavailable")
	}
}

func TestRSI_FirstValueAfterSeed(t *testing.T) {
	// Prices: 1, 2, 1, 1   seed deltas +1, -1 → avgGain 0.5, avgLoss 0.5
	// Next delta 0 → avgGain 0.25, avgLoss 0.25, RS = 1, RSI = 50
	got, ok := RSI([]float64{1, 2, 1, 1}, 2)
	if !ok {
		t.Fatal("RSI(2) should be available with period+2 values")
	}
	assertClose(t, "RSI first value", got, 50.0, 1e-9)
}

func TestRSI_WilderSmoothing(t *testing.T) {
	// Prices: 10, 12, 11, 14   period 2
	// Seed deltas +2, -1 → avgGain 1.0, avgLoss 0.5
	// Next delta +3 → avgGain (1.0*1+3)/2 = 2.0, avgLoss (0.5*1+0)/2 = 0.25
	// RS = 8, RSI = 100 - 100/9 = 88.888889
	got, ok := RSI([]float64{10, 12, 11, 14}, 2)
	if !ok {
		t.Fatal("RSI unavailable")
	}
	assertClose(t, "RSI smoothed", got, 100-100.0/9, 1e-9)
}

func TestRSI_Unavailable(t *testing.T) {
	if _, ok := RSI(ramp(15, 1, 1), 14); ok {
		t.Error("RSI(14) of 15 values should be unavailable")
	}
	if _, ok := RSI(ramp(16, 1, 1), 14); !ok {
		t.Error("RSI(14) of 16 values should be available")
	}
}

func TestRSI_Bounds(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		got, ok := RSI(randomWalk(100, seed), 14)
		if !ok {
			t.Fatalf("seed %d: RSI unavailable", seed)
		}
		if got < 0 || got > 100 {
			t.Errorf("seed %d: RSI=%f out of [0,100]", seed, got)
		}
	}
}

func TestRSI_MonotonicRiseApproaches100(t *testing.T) {
	got, _ := RSI(ramp(30, 100, 1), 14)
	if got < 99 {
		t.Errorf("RSI of rising series = %f, want ≈100", got)
	}
}

func TestRSI_FlatSeriesIsZero(t *testing.T) {
	// All deltas are zero so both averages are zero.
	got, ok := RSI(ramp(20, 50, 0), 14)
	if !ok {
		t.Fatal("RSI unavailable")
	}
	assertClose(t, "flat RSI", got, 0, 1e-12)
}

// ────────────────────────────────────────────────────────────
// MACD Correctness
// ────────────────────────────────────────────────────────────

// macdByPrefix recomputes every EMA from scratch at each prefix.
func macdByPrefix(series []float64, fast, slow, signal int) (line, sig float64) {
	var history []float64
	for i := slow - 1; i < len(series); i++ {
		f, _ := EMA(series[:i+1], fast)
		s, _ := EMA(series[:i+1], slow)
		history = append(history, f-s)
	}
	line = history[len(history)-1]
	sig, _ = EMA(history, signal)
	return line, sig
}

func TestMACD_MatchesPrefixRecompute(t *testing.T) {
	for _, n := range []int{35, 36, 60, 250} {
		series := randomWalk(n, int64(n))
		got, ok := MACD(series, 12, 26, 9)
		if !ok {
			t.Fatalf("n=%d: MACD unavailable", n)
		}
		line, sig := macdByPrefix(series, 12, 26, 9)
		assertClose(t, "MACD line", got.MACDLine, line, 1e-9)
		assertClose(t, "MACD signal", got.SignalLine, sig, 1e-9)
		assertClose(t, "MACD histogram", got.Histogram, line-sig, 1e-9)
	}
}

func TestMACD_Unavailable(t *testing.T) {
	if _, ok := MACD(randomWalk(34, 1), 12, 26, 9); ok {
		t.Error("MACD should need slow+signal values")
	}
	if _, ok := MACD(randomWalk(100, 1), 26, 12, 9); ok {
		t.Error("MACD with fast > slow should be unavailable")
	}
}

func TestMACD_FlatSeriesIsZero(t *testing.T) {
	got, ok := MACD(ramp(50, 10, 0), 12, 26, 9)
	if !ok {
		t.Fatal("MACD unavailable")
	}
	assertClose(t, "flat MACD line", got.MACDLine, 0, 1e-12)
	assertClose(t, "flat MACD histogram", got.Histogram, 0, 1e-12)
}

// ────────────────────────────────────────────────────────────
// Bollinger Bands Correctness
// ────────────────────────────────────────────────────────────

func TestBollinger_KnownValues(t *testing.T) {
	// Window 1..5: mean 3, population variance (4+1+0+1+4)/5 = 2
	got, ok := BollingerBands([]float64{9, 1, 2, 3, 4, 5}, 5, 2)
	if !ok {
		t.Fatal("bands unavailable")
	}
	sd := math.Sqrt(2)
	assertClose(t, "middle", got.Middle, 3, 1e-12)
	assertClose(t, "upper", got.Upper, 3+2*sd, 1e-12)
	assertClose(t, "lower", got.Lower, 3-2*sd, 1e-12)
}

func TestBollinger_FlatCollapses(t *testing.T) {
	got, ok := BollingerBands(ramp(25, 42, 0), 20, 2)
	if !ok {
		t.Fatal("bands unavailable")
	}
	if got.Upper != 42 || got.Middle != 42 || got.Lower != 42 {
		t.Errorf("flat bands = %+v, want all 42", got)
	}
}

func TestBollinger_Unavailable(t *testing.T) {
	if _, ok := BollingerBands(ramp(19, 1, 1), 20, 2); ok {
		t.Error("bands should need period values")
	}
}

// ────────────────────────────────────────────────────────────
// ATR Correctness
// ────────────────────────────────────────────────────────────

func TestATR_ConstantRange(t *testing.T) {
	n := 20
	highs, lows, closes := ramp(n, 11, 0), ramp(n, 9, 0), ramp(n, 10, 0)
	got, ok := ATR(highs, lows, closes, 14)
	if !ok {
		t.Fatal("ATR unavailable")
	}
	assertClose(t, "ATR", got, 2, 1e-12)
}

func TestATR_GapUsesPreviousClose(t *testing.T) {
	// Bar 2 gaps up: high 20, low 18, prev close 10 → TR = |20-10| = 10
	// Period 1 ATR is the latest TR.
	got, ok := ATR([]float64{11, 20}, []float64{9, 18}, []float64{10, 19}, 1)
	if !ok {
		t.Fatal("ATR unavailable")
	}
	assertClose(t, "ATR gap", got, 10, 1e-12)
}

func TestATR_Smoothing(t *testing.T) {
	// TRs: 2, 4, 6   period 2
	// Seed (2+4)/2 = 3, then (3*1 + 6)/2 = 4.5
	closes := []float64{10, 10, 10, 10}
	highs := []float64{11, 11, 12, 13}
	lows := []float64{9, 9, 8, 7}
	got, ok := ATR(highs, lows, closes, 2)
	if !ok {
		t.Fatal("ATR unavailable")
	}
	assertClose(t, "ATR smoothed", got, 4.5, 1e-12)
}

func TestATR_Unavailable(t *testing.T) {
	h, l, c := ramp(14, 11, 0), ramp(14, 9, 0), ramp(14, 10, 0)
	if _, ok := ATR(h, l, c, 14); ok {
		t.Error("ATR(14) should need 15 bars")
	}
	if _, ok := ATR(ramp(20, 11, 0), ramp(19, 9, 0), ramp(20, 10, 0), 14); ok {
		t.Error("ATR with mismatched lengths should be unavailable")
	}
}

// ────────────────────────────────────────────────────────────
// VWAP / Fibonacci
// ────────────────────────────────────────────────────────────

func TestVWAP(t *testing.T) {
	got, ok := VWAP([]float64{10, 20}, []float64{100, 100})
	if !ok {
		t.Fatal("VWAP unavailable")
	}
	assertClose(t, "VWAP", got, 15, 1e-12)

	got, _ = VWAP([]float64{10, 20}, []float64{300, 100})
	assertClose(t, "weighted VWAP", got, 12.5, 1e-12)
}

func TestVWAP_Unavailable(t *testing.T) {
	cases := []struct {
		name    string
		prices  []float64
		volumes []float64
	}{
		{"empty", nil, nil},
		{"mismatch", []float64{1, 2}, []float64{1}},
		{"zero volume", []float64{1, 2}, []float64{0, 0}},
	}
	for _, tc := range cases {
		if _, ok := VWAP(tc.prices, tc.volumes); ok {
			t.Errorf("%s: VWAP should be unavailable", tc.name)
		}
	}
}

func TestFibonacciLevels(t *testing.T) {
	got := FibonacciLevels(200, 100)
	assertClose(t, "0%", got.Level0, 200, 1e-12)
	assertClose(t, "23.6%", got.Level23_6, 176.4, 1e-9)
	assertClose(t, "38.2%", got.Level38_2, 161.8, 1e-9)
	assertClose(t, "50%", got.Level50, 150, 1e-12)
	assertClose(t, "61.8%", got.Level61_8, 138.2, 1e-9)
	assertClose(t, "78.6%", got.Level78_6, 121.4, 1e-9)
	assertClose(t, "100%", got.Level100, 100, 1e-12)
}

func TestPureFunctionsDoNotMutateInput(t *testing.T) {
	series := randomWalk(60, 7)
	orig := append([]float64(nil), series...)

	EMA(series, 20)
	RSI(series, 14)
	MACD(series, 12, 26, 9)
	BollingerBands(series, 20, 2)
	Snapshot(Input{Prices: series})

	for i := range series {
		if series[i] != orig[i] {
			t.Fatalf("input mutated at %d", i)
		}
	}
}
