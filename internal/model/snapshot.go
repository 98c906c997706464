package model

// MACD holds the three MACD outputs at the latest point of a series.
type MACD struct {
	MACDLine   float64 `json:"macdLine"`
	SignalLine float64 `json:"signalLine"`
	Histogram  float64 `json:"histogram"`
}

// Bands holds Bollinger Band outputs.
type Bands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// FibLevels are retracement levels between a high (Level0) and a low (Level100).
type FibLevels struct {
	Level0    float64 `json:"level0"`
	Level23_6 float64 `json:"level23_6"`
	Level38_2 float64 `json:"level38_2"`
	Level50   float64 `json:"level50"`
	Level61_8 float64 `json:"level61_8"`
	Level78_6 float64 `json:"level78_6"`
	Level100  float64 `json:"level100"`
}

// MetricsSnapshot is the full indicator battery for one series at one point
// in time. It is recomputed on every tick and never mutated afterwards.
// Nil composite fields and non-ready Values mean "unavailable".
type MetricsSnapshot struct {
	CurrentPrice    Value      `json:"currentPrice"`
	High52Week      Value      `json:"high52Week"`
	Low52Week       Value      `json:"low52Week"`
	RSI             Value      `json:"rsi"`
	MACD            *MACD      `json:"macd"`
	EMA20           Value      `json:"ema20"`
	EMA50           Value      `json:"ema50"`
	EMA200          Value      `json:"ema200"`
	BollingerBands  *Bands     `json:"bollingerBands"`
	ATR             Value      `json:"atr"`
	VWAP            Value      `json:"vwap"`
	FibonacciLevels *FibLevels `json:"fibonacciLevels"`
}

// Ready reports whether the snapshot was computed from a long enough series.
func (m MetricsSnapshot) Ready() bool { return m.CurrentPrice.Ready }
