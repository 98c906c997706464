package model

// Quote is a point-in-time quote for one symbol. Synthetic is set when the
// values were derived locally because the upstream could not be reached.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	PreviousClose float64 `json:"previousClose"`
	Timestamp     int64   `json:"timestamp"` // epoch milliseconds
	Synthetic     bool    `json:"synthetic,omitempty"`
}
