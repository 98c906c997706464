package model

import (
	"encoding/json"
	"time"
)

// Tick is a single trade print from the upstream feed, already merged into
// the multiplexer's last-tick cache for its symbol.
type Tick struct {
	Symbol      string  `json:"symbol"`
	Price       float64 `json:"price"`
	Volume      float64 `json:"volume"`
	TimestampMs int64   `json:"timestamp"` // epoch milliseconds
}

// Time returns the tick timestamp as a UTC time.
func (t Tick) Time() time.Time {
	return time.UnixMilli(t.TimestampMs).UTC()
}

// JSON returns the JSON-encoded tick (ignoring errors for hot-path usage).
func (t Tick) JSON() []byte {
	b, _ := json.Marshal(t)
	return b
}
