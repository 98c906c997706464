package model

import "encoding/json"

// UpdateType tags a metrics update on the wire.
const UpdateType = "metrics"

// MetricsUpdate pairs a live tick with the snapshot recomputed from it.
type MetricsUpdate struct {
	Type     string          `json:"type"`
	Symbol   string          `json:"symbol"`
	Tick     *Tick           `json:"tick,omitempty"`
	Snapshot MetricsSnapshot `json:"snapshot"`
}

// NewMetricsUpdate builds an update; tick may be nil for on-demand snapshots.
func NewMetricsUpdate(symbol string, tick *Tick, snap MetricsSnapshot) MetricsUpdate {
	return MetricsUpdate{Type: UpdateType, Symbol: symbol, Tick: tick, Snapshot: snap}
}

// JSON returns the JSON-encoded update (ignoring errors for hot-path usage).
func (u MetricsUpdate) JSON() []byte {
	b, _ := json.Marshal(u)
	return b
}
