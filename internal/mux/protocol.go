package mux

import (
	"encoding/json"
	"errors"
	"fmt"

	"stockpulse/internal/model"
)

// Wire message types of the upstream streaming protocol.
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypeTrade       = "trade"
	TypePing        = "ping"
)

// ErrMalformed is returned for frames that cannot be decoded.
var ErrMalformed = errors.New("mux: malformed frame")

// ControlMessage is an outbound subscribe/unsubscribe request.
//
//	{"type":"subscribe","symbol":"AAPL"}
type ControlMessage struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

// TradeRecord is one trade print inside a trade frame.
type TradeRecord struct {
	Symbol    string  `json:"s"`
	Price     float64 `json:"p"`
	Volume    float64 `json:"v"`
	Timestamp int64   `json:"t"` // epoch milliseconds
}

// Tick converts the wire record into a model.Tick.
func (r TradeRecord) Tick() model.Tick {
	return model.Tick{
		Symbol:      r.Symbol,
		Price:       r.Price,
		Volume:      r.Volume,
		TimestampMs: r.Timestamp,
	}
}

// TradeMessage is a trade or ping frame as the upstream sends it.
//
//	{"type":"trade","data":[{"s":"AAPL","p":189.5,"v":100,"t":1700000000000}]}
type TradeMessage struct {
	Type string        `json:"type"`
	Data []TradeRecord `json:"data,omitempty"`
}

type inboundFrame struct {
	Type string            `json:"type"`
	Data []json.RawMessage `json:"data,omitempty"`
}

// DecodeFrame parses an inbound frame. Non-trade frames (ping and anything
// unknown) decode to no records and no error. Trade records are decoded one
// by one: a record that fails to decode or carries no symbol is skipped and
// counted in bad, and the rest of the batch is still returned.
func DecodeFrame(raw []byte) (records []TradeRecord, bad int, err error) {
	var msg inboundFrame
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if msg.Type != TypeTrade {
		return nil, 0, nil
	}
	records = make([]TradeRecord, 0, len(msg.Data))
	for _, item := range msg.Data {
		var rec TradeRecord
		if err := json.Unmarshal(item, &rec); err != nil || rec.Symbol == "" {
			bad++
			continue
		}
		records = append(records, rec)
	}
	return records, bad, nil
}
