package gateway

import (
	"time"

	"stockpulse/internal/markethours"
	"stockpulse/internal/model"
	"stockpulse/internal/mux"
	"stockpulse/internal/store/sqlite"
)

// WS message types.
const (
	TypeSubscribe    = "subscribe"
	TypeUnsubscribe  = "unsubscribe"
	TypePing         = "ping"
	TypePong         = "pong"
	TypeSubscribed   = "subscribed"
	TypeUnsubscribed = "unsubscribed"
	TypeError        = "error"
)

// ClientMessage is any message a WS client sends.
type ClientMessage struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol,omitempty"`
	Ping   int64  `json:"ping,omitempty"`
}

// AckMessage confirms a subscribe or unsubscribe.
type AckMessage struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

// ErrorMessage reports a rejected client message.
type ErrorMessage struct {
	Type    string `json:"type"`
	Symbol  string `json:"symbol,omitempty"`
	Message string `json:"message"`
}

// PongMessage answers a client ping.
type PongMessage struct {
	Type     string `json:"type"`
	Ping     int64  `json:"ping"`
	ServerTS int64  `json:"server_ts"`
}

// MetricsResponse is the REST response type for /api/metrics.
type MetricsResponse struct {
	Symbol      string                `json:"symbol"`
	Range       string                `json:"range,omitempty"`
	GeneratedAt time.Time             `json:"generatedAt"`
	Snapshot    model.MetricsSnapshot `json:"snapshot"`
}

// StatusResponse is the REST response type for /api/status.
type StatusResponse struct {
	Upstream  mux.Status         `json:"upstream"`
	Market    markethours.Status `json:"market"`
	Events    []sqlite.Event     `json:"events"`
	WSClients int                `json:"ws_clients"`
	Latency   LatencySummary     `json:"latency"`
	UptimeSec int64              `json:"uptime_sec"`
}

type errorResponse struct {
	Error string `json:"error"`
}
