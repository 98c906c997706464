package mux

import (
	"time"
)

// State is the connection state of the multiplexer.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	default:
		return "DISCONNECTED"
	}
}

// MarshalText lets State encode as its name in JSON.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText is the inverse of MarshalText; unknown names decode to
// Disconnected.
func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "CONNECTING":
		*s = Connecting
	case "CONNECTED":
		*s = Connected
	default:
		*s = Disconnected
	}
	return nil
}

// Status is a point-in-time view of the upstream connection, suitable for a
// health supervisor.
type Status struct {
	State       State     `json:"state"`
	LastError   string    `json:"lastError,omitempty"`
	Reconnects  int       `json:"reconnects"`
	Attempts    int       `json:"attempts"`
	ConnectedAt time.Time `json:"connectedAt,omitempty"`
	Symbols     int       `json:"symbols"`
}
