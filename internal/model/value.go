package model

import (
	"encoding/json"
	"math"
)

// Value is an indicator output that may be unavailable, typically because the
// input series is shorter than the indicator's window. Callers must check
// Ready before using V.
type Value struct {
	V     float64
	Ready bool
}

// Available wraps a computed value.
func Available(v float64) Value { return Value{V: v, Ready: true} }

// Unavailable is the sentinel for a value that could not be computed.
func Unavailable() Value { return Value{} }

// Of converts a (value, ok) pair into a Value. A non-finite v is unavailable.
func Of(v float64, ok bool) Value {
	if !ok || !Finite(v) {
		return Value{}
	}
	return Value{V: v, Ready: true}
}

// Finite reports whether every x is neither NaN nor ±Inf.
func Finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes an unavailable or non-finite value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Ready || !Finite(v.V) {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

// UnmarshalJSON decodes null as unavailable.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Value{V: f, Ready: true}
	return nil
}
