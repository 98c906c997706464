package live

import (
	"stockpulse/internal/model"
	"stockpulse/internal/mux"
)

// Feed delivers live ticks for a symbol until cancel is called.
type Feed interface {
	Watch(symbol string, fn func(model.Tick)) (cancel func())
}

// MuxFeed adapts a Multiplexer to Feed.
func MuxFeed(m *mux.Multiplexer) Feed { return muxFeed{m: m} }

type muxFeed struct{ m *mux.Multiplexer }

func (f muxFeed) Watch(symbol string, fn func(model.Tick)) func() {
	sub := f.m.Subscribe(symbol, fn)
	return sub.Unsubscribe
}
