package mux

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"stockpulse/internal/model"
)

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	ID     string
	Symbol string

	fn     Handler
	m      *Multiplexer
	closed atomic.Bool
	once   sync.Once
}

func newSubscription(m *Multiplexer, symbol string, fn Handler) *Subscription {
	return &Subscription{
		ID:     uuid.NewString(),
		Symbol: symbol,
		fn:     fn,
		m:      m,
	}
}

// Unsubscribe removes this handle. Safe to call more than once and from
// inside a handler.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.m.remove(s)
	})
}

// deliver invokes the handler unless the handle was removed mid-dispatch.
// A panicking handler is logged and does not stop the reader.
func (s *Subscription) deliver(tick model.Tick, log *slog.Logger) {
	if s.closed.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panic", slog.String("symbol", s.Symbol), slog.String("sub", s.ID), slog.Any("panic", r))
		}
	}()
	s.fn(tick)
}
