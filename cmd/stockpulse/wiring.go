package main

import (
	"sync"
	"time"

	"stockpulse/internal/breaker"
	"stockpulse/internal/metrics"
	"stockpulse/internal/mux"
	sqlitestore "stockpulse/internal/store/sqlite"
)

// journal forwards events to the sqlite writer without blocking callers.
type journal struct {
	ch chan sqlitestore.Event
}

func newJournal(size int) *journal {
	return &journal{ch: make(chan sqlitestore.Event, size)}
}

func (j *journal) record(ev sqlitestore.Event) {
	if j == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case j.ch <- ev:
	default: // writer behind; drop
	}
}

// statusRecorder fans multiplexer status transitions out to metrics,
// health and the journal.
type statusRecorder struct {
	prom    *metrics.Metrics
	health  *metrics.HealthStatus
	journal *journal

	mu             sync.Mutex
	lastReconnects int
}

func (r *statusRecorder) observe(st mux.Status) {
	r.prom.UpstreamState.Set(float64(st.State))
	r.prom.SubscribedSymbol.Set(float64(st.Symbols))
	r.health.SetUpstream(st.State.String(), st.LastError, st.Reconnects, st.Symbols)

	r.mu.Lock()
	if d := st.Reconnects - r.lastReconnects; d > 0 {
		r.prom.Reconnects.Add(float64(d))
	}
	r.lastReconnects = st.Reconnects
	r.mu.Unlock()

	r.journal.record(sqlitestore.Event{
		Kind:       sqlitestore.KindState,
		State:      st.State.String(),
		Detail:     st.LastError,
		Reconnects: st.Reconnects,
	})
}

// observeBreaker exports breaker transitions. Must run before any other
// component chains onto cb.OnStateChange.
func observeBreaker(cb *breaker.Breaker, prom *metrics.Metrics, j *journal, extra func(to breaker.State)) {
	prom.BreakerState.WithLabelValues(cb.Name()).Set(float64(cb.State()))
	cb.OnStateChange = func(name string, from, to breaker.State) {
		prom.BreakerState.WithLabelValues(name).Set(float64(to))
		if to == breaker.StateOpen {
			prom.BreakerTrips.WithLabelValues(name).Inc()
		}
		j.record(sqlitestore.Event{
			Kind:   sqlitestore.KindBreaker,
			State:  to.String(),
			Detail: name + ": " + from.String() + " -> " + to.String(),
		})
		if extra != nil {
			extra(to)
		}
	}
}
