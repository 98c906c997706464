// Package series owns the in-memory daily price history of each watched
// symbol and folds live ticks into it.
package series

import (
	"sort"
	"sync"

	"stockpulse/internal/model"
)

// Store holds one PriceSeries per symbol. All methods are safe for concurrent
// use; readers always receive a copy.
type Store struct {
	mu     sync.Mutex
	series map[string]*model.Series

	// Metrics hooks (optional, set externally)
	OnDroppedTick func(symbol string)
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{series: make(map[string]*model.Series)}
}

// Initialize replaces the series for symbol wholesale. Bars are sorted by
// date; the caller's slice is not retained.
func (s *Store) Initialize(symbol string, bars []model.Bar) {
	cp := make([]model.Bar, len(bars))
	copy(cp, bars)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Date < cp[j].Date })

	s.mu.Lock()
	s.series[symbol] = &model.Series{Symbol: symbol, Bars: cp}
	s.mu.Unlock()
}

// ApplyTick folds a live tick into the latest bar. A tick dated the same day
// as the last bar overwrites its close and volume; any other tick overwrites
// the close only. No bar is ever appended.
//
// Returns the updated series, or false when symbol has no history yet.
func (s *Store) ApplyTick(symbol string, tick model.Tick) (model.Series, bool) {
	s.mu.Lock()
	ser, ok := s.series[symbol]
	if !ok || len(ser.Bars) == 0 {
		dropped := s.OnDroppedTick
		s.mu.Unlock()
		if dropped != nil {
			dropped(symbol)
		}
		return model.Series{}, false
	}

	last := &ser.Bars[len(ser.Bars)-1]
	last.Close = tick.Price
	if last.Date == model.DateOf(tick.Time()) {
		last.Volume = tick.Volume
	}
	out := ser.Clone()
	s.mu.Unlock()
	return out, true
}

// Get returns a copy of the series for symbol.
func (s *Store) Get(symbol string) (model.Series, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ser, ok := s.series[symbol]
	if !ok {
		return model.Series{}, false
	}
	return ser.Clone(), true
}

// Has reports whether symbol has been initialized.
func (s *Store) Has(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.series[symbol]
	return ok
}

// Symbols returns the initialized symbols in sorted order.
func (s *Store) Symbols() []string {
	s.mu.Lock()
	out := make([]string, 0, len(s.series))
	for sym := range s.series {
		out = append(out, sym)
	}
	s.mu.Unlock()
	sort.Strings(out)
	return out
}
