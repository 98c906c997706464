// Package live joins the multiplexer, the series store and the indicator
// engine: every tick for a watched symbol is folded into its series, a fresh
// snapshot is computed once, published, and handed to each watcher.
package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"stockpulse/internal/indicator"
	"stockpulse/internal/logger"
	"stockpulse/internal/model"
	"stockpulse/internal/series"
)

// DefaultRange is the history range loaded for a symbol on first watch.
const DefaultRange = "1y"

// ErrNoSymbol is returned for an empty symbol.
var ErrNoSymbol = errors.New("live: empty symbol")

// Publisher receives every computed update (e.g. the redis publisher).
type Publisher interface {
	Publish(ctx context.Context, u model.MetricsUpdate) error
}

// UpdateFunc consumes updates; it runs on the feed's dispatch goroutine.
type UpdateFunc func(model.MetricsUpdate)

// Service runs one pipeline per watched symbol.
type Service struct {
	feed  Feed
	store *series.Store
	pub   Publisher
	log   *slog.Logger
	now   func() time.Time

	mu      sync.Mutex
	symbols map[string]*pipeline
	nextID  uint64

	// Metrics hooks (optional, set externally)
	OnSnapshot func(symbol string, d time.Duration)
	OnLatency  func(d time.Duration)
}

type pipeline struct {
	cancel   func()
	watchers []watcher
}

type watcher struct {
	id uint64
	fn UpdateFunc
}

// New creates a Service. pub may be nil.
func New(feed Feed, store *series.Store, pub Publisher, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		feed:    feed,
		store:   store,
		pub:     pub,
		log:     log.With("component", "live"),
		now:     time.Now,
		symbols: make(map[string]*pipeline),
	}
}

// Watch starts streaming updates for symbol to fn. History is synthesized on
// first use. Watchers of one symbol share a single feed subscription and
// receive updates in registration order. The returned func stops fn and is
// safe to call more than once.
func (s *Service) Watch(ctx context.Context, symbol string, fn UpdateFunc) (func(), error) {
	symbol = normalize(symbol)
	if symbol == "" {
		return nil, ErrNoSymbol
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.ensureHistory(symbol)

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	p, ok := s.symbols[symbol]
	if !ok {
		p = &pipeline{}
		s.symbols[symbol] = p
	}
	p.watchers = append(p.watchers, watcher{id: id, fn: fn})
	s.mu.Unlock()

	// Subscribing outside mu: the feed may deliver synchronously.
	if !ok {
		cancel := s.feed.Watch(symbol, func(t model.Tick) { s.onTick(symbol, t) })
		s.mu.Lock()
		if cur, live := s.symbols[symbol]; live && cur == p {
			p.cancel = cancel
			cancel = nil
		}
		s.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	}

	var once sync.Once
	return func() { once.Do(func() { s.unwatch(symbol, id) }) }, nil
}

func (s *Service) unwatch(symbol string, id uint64) {
	s.mu.Lock()
	p, ok := s.symbols[symbol]
	if !ok {
		s.mu.Unlock()
		return
	}
	for i, w := range p.watchers {
		if w.id == id {
			p.watchers = append(p.watchers[:i:i], p.watchers[i+1:]...)
			break
		}
	}
	var cancel func()
	if len(p.watchers) == 0 {
		delete(s.symbols, symbol)
		cancel = p.cancel
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Watched returns the symbols with at least one watcher.
func (s *Service) Watched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.symbols))
	for sym := range s.symbols {
		out = append(out, sym)
	}
	return out
}

// Metrics computes a snapshot on demand. An empty rng uses the live series
// (loading DefaultRange history if needed); any other range is computed over
// fresh synthetic history of that length.
func (s *Service) Metrics(ctx context.Context, symbol, rng string) (model.MetricsSnapshot, error) {
	symbol = normalize(symbol)
	if symbol == "" {
		return model.MetricsSnapshot{}, ErrNoSymbol
	}
	if err := ctx.Err(); err != nil {
		return model.MetricsSnapshot{}, err
	}

	var ser model.Series
	if rng == "" {
		s.ensureHistory(symbol)
		cur, ok := s.store.Get(symbol)
		if !ok {
			return model.MetricsSnapshot{}, fmt.Errorf("live: no series for %s", symbol)
		}
		ser = cur
	} else {
		ser = model.Series{Symbol: symbol, Bars: series.SyntheticBars(symbol, rng, s.now())}
	}
	return indicator.Snapshot(indicator.InputOf(ser)), nil
}

func (s *Service) ensureHistory(symbol string) {
	if s.store.Has(symbol) {
		return
	}
	bars := series.SyntheticBars(symbol, DefaultRange, s.now())
	s.store.Initialize(symbol, bars)
	s.log.Info("history loaded", "symbol", symbol, "bars", len(bars))
}

func (s *Service) onTick(symbol string, tick model.Tick) {
	start := time.Now()
	ser, ok := s.store.ApplyTick(symbol, tick)
	if !ok {
		return
	}
	snap := indicator.Snapshot(indicator.InputOf(ser))
	if s.OnSnapshot != nil {
		s.OnSnapshot(symbol, time.Since(start))
	}

	u := model.NewMetricsUpdate(symbol, &tick, snap)

	if s.pub != nil {
		ctx := logger.WithTraceID(context.Background(), logger.GenerateTraceID(symbol, tick.Time()))
		if err := s.pub.Publish(ctx, u); err != nil {
			s.log.Warn("publish failed", append(logger.LogWithTrace(ctx), "symbol", symbol, "error", err)...)
		}
	}

	s.mu.Lock()
	var fns []UpdateFunc
	if p, ok := s.symbols[symbol]; ok {
		fns = make([]UpdateFunc, 0, len(p.watchers))
		for _, w := range p.watchers {
			if w.fn != nil {
				fns = append(fns, w.fn)
			}
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(u)
	}

	if s.OnLatency != nil && tick.TimestampMs > 0 {
		s.OnLatency(s.now().Sub(tick.Time()))
	}
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
