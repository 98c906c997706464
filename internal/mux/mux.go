// Package mux maintains a single upstream streaming connection and fans trade
// ticks out to any number of per-symbol subscribers.
//
// The multiplexer reconnects automatically and replays every registered
// symbol on each (re)connect. Ticks are dispatched on the connection's reader
// goroutine, so every handler observes ticks in upstream order.
package mux

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stockpulse/internal/model"
)

// ErrStarted is returned by Start on a multiplexer that is already running.
var ErrStarted = errors.New("mux: already started")

// errReset marks a connection torn down by Reset.
var errReset = errors.New("mux: reset requested")

// Handler receives ticks for one symbol.
type Handler func(model.Tick)

// Config holds configuration for the upstream connection.
type Config struct {
	// URL of the streaming endpoint, e.g. "wss://ws.finnhub.io".
	URL string

	// Token is appended as the "token" query parameter when non-empty.
	Token string

	// ReconnectDelay is the delay before each reconnection attempt.
	// Defaults to 5 seconds if zero.
	ReconnectDelay time.Duration

	// MaxReconnectDelay enables exponential backoff capped at this value.
	// Zero keeps the delay fixed.
	MaxReconnectDelay time.Duration

	// MaxAttempts stops reconnecting after this many consecutive failures
	// until Reset is called. Zero retries forever.
	MaxAttempts int

	// WriteTimeout bounds each outbound frame. Defaults to 10 seconds.
	WriteTimeout time.Duration

	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
}

func (c *Config) defaults() {
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = 5 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.Dialer == nil {
		c.Dialer = websocket.DefaultDialer
	}
}

// Multiplexer owns the upstream connection and the subscription registry.
type Multiplexer struct {
	cfg     Config
	dialURL string
	log     *slog.Logger

	mu          sync.Mutex
	subs        map[string][]*Subscription
	last        map[string]model.Tick
	conn        *websocket.Conn
	state       State
	lastErr     error
	reconnects  int
	attempts    int
	connectedAt time.Time

	writeMu sync.Mutex

	resetCh   chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}

	// Optional hooks, set before Start.
	OnStatus    func(Status)
	OnTick      func(model.Tick)
	OnMalformed func()
}

// New creates a Multiplexer. Returns an error if the URL is unparseable.
func New(cfg Config, log *slog.Logger) (*Multiplexer, error) {
	cfg.defaults()
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("mux: parse url: %w", err)
	}
	if cfg.Token != "" {
		q := u.Query()
		q.Set("token", cfg.Token)
		u.RawQuery = q.Encode()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Multiplexer{
		cfg:     cfg,
		dialURL: u.String(),
		log:     log.With(slog.String("component", "mux")),
		subs:    make(map[string][]*Subscription),
		last:    make(map[string]model.Tick),
		resetCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}, nil
}

// Start launches the connection loop in the background. It returns
// immediately; the loop runs until ctx is cancelled or Close is called.
func (m *Multiplexer) Start(ctx context.Context) error {
	err := ErrStarted
	m.startOnce.Do(func() {
		ctx, m.cancel = context.WithCancel(ctx)
		go m.run(ctx)
		err = nil
	})
	return err
}

// Close stops the connection loop and waits for it to exit. Registered
// subscriptions are kept.
func (m *Multiplexer) Close() error {
	m.closeOnce.Do(func() {
		m.startOnce.Do(func() { close(m.done) })
		if m.cancel != nil {
			m.cancel()
		}
		<-m.done
	})
	return nil
}

// Reset drops the current connection, if any, and reconnects immediately.
// It also revives a loop that gave up after MaxAttempts.
func (m *Multiplexer) Reset() {
	select {
	case m.resetCh <- struct{}{}:
	default:
	}

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn != nil {
		m.log.Info("reset requested, dropping connection")
		conn.Close()
	}
}

// Status returns the current connection status.
func (m *Multiplexer) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

func (m *Multiplexer) statusLocked() Status {
	st := Status{
		State:       m.state,
		Reconnects:  m.reconnects,
		Attempts:    m.attempts,
		ConnectedAt: m.connectedAt,
		Symbols:     len(m.subs),
	}
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}
	return st
}

// Subscribe registers fn for ticks on symbol and returns its handle. The
// handler is registered even while disconnected; an upstream subscribe is
// sent when the symbol gains its first handler and on every reconnect.
func (m *Multiplexer) Subscribe(symbol string, fn Handler) *Subscription {
	sub := newSubscription(m, symbol, fn)

	m.mu.Lock()
	first := len(m.subs[symbol]) == 0
	m.subs[symbol] = append(m.subs[symbol], sub)
	conn := m.conn
	m.mu.Unlock()

	// Later handlers share the upstream subscription of the first one.
	if first && conn != nil {
		if err := m.send(conn, ControlMessage{Type: TypeSubscribe, Symbol: symbol}); err != nil {
			m.log.Warn("subscribe send failed", slog.String("symbol", symbol), slog.Any("error", err))
		}
	}
	return sub
}

// remove deletes exactly sub. Removing the last handle of a symbol sends an
// upstream unsubscribe and drops its last-tick cache.
func (m *Multiplexer) remove(sub *Subscription) {
	m.mu.Lock()
	list := m.subs[sub.Symbol]
	for i, s := range list {
		if s == sub {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(list) > 0 {
		m.subs[sub.Symbol] = list
		m.mu.Unlock()
		return
	}

	delete(m.subs, sub.Symbol)
	delete(m.last, sub.Symbol)
	conn := m.conn
	m.mu.Unlock()

	if conn != nil {
		if err := m.send(conn, ControlMessage{Type: TypeUnsubscribe, Symbol: sub.Symbol}); err != nil {
			m.log.Warn("unsubscribe send failed", slog.String("symbol", sub.Symbol), slog.Any("error", err))
		}
	}
}

// LastTick returns the most recent tick for a subscribed symbol.
func (m *Multiplexer) LastTick(symbol string) (model.Tick, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.last[symbol]
	return t, ok
}

// Symbols returns the symbols that currently have at least one handler.
func (m *Multiplexer) Symbols() []string {
	m.mu.Lock()
	out := make([]string, 0, len(m.subs))
	for sym := range m.subs {
		out = append(out, sym)
	}
	m.mu.Unlock()
	sort.Strings(out)
	return out
}

// send writes one control frame. writeMu serializes it with other writers;
// Subscribe and remove call it without holding m.mu.
func (m *Multiplexer) send(conn *websocket.Conn, msg ControlMessage) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout))
	return conn.WriteJSON(msg)
}

// run is the reconnect loop. Blocks until ctx is cancelled.
func (m *Multiplexer) run(ctx context.Context) {
	defer close(m.done)
	defer m.setDisconnected(nil)

	delay := m.cfg.ReconnectDelay
	for {
		if ctx.Err() != nil {
			return
		}

		connected, err := m.runOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			delay = m.cfg.ReconnectDelay
		}

		attempts := m.setDisconnected(err)
		m.log.Warn("disconnected, reconnecting",
			slog.Any("error", err),
			slog.Duration("delay", delay),
			slog.Int("attempt", attempts))

		if m.cfg.MaxAttempts > 0 && attempts >= m.cfg.MaxAttempts {
			m.log.Error("giving up until reset", slog.Int("attempts", attempts))
			select {
			case <-ctx.Done():
				return
			case <-m.resetCh:
				m.mu.Lock()
				m.attempts = 0
				m.mu.Unlock()
				continue
			}
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-m.resetCh:
			timer.Stop()
		case <-timer.C:
		}

		if m.cfg.MaxReconnectDelay > 0 {
			delay *= 2
			if delay > m.cfg.MaxReconnectDelay {
				delay = m.cfg.MaxReconnectDelay
			}
		}
	}
}

// runOnce makes a single connection attempt and reads until disconnect or
// ctx cancel. connected reports whether the dial succeeded.
func (m *Multiplexer) runOnce(ctx context.Context) (connected bool, err error) {
	m.setState(Connecting)

	conn, _, err := m.cfg.Dialer.DialContext(ctx, m.dialURL, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// Drain a reset that raced with the dial; this connection is fresh.
	select {
	case <-m.resetCh:
	default:
	}

	m.mu.Lock()
	m.conn = conn
	m.state = Connected
	m.attempts = 0
	m.connectedAt = time.Now().UTC()
	var replayErr error
	symbols := make([]string, 0, len(m.subs))
	for sym := range m.subs {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		if replayErr = m.send(conn, ControlMessage{Type: TypeSubscribe, Symbol: sym}); replayErr != nil {
			break
		}
	}
	st := m.statusLocked()
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.conn = nil
		m.mu.Unlock()
	}()

	m.log.Info("connected", slog.String("url", m.cfg.URL), slog.Int("symbols", len(symbols)))
	m.emit(st)

	if replayErr != nil {
		return true, fmt.Errorf("resubscribe: %w", replayErr)
	}

	// Async context watcher: closes the connection when ctx is cancelled.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown"),
				time.Now().Add(time.Second))
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true, nil
			}
			select {
			case <-m.resetCh:
				// Leave the signal for run so the reconnect is immediate.
				select {
				case m.resetCh <- struct{}{}:
				default:
				}
				return true, errReset
			default:
			}
			return true, err
		}
		m.dispatchFrame(raw)
	}
}

// dispatchFrame decodes one inbound frame and delivers each trade record to
// the handlers of its symbol, in registration order.
func (m *Multiplexer) dispatchFrame(raw []byte) {
	records, bad, err := DecodeFrame(raw)
	switch {
	case err != nil:
		m.log.Debug("dropping frame", slog.Any("error", err), slog.Int("bytes", len(raw)))
		bad = 1
	case bad > 0:
		m.log.Debug("dropping trade records", slog.Int("count", bad))
	}
	for i := 0; i < bad && m.OnMalformed != nil; i++ {
		m.OnMalformed()
	}

	for _, rec := range records {
		tick := rec.Tick()

		m.mu.Lock()
		list := m.subs[tick.Symbol]
		if len(list) == 0 {
			m.mu.Unlock()
			continue
		}
		m.last[tick.Symbol] = tick
		handlers := make([]*Subscription, len(list))
		copy(handlers, list)
		m.mu.Unlock()

		if m.OnTick != nil {
			m.OnTick(tick)
		}
		for _, sub := range handlers {
			sub.deliver(tick, m.log)
		}
	}
}

func (m *Multiplexer) setState(s State) {
	m.mu.Lock()
	m.state = s
	st := m.statusLocked()
	m.mu.Unlock()
	m.emit(st)
}

// setDisconnected records a lost connection or failed dial and returns the
// number of consecutive failed attempts.
func (m *Multiplexer) setDisconnected(err error) int {
	m.mu.Lock()
	prev := m.state
	m.state = Disconnected
	if err != nil {
		m.lastErr = err
		m.attempts++
		m.reconnects++
	}
	attempts := m.attempts
	st := m.statusLocked()
	m.mu.Unlock()

	if prev != Disconnected {
		m.emit(st)
	}
	return attempts
}

func (m *Multiplexer) emit(st Status) {
	if m.OnStatus != nil {
		m.OnStatus(st)
	}
}
