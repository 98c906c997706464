package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockpulse/internal/live"
	"stockpulse/internal/model"
	"stockpulse/internal/mux"
	"stockpulse/internal/quote"
	"stockpulse/internal/store/sqlite"
)

// ------------------------------------------------------------------
// fakes
// ------------------------------------------------------------------

type fakeWatcher struct {
	mu      sync.Mutex
	fns     map[string]live.UpdateFunc
	stopped map[string]int
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{fns: make(map[string]live.UpdateFunc), stopped: make(map[string]int)}
}

func (f *fakeWatcher) Watch(_ context.Context, symbol string, fn live.UpdateFunc) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fns[symbol] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.fns, symbol)
		f.stopped[symbol]++
	}, nil
}

func (f *fakeWatcher) Metrics(_ context.Context, symbol, rng string) (model.MetricsSnapshot, error) {
	if symbol == "" {
		return model.MetricsSnapshot{}, live.ErrNoSymbol
	}
	if symbol == "BOOM" {
		return model.MetricsSnapshot{}, errors.New("boom")
	}
	return model.MetricsSnapshot{CurrentPrice: model.Available(100), RSI: model.Available(55)}, nil
}

func (f *fakeWatcher) push(u model.MetricsUpdate) bool {
	f.mu.Lock()
	fn := f.fns[u.Symbol]
	f.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(u)
	return true
}

func (f *fakeWatcher) watching(symbol string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fns[symbol] != nil
}

type fakeQuotes struct{}

func (fakeQuotes) Get(_ context.Context, symbol string) model.Quote {
	return model.Quote{Symbol: symbol, Price: 123.45, Synthetic: true}
}

type fakeTrending struct{ limit int }

func (f *fakeTrending) Top(_ context.Context, limit int) []quote.TrendingItem {
	f.limit = limit
	return []quote.TrendingItem{{Symbol: "AAPL", Name: "Apple Inc.", Price: 190}}
}

type fakeUpstream struct {
	mu     sync.Mutex
	resets int
}

func (f *fakeUpstream) Status() mux.Status {
	return mux.Status{State: mux.Connected, Reconnects: 2, Symbols: 1}
}

func (f *fakeUpstream) Reset() {
	f.mu.Lock()
	f.resets++
	f.mu.Unlock()
}

type fakeEvents struct{}

func (fakeEvents) Recent(limit int, kind string) ([]sqlite.Event, error) {
	return []sqlite.Event{{Kind: sqlite.KindState, State: "CONNECTED"}}, nil
}

type testEnv struct {
	srv      *httptest.Server
	watcher  *fakeWatcher
	trending *fakeTrending
	upstream *fakeUpstream
	hub      *Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		watcher:  newFakeWatcher(),
		trending: &fakeTrending{},
		upstream: &fakeUpstream{},
	}
	env.hub = NewHub(env.watcher)

	m := http.NewServeMux()
	RegisterRoutes(m, Deps{
		Hub:      env.hub,
		Live:     env.watcher,
		Quotes:   fakeQuotes{},
		Trending: env.trending,
		Upstream: env.upstream,
		Events:   fakeEvents{},
	})
	env.srv = httptest.NewServer(m)
	t.Cleanup(func() {
		env.hub.CloseAll()
		env.srv.Close()
	})
	return env
}

func (e *testEnv) getJSON(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := http.Get(e.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *testEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

// ------------------------------------------------------------------
// REST
// ------------------------------------------------------------------

func TestQuoteEndpoint(t *testing.T) {
	env := newTestEnv(t)

	var q model.Quote
	assert.Equal(t, http.StatusOK, env.getJSON(t, "/api/quote?symbol=aapl", &q))
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, 123.45, q.Price)

	var e errorResponse
	assert.Equal(t, http.StatusBadRequest, env.getJSON(t, "/api/quote", &e))
	assert.NotEmpty(t, e.Error)
}

func TestTrendingEndpoint_ClampsLimit(t *testing.T) {
	env := newTestEnv(t)

	var items []quote.TrendingItem
	assert.Equal(t, http.StatusOK, env.getJSON(t, "/api/trending?limit=5000", &items))
	assert.Len(t, items, 1)
	assert.Equal(t, 100, env.trending.limit)

	env.getJSON(t, "/api/trending?limit=abc", &items)
	assert.Equal(t, 10, env.trending.limit)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	var resp MetricsResponse
	assert.Equal(t, http.StatusOK, env.getJSON(t, "/api/metrics?symbol=msft&range=3m", &resp))
	assert.Equal(t, "MSFT", resp.Symbol)
	assert.Equal(t, "3m", resp.Range)
	assert.Equal(t, 55.0, resp.Snapshot.RSI.V)

	assert.Equal(t, http.StatusBadRequest, env.getJSON(t, "/api/metrics", nil))
	assert.Equal(t, http.StatusInternalServerError, env.getJSON(t, "/api/metrics?symbol=boom", nil))
}

func TestStatusAndReset(t *testing.T) {
	env := newTestEnv(t)

	var st StatusResponse
	assert.Equal(t, http.StatusOK, env.getJSON(t, "/api/status", &st))
	assert.Equal(t, mux.Connected, st.Upstream.State)
	assert.Equal(t, 2, st.Upstream.Reconnects)
	assert.NotEmpty(t, st.Market.Message)
	require.Len(t, st.Events, 1)
	assert.Equal(t, "CONNECTED", st.Events[0].State)

	// GET is rejected.
	assert.Equal(t, http.StatusMethodNotAllowed, env.getJSON(t, "/api/status/reset", nil))

	resp, err := http.Post(env.srv.URL+"/api/status/reset", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	env.upstream.mu.Lock()
	assert.Equal(t, 1, env.upstream.resets)
	env.upstream.mu.Unlock()
}

// ------------------------------------------------------------------
// WebSocket
// ------------------------------------------------------------------

func TestWS_SubscribeStreamsUpdates(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: TypeSubscribe, Symbol: "aapl"}))

	ack := readMsg(t, conn)
	assert.Equal(t, TypeSubscribed, ack["type"])
	assert.Equal(t, "AAPL", ack["symbol"])

	initial := readMsg(t, conn)
	assert.Equal(t, model.UpdateType, initial["type"])
	assert.Nil(t, initial["tick"], "initial snapshot carries no tick")

	require.Eventually(t, func() bool { return env.watcher.watching("AAPL") }, 2*time.Second, 10*time.Millisecond)

	tick := model.Tick{Symbol: "AAPL", Price: 101, TimestampMs: time.Now().UnixMilli()}
	require.True(t, env.watcher.push(model.NewMetricsUpdate("AAPL", &tick, model.MetricsSnapshot{})))

	upd := readMsg(t, conn)
	assert.Equal(t, model.UpdateType, upd["type"])
	require.NotNil(t, upd["tick"])
	assert.Equal(t, 101.0, upd["tick"].(map[string]any)["price"])
	assert.Equal(t, 1, env.hub.Latency.Count())

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: TypeUnsubscribe, Symbol: "AAPL"}))
	unack := readMsg(t, conn)
	assert.Equal(t, TypeUnsubscribed, unack["type"])
	assert.False(t, env.watcher.watching("AAPL"))
}

func TestWS_ErrorsAndPing(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, TypeError, readMsg(t, conn)["type"])

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: TypeSubscribe}))
	assert.Equal(t, TypeError, readMsg(t, conn)["type"])

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "bogus"}))
	assert.Equal(t, TypeError, readMsg(t, conn)["type"])

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: TypePing, Ping: 77}))
	pong := readMsg(t, conn)
	assert.Equal(t, TypePong, pong["type"])
	assert.Equal(t, 77.0, pong["ping"])
}

func TestWS_DisconnectStopsWatches(t *testing.T) {
	env := newTestEnv(t)
	conn := env.dial(t)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: TypeSubscribe, Symbol: "TSLA"}))
	readMsg(t, conn) // ack
	readMsg(t, conn) // initial snapshot
	require.Eventually(t, func() bool { return env.watcher.watching("TSLA") }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, 1, env.hub.ClientCount())

	conn.Close()

	require.Eventually(t, func() bool {
		return !env.watcher.watching("TSLA") && env.hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
