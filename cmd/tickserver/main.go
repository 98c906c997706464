// Command tickserver is a local upstream feed simulator.
// Speaks the streaming protocol the multiplexer expects, so stockpulse can
// run without a real market-data subscription:
//
//	client → {"type":"subscribe","symbol":"AAPL"}
//	server → {"type":"trade","data":[{"s":"AAPL","p":386.12,"v":40,"t":1700000000000}]}
//	server → {"type":"ping"}
//
// Config (env vars):
//
//	TICK_SERVER_ADDR  listen address  (default: ":9001")
//	TICK_INTERVAL_MS  trade interval milliseconds (default: "250")
//	TICK_TOKEN        required ?token= value; empty accepts any client
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stockpulse/internal/mux"
	"stockpulse/internal/series"
)

// ─── Hub ──────────────────────────────────────────────────────────────────────

type client struct {
	send chan []byte

	mu      sync.Mutex
	symbols map[string]bool
}

func (c *client) wants(symbol string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.symbols[symbol]
}

type hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*client

	// symbol -> simulated price
	priceMu sync.Mutex
	prices  map[string]float64
}

func newHub() *hub {
	return &hub{
		clients: make(map[*websocket.Conn]*client),
		prices:  make(map[string]float64),
	}
}

func (h *hub) register(conn *websocket.Conn) *client {
	c := &client{send: make(chan []byte, 256), symbols: make(map[string]bool)}
	h.mu.Lock()
	h.clients[conn] = c
	h.mu.Unlock()
	return c
}

func (h *hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if c, ok := h.clients[conn]; ok {
		close(c.send)
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

// subscribed returns the union of every client's symbols.
func (h *hub) subscribed() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, c := range h.clients {
		c.mu.Lock()
		for s := range c.symbols {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
		c.mu.Unlock()
	}
	return out
}

func (h *hub) broadcast(msg []byte, symbol string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if symbol != "" && !c.wants(symbol) {
			continue
		}
		select {
		case c.send <- msg:
		default: // slow client, drop frame
		}
	}
}

// ─── WebSocket handler ────────────────────────────────────────────────────────

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

func wsHandler(h *hub, token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token != "" && r.URL.Query().Get("token") != token {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[tickserver] upgrade error: %v", err)
			return
		}
		log.Printf("[tickserver] client connected: %s", r.RemoteAddr)

		c := h.register(conn)
		go readControl(conn, c)

		defer func() {
			h.unregister(conn)
			conn.Close()
			log.Printf("[tickserver] client disconnected: %s", r.RemoteAddr)
		}()

		// Write pump: sends frames to this client.
		for msg := range c.send {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// readControl applies subscribe/unsubscribe messages until the socket fails.
func readControl(conn *websocket.Conn, c *client) {
	defer conn.Close()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg mux.ControlMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Symbol == "" {
			continue
		}
		c.mu.Lock()
		switch msg.Type {
		case mux.TypeSubscribe:
			c.symbols[msg.Symbol] = true
		case mux.TypeUnsubscribe:
			delete(c.symbols, msg.Symbol)
		}
		c.mu.Unlock()
		log.Printf("[tickserver] %s %s", msg.Type, msg.Symbol)
	}
}

// ─── Tick generator ──────────────────────────────────────────────────────────

// walkPrice applies a tiny random walk (±0.1%) to simulate price movement.
func walkPrice(rng *rand.Rand, price float64) float64 {
	pct := (rng.Float64()*0.2 - 0.1) / 100.0
	next := price * (1 + pct)
	if next < 0.01 {
		next = 0.01
	}
	return float64(int64(next*100+0.5)) / 100
}

func (h *hub) nextPrice(rng *rand.Rand, symbol string) float64 {
	h.priceMu.Lock()
	defer h.priceMu.Unlock()
	p, ok := h.prices[symbol]
	if !ok {
		p = series.BasePrice(symbol)
	}
	p = walkPrice(rng, p)
	h.prices[symbol] = p
	return p
}

func runGenerator(h *hub, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	pings := time.NewTicker(15 * time.Second)
	defer pings.Stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ping, _ := json.Marshal(mux.TradeMessage{Type: mux.TypePing})

	for {
		select {
		case <-pings.C:
			h.broadcast(ping, "")
		case <-ticker.C:
			now := time.Now().UnixMilli()
			for _, symbol := range h.subscribed() {
				frame := mux.TradeMessage{
					Type: mux.TypeTrade,
					Data: []mux.TradeRecord{{
						Symbol:    symbol,
						Price:     h.nextPrice(rng, symbol),
						Volume:    float64(rng.Intn(100) + 1),
						Timestamp: now,
					}},
				}
				b, err := json.Marshal(frame)
				if err != nil {
					continue
				}
				h.broadcast(b, symbol)
			}
		}
	}
}

// ─── main ─────────────────────────────────────────────────────────────────────

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[tickserver] starting simulated feed...")

	addr := envOrDefault("TICK_SERVER_ADDR", ":9001")
	intervalMs := envIntOrDefault("TICK_INTERVAL_MS", 250)
	token := os.Getenv("TICK_TOKEN")

	h := newHub()
	go runGenerator(h, time.Duration(intervalMs)*time.Millisecond)

	http.HandleFunc("/", wsHandler(h, token))
	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, `{"status":"ok","service":"tickserver"}`)
	})

	log.Printf("[tickserver] listening on %s (FEED_URL=ws://localhost%s)", addr, addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("[tickserver] server error: %v", err)
	}
}

// ─── helpers ──────────────────────────────────────────────────────────────────

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
