package gateway

import (
	"context"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"stockpulse/internal/live"
	"stockpulse/internal/model"
)

// Watcher is the live pipeline as seen by the gateway.
type Watcher interface {
	Watch(ctx context.Context, symbol string, fn live.UpdateFunc) (func(), error)
	Metrics(ctx context.Context, symbol, rng string) (model.MetricsSnapshot, error)
}

// Hub tracks connected WebSocket clients. Each client subscription becomes
// one live watch whose updates are queued to that client's writer.
type Hub struct {
	live Watcher

	mu      sync.RWMutex
	clients map[*Client]bool

	// Tick-to-client latency of delivered updates
	Latency *LatencyTracker

	// Metrics hooks (optional, set externally)
	OnClients func(n int)
	OnDropped func()
}

// NewHub creates a Hub serving updates from w.
func NewHub(w Watcher) *Hub {
	return &Hub{
		live:    w,
		clients: make(map[*Client]bool),
		Latency: NewLatencyTracker(10000), // 10k sample ring buffer
	}
}

// HandleWSRequest registers an upgraded connection and starts its pumps.
func (h *Hub) HandleWSRequest(conn *websocket.Conn) {
	client := newClient(h, conn)

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.clientsChanged(count)

	log.Printf("[gateway] ws client connected (%d total)", count)

	go client.writePump()
	go client.readPump()
}

// RemoveClient unregisters c and stops all of its watches.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	c.shutdown()
	if ok {
		h.clientsChanged(count)
	}
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll disconnects every client, e.g. on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.RemoveClient(c)
	}
}

func (h *Hub) clientsChanged(n int) {
	if h.OnClients != nil {
		h.OnClients(n)
	}
}

func (h *Hub) dropped() {
	if h.OnDropped != nil {
		h.OnDropped()
	}
}
