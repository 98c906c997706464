package gateway

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stockpulse/internal/model"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 256
)

// Client represents a single WebSocket peer.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	hub  *Hub
	once sync.Once

	// symbol -> stop func of its live watch
	subMu sync.Mutex
	subs  map[string]func()
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
		hub:  h,
		subs: make(map[string]func()),
	}
}

// enqueue queues msg without blocking; a full buffer drops it.
func (c *Client) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return false
	default:
		c.hub.dropped()
		return false
	}
}

func (c *Client) pushUpdate(u model.MetricsUpdate) {
	if c.enqueue(u.JSON()) && u.Tick != nil && u.Tick.TimestampMs > 0 {
		c.hub.Latency.Record(time.Since(u.Tick.Time()))
	}
}

// shutdown stops every watch and releases the writer. Safe to call twice.
func (c *Client) shutdown() {
	c.once.Do(func() {
		close(c.done)

		c.subMu.Lock()
		stops := make([]func(), 0, len(c.subs))
		for sym, stop := range c.subs {
			stops = append(stops, stop)
			delete(c.subs, sym)
		}
		c.subMu.Unlock()

		for _, stop := range stops {
			stop()
		}
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		c.conn.Close()
		log.Println("[gateway] ws client disconnected")
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendJSON(ErrorMessage{Type: TypeError, Message: "invalid message: " + err.Error()})
			continue
		}

		switch strings.ToLower(msg.Type) {
		case TypeSubscribe:
			c.handleSubscribe(msg.Symbol)
		case TypeUnsubscribe:
			c.handleUnsubscribe(msg.Symbol)
		case TypePing:
			c.sendJSON(PongMessage{Type: TypePong, Ping: msg.Ping, ServerTS: time.Now().UnixMilli()})
		default:
			c.sendJSON(ErrorMessage{Type: TypeError, Message: "unknown message type: " + msg.Type})
		}
	}
}

// handleSubscribe acknowledges, sends the current snapshot, then starts the
// live watch. Repeated subscribes for one symbol are acknowledged only.
func (c *Client) handleSubscribe(symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		c.sendJSON(ErrorMessage{Type: TypeError, Message: "symbol is required"})
		return
	}

	c.subMu.Lock()
	_, exists := c.subs[symbol]
	c.subMu.Unlock()
	if exists {
		c.sendJSON(AckMessage{Type: TypeSubscribed, Symbol: symbol})
		return
	}

	ctx := context.Background()
	snap, err := c.hub.live.Metrics(ctx, symbol, "")
	if err != nil {
		c.sendJSON(ErrorMessage{Type: TypeError, Symbol: symbol, Message: err.Error()})
		return
	}
	c.sendJSON(AckMessage{Type: TypeSubscribed, Symbol: symbol})
	c.pushUpdate(model.NewMetricsUpdate(symbol, nil, snap))

	stop, err := c.hub.live.Watch(ctx, symbol, c.pushUpdate)
	if err != nil {
		c.sendJSON(ErrorMessage{Type: TypeError, Symbol: symbol, Message: err.Error()})
		return
	}

	c.subMu.Lock()
	select {
	case <-c.done:
		// Disconnected while subscribing.
		c.subMu.Unlock()
		stop()
		return
	default:
	}
	c.subs[symbol] = stop
	c.subMu.Unlock()

	log.Printf("[gateway] client subscribed: symbol=%s", symbol)
}

func (c *Client) handleUnsubscribe(symbol string) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	c.subMu.Lock()
	stop, ok := c.subs[symbol]
	delete(c.subs, symbol)
	c.subMu.Unlock()

	if ok {
		stop()
		log.Printf("[gateway] client unsubscribed: symbol=%s", symbol)
	}
	c.sendJSON(AckMessage{Type: TypeUnsubscribed, Symbol: symbol})
}

func (c *Client) sendJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.enqueue(b)
}
