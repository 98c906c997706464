package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"stockpulse/internal/live"
	"stockpulse/internal/markethours"
	"stockpulse/internal/model"
	"stockpulse/internal/mux"
	"stockpulse/internal/quote"
	"stockpulse/internal/store/sqlite"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// QuoteSource serves quotes; it never fails.
type QuoteSource interface {
	Get(ctx context.Context, symbol string) model.Quote
}

// TrendingSource serves the trending list.
type TrendingSource interface {
	Top(ctx context.Context, limit int) []quote.TrendingItem
}

// Upstream exposes the feed connection to the status endpoints.
type Upstream interface {
	Status() mux.Status
	Reset()
}

// EventSource reads the connection-status journal.
type EventSource interface {
	Recent(limit int, kind string) ([]sqlite.Event, error)
}

// Deps are the collaborators behind the HTTP routes. Events and OnReset
// are optional.
type Deps struct {
	Hub      *Hub
	Live     Watcher
	Quotes   QuoteSource
	Trending TrendingSource
	Upstream Upstream
	Events   EventSource
	OnReset  func()
	Start    time.Time
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	SetCORS(w)
	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// intParam parses a positive integer query parameter clamped to max.
func intParam(r *http.Request, name string, def, max int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

// RegisterRoutes registers all HTTP routes on the provided mux.
func RegisterRoutes(m *http.ServeMux, d Deps) {
	if d.Start.IsZero() {
		d.Start = time.Now()
	}

	// WebSocket endpoint
	m.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		d.Hub.HandleWSRequest(conn)
	})

	// REST: single quote, synthetic when upstream is unavailable
	m.HandleFunc("/api/quote", func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
		if symbol == "" {
			writeError(w, http.StatusBadRequest, "symbol is required")
			return
		}
		writeJSON(w, http.StatusOK, d.Quotes.Get(r.Context(), symbol))
	})

	// REST: trending list
	m.HandleFunc("/api/trending", func(w http.ResponseWriter, r *http.Request) {
		limit := intParam(r, "limit", 10, 100)
		writeJSON(w, http.StatusOK, d.Trending.Top(r.Context(), limit))
	})

	// REST: indicator snapshot on demand
	m.HandleFunc("/api/metrics", func(w http.ResponseWriter, r *http.Request) {
		symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
		rng := r.URL.Query().Get("range")
		snap, err := d.Live.Metrics(r.Context(), symbol, rng)
		if errors.Is(err, live.ErrNoSymbol) {
			writeError(w, http.StatusBadRequest, "symbol is required")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, MetricsResponse{
			Symbol:      symbol,
			Range:       rng,
			GeneratedAt: time.Now().UTC(),
			Snapshot:    snap,
		})
	})

	// REST: upstream status plus recent journal entries
	m.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			Upstream:  d.Upstream.Status(),
			Market:    markethours.StatusAt(time.Now()),
			Events:    []sqlite.Event{},
			WSClients: d.Hub.ClientCount(),
			Latency:   d.Hub.Latency.Summary(),
			UptimeSec: int64(time.Since(d.Start).Seconds()),
		}
		if d.Events != nil {
			limit := intParam(r, "limit", 10, 200)
			events, err := d.Events.Recent(limit, r.URL.Query().Get("kind"))
			if err != nil {
				log.Printf("[gateway] status journal read failed: %v", err)
			} else if events != nil {
				resp.Events = events
			}
		}
		writeJSON(w, http.StatusOK, resp)
	})

	// REST: forced reconnect for the health supervisor
	m.HandleFunc("/api/status/reset", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodOptions:
			SetCORS(w)
			w.WriteHeader(http.StatusOK)
			return
		case http.MethodPost:
		default:
			writeError(w, http.StatusMethodNotAllowed, "POST required")
			return
		}
		d.Upstream.Reset()
		if d.OnReset != nil {
			d.OnReset()
		}
		log.Println("[gateway] upstream reset requested")
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "reset requested"})
	})
}
