package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"stockpulse/internal/breaker"
	"stockpulse/internal/model"
)

const defaultLatestTTL = 30 * time.Minute

// Publisher writes each metrics update to "metrics:latest:{symbol}" and
// publishes it on "pub:metrics:{symbol}".
//
// While the breaker is open, updates are held back, coalesced to the newest
// per symbol, and flushed when the breaker closes again.
type Publisher struct {
	cmd commands
	cb  *breaker.Breaker
	ctx context.Context

	mu      sync.Mutex
	pending map[string]model.MetricsUpdate

	// Callbacks
	OnBuffer func()          // called when an update is held back (for metrics)
	OnFlush  func(count int) // called after flushing held-back updates
}

// NewPublisher creates a Publisher. ctx bounds flushes triggered by the
// breaker closing.
func NewPublisher(ctx context.Context, cmd commands, cb *breaker.Breaker) *Publisher {
	if cb == nil {
		cb = breaker.New("redis_publish", 5, 10*time.Second)
	}
	p := &Publisher{
		cmd:     cmd,
		cb:      cb,
		ctx:     ctx,
		pending: make(map[string]model.MetricsUpdate),
	}

	prev := cb.OnStateChange
	cb.OnStateChange = func(name string, from, to breaker.State) {
		if prev != nil {
			prev(name, from, to)
		}
		if to == breaker.StateClosed {
			go p.flush()
		}
	}
	return p
}

// Publish writes u through the breaker, holding it back if the breaker is open.
func (p *Publisher) Publish(ctx context.Context, u model.MetricsUpdate) error {
	err := p.cb.Execute(func() error { return p.write(ctx, u) })
	if errors.Is(err, breaker.ErrOpen) {
		p.hold(u)
		return nil
	}
	return err
}

// Latest reads the last published update for symbol.
func (p *Publisher) Latest(ctx context.Context, symbol string) (model.MetricsUpdate, bool, error) {
	raw, err := p.cmd.Get(ctx, latestKey(symbol)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return model.MetricsUpdate{}, false, nil
	}
	if err != nil {
		return model.MetricsUpdate{}, false, fmt.Errorf("redis GET %s: %w", latestKey(symbol), err)
	}
	var u model.MetricsUpdate
	if err := json.Unmarshal(raw, &u); err != nil {
		return model.MetricsUpdate{}, false, fmt.Errorf("decode update %s: %w", symbol, err)
	}
	return u, true, nil
}

// PendingCount returns the number of symbols with a held-back update.
func (p *Publisher) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Publisher) write(ctx context.Context, u model.MetricsUpdate) error {
	data := u.JSON()
	if err := p.cmd.Set(ctx, latestKey(u.Symbol), data, defaultLatestTTL).Err(); err != nil {
		return fmt.Errorf("redis SET %s: %w", latestKey(u.Symbol), err)
	}
	if err := p.cmd.Publish(ctx, channelFor(u.Symbol), data).Err(); err != nil {
		return fmt.Errorf("redis PUBLISH %s: %w", channelFor(u.Symbol), err)
	}
	return nil
}

func (p *Publisher) hold(u model.MetricsUpdate) {
	p.mu.Lock()
	p.pending[u.Symbol] = u
	p.mu.Unlock()

	if p.OnBuffer != nil {
		p.OnBuffer()
	}
}

// flush replays held-back updates.
func (p *Publisher) flush() {
	p.mu.Lock()
	if len(p.pending) == 0 {
		p.mu.Unlock()
		return
	}
	toFlush := p.pending
	p.pending = make(map[string]model.MetricsUpdate)
	p.mu.Unlock()

	flushed := 0
	for _, u := range toFlush {
		if err := p.write(p.ctx, u); err != nil {
			log.Printf("[redis-publisher] flush %s: %v", u.Symbol, err)
			continue
		}
		flushed++
	}

	log.Printf("[redis-publisher] flushed %d held-back updates", flushed)
	if p.OnFlush != nil {
		p.OnFlush(flushed)
	}
}
