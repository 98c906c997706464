package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"stockpulse/internal/breaker"
	"stockpulse/internal/model"
)

// QuoteCache stores quotes as JSON under "quote:{symbol}" with a TTL.
// Calls go through a breaker so a dead Redis costs one failed call per
// cooldown instead of one per request.
type QuoteCache struct {
	cmd commands
	cb  *breaker.Breaker
}

// NewQuoteCache wraps a Redis client. cb may be nil.
func NewQuoteCache(cmd commands, cb *breaker.Breaker) *QuoteCache {
	if cb == nil {
		cb = breaker.New("redis_quote", 5, 10*time.Second)
	}
	return &QuoteCache{cmd: cmd, cb: cb}
}

// GetQuote returns the cached quote. A miss is (zero, false, nil).
func (c *QuoteCache) GetQuote(ctx context.Context, symbol string) (model.Quote, bool, error) {
	var raw []byte
	miss := false
	err := c.cb.Execute(func() error {
		b, err := c.cmd.Get(ctx, quoteKey(symbol)).Bytes()
		if errors.Is(err, goredis.Nil) {
			miss = true
			return nil
		}
		raw = b
		return err
	})
	if err != nil {
		return model.Quote{}, false, fmt.Errorf("redis GET %s: %w", quoteKey(symbol), err)
	}
	if miss {
		return model.Quote{}, false, nil
	}

	var q model.Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return model.Quote{}, false, fmt.Errorf("decode cached quote %s: %w", symbol, err)
	}
	return q, true, nil
}

// SetQuote caches q for ttl.
func (c *QuoteCache) SetQuote(ctx context.Context, q model.Quote, ttl time.Duration) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encode quote %s: %w", q.Symbol, err)
	}
	err = c.cb.Execute(func() error {
		return c.cmd.Set(ctx, quoteKey(q.Symbol), data, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("redis SET %s: %w", quoteKey(q.Symbol), err)
	}
	return nil
}
