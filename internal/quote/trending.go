package quote

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	trendingBatch = 10
	trendingTTL   = time.Minute
)

// Company is one entry of the trending universe.
type Company struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// TrendingItem is a compact quote row for list views.
type TrendingItem struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	Volume        float64 `json:"volume"`
	LastUpdated   int64   `json:"lastUpdated"` // epoch milliseconds
	Synthetic     bool    `json:"isSynthetic,omitempty"`
}

// Trending serves quotes for a fixed company universe, fetched in batches of
// ten and cached for a minute.
type Trending struct {
	acc       *Accessor
	companies []Company
	log       *slog.Logger
	now       func() time.Time

	mu          sync.Mutex
	cache       map[string]TrendingItem
	lastRefresh time.Time

	// BatchPause is slept between batches to stay under upstream limits.
	BatchPause time.Duration
}

// NewTrending creates a Trending list over companies (TopCompanies if nil).
func NewTrending(acc *Accessor, companies []Company, log *slog.Logger) *Trending {
	if companies == nil {
		companies = TopCompanies
	}
	if log == nil {
		log = slog.Default()
	}
	return &Trending{
		acc:        acc,
		companies:  companies,
		log:        log.With(slog.String("component", "trending")),
		now:        time.Now,
		cache:      make(map[string]TrendingItem),
		BatchPause: 200 * time.Millisecond,
	}
}

// Top returns up to limit items in universe order. Cached rows younger than a
// minute are reused; a synthetic answer never replaces a cached real one.
func (t *Trending) Top(ctx context.Context, limit int) []TrendingItem {
	if limit <= 0 || limit > len(t.companies) {
		limit = len(t.companies)
	}
	return t.load(ctx, t.companies[:limit], false)
}

// Refresh refetches the whole universe regardless of cache age.
func (t *Trending) Refresh(ctx context.Context) []TrendingItem {
	return t.load(ctx, t.companies, true)
}

func (t *Trending) load(ctx context.Context, companies []Company, force bool) []TrendingItem {
	now := t.now()

	t.mu.Lock()
	fresh := !force && now.Sub(t.lastRefresh) <= trendingTTL
	t.mu.Unlock()

	out := make([]TrendingItem, len(companies))
	for start := 0; start < len(companies); start += trendingBatch {
		end := start + trendingBatch
		if end > len(companies) {
			end = len(companies)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				out[i] = t.item(ctx, companies[i], now, fresh)
			}(i)
		}
		wg.Wait()

		if end < len(companies) && t.BatchPause > 0 {
			select {
			case <-ctx.Done():
				t.log.Warn("trending load cancelled", slog.Int("loaded", end))
				return out[:end]
			case <-time.After(t.BatchPause):
			}
		}
	}

	if !fresh {
		t.mu.Lock()
		t.lastRefresh = now
		t.mu.Unlock()
	}
	return out
}

func (t *Trending) item(ctx context.Context, c Company, now time.Time, fresh bool) TrendingItem {
	t.mu.Lock()
	cached, ok := t.cache[c.Symbol]
	t.mu.Unlock()
	if fresh && ok {
		return cached
	}

	q := t.acc.Get(ctx, c.Symbol)
	if q.Synthetic && ok && !cached.Synthetic {
		return cached
	}

	it := TrendingItem{
		Symbol:        c.Symbol,
		Name:          c.Name,
		Price:         q.Price,
		Change:        q.Change,
		ChangePercent: q.ChangePercent,
		Volume:        t.acc.Synthesizer().Volume(),
		LastUpdated:   now.UnixMilli(),
		Synthetic:     q.Synthetic,
	}

	t.mu.Lock()
	t.cache[c.Symbol] = it
	t.mu.Unlock()
	return it
}
