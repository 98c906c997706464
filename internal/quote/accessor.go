// Package quote fetches point-in-time quotes from the upstream REST API and
// degrades to deterministic synthetic quotes when the upstream is unusable.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"stockpulse/internal/breaker"
	"stockpulse/internal/model"
)

// ErrNoData is returned when the upstream answers without a usable price.
var ErrNoData = errors.New("quote: no data")

// Cache stores recent quotes. Implementations must be safe for concurrent use.
type Cache interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, bool, error)
	SetQuote(ctx context.Context, q model.Quote, ttl time.Duration) error
}

// Config configures the upstream quote API.
type Config struct {
	// BaseURL of the REST API, e.g. "https://finnhub.io/api/v1".
	BaseURL string

	// Token is sent in the X-Finnhub-Token header.
	Token string

	// CacheTTL for successful quotes. Defaults to 60s.
	CacheTTL time.Duration

	// Timeout per upstream request. Defaults to 5s.
	Timeout time.Duration

	// RPS throttles upstream requests. Zero disables throttling.
	RPS   float64
	Burst int

	// Breaker opens after BreakerFailures consecutive failures for
	// BreakerCooldown. Defaults 5 and 30s.
	BreakerFailures int
	BreakerCooldown time.Duration
}

func (c *Config) defaults() {
	if c.CacheTTL == 0 {
		c.CacheTTL = 60 * time.Second
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.Burst == 0 {
		c.Burst = 1
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerCooldown == 0 {
		c.BreakerCooldown = 30 * time.Second
	}
}

// upstreamQuote is the REST quote payload.
type upstreamQuote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"` // epoch seconds
}

// Accessor serves quotes: cache, then upstream, then synthetic.
type Accessor struct {
	cfg     Config
	client  *http.Client
	cache   Cache
	breaker *breaker.Breaker
	limiter *rate.Limiter
	synth   *Synthesizer
	log     *slog.Logger

	// Metrics hooks (optional, set externally)
	OnCacheHit func()
	OnFallback func(reason string)
	OnUpstream func(d time.Duration, err error)
}

// New creates an Accessor. cache may be nil.
func New(cfg Config, cache Cache, log *slog.Logger) *Accessor {
	cfg.defaults()
	if log == nil {
		log = slog.Default()
	}
	a := &Accessor{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		cache:   cache,
		breaker: breaker.New("quote", cfg.BreakerFailures, cfg.BreakerCooldown),
		synth:   NewSynthesizer(time.Now().UnixNano()),
		log:     log.With(slog.String("component", "quote")),
	}
	if cfg.RPS > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
	}
	return a
}

// Breaker exposes the upstream breaker so callers can observe it.
func (a *Accessor) Breaker() *breaker.Breaker { return a.breaker }

// Synthesizer exposes the fallback generator.
func (a *Accessor) Synthesizer() *Synthesizer { return a.synth }

// Get returns a quote for symbol. It never fails: any cache, transport,
// decode or breaker error yields a synthetic quote instead.
func (a *Accessor) Get(ctx context.Context, symbol string) model.Quote {
	if a.cache != nil {
		q, ok, err := a.cache.GetQuote(ctx, symbol)
		if err != nil {
			a.log.Debug("cache read failed", slog.String("symbol", symbol), slog.Any("error", err))
		} else if ok {
			if a.OnCacheHit != nil {
				a.OnCacheHit()
			}
			return q
		}
	}

	q, err := a.Fetch(ctx, symbol)
	if err != nil {
		reason := "upstream"
		if errors.Is(err, breaker.ErrOpen) {
			reason = "breaker_open"
		}
		a.log.Warn("quote fallback to synthetic", slog.String("symbol", symbol), slog.String("reason", reason), slog.Any("error", err))
		if a.OnFallback != nil {
			a.OnFallback(reason)
		}
		return a.synth.Quote(symbol)
	}

	if a.cache != nil {
		if err := a.cache.SetQuote(ctx, q, a.cfg.CacheTTL); err != nil {
			a.log.Debug("cache write failed", slog.String("symbol", symbol), slog.Any("error", err))
		}
	}
	return q
}

// Fetch requests a quote from the upstream only, through the rate limiter
// and the breaker.
func (a *Accessor) Fetch(ctx context.Context, symbol string) (model.Quote, error) {
	if a.cfg.BaseURL == "" {
		return model.Quote{}, fmt.Errorf("quote: no upstream configured")
	}
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return model.Quote{}, fmt.Errorf("quote: rate limit: %w", err)
		}
	}

	var q model.Quote
	err := a.breaker.Execute(func() error {
		start := time.Now()
		var err error
		q, err = a.fetch(ctx, symbol)
		if a.OnUpstream != nil {
			a.OnUpstream(time.Since(start), err)
		}
		return err
	})
	return q, err
}

func (a *Accessor) fetch(ctx context.Context, symbol string) (model.Quote, error) {
	u := a.cfg.BaseURL + "/quote?" + url.Values{"symbol": {symbol}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.Quote{}, fmt.Errorf("quote: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if a.cfg.Token != "" {
		req.Header.Set("X-Finnhub-Token", a.cfg.Token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return model.Quote{}, fmt.Errorf("quote: request %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return model.Quote{}, fmt.Errorf("quote: %s: status %d", symbol, resp.StatusCode)
	}

	var raw upstreamQuote
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return model.Quote{}, fmt.Errorf("quote: decode %s: %w", symbol, err)
	}
	if raw.Current == 0 && raw.PreviousClose == 0 {
		return model.Quote{}, fmt.Errorf("%w for %s", ErrNoData, symbol)
	}

	return model.Quote{
		Symbol:        symbol,
		Price:         raw.Current,
		Change:        raw.Change,
		ChangePercent: raw.ChangePercent,
		High:          raw.High,
		Low:           raw.Low,
		Open:          raw.Open,
		PreviousClose: raw.PreviousClose,
		Timestamp:     raw.Timestamp * 1000,
	}, nil
}
