package quote

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"stockpulse/internal/model"
	"stockpulse/internal/series"
)

// Synthesizer produces fallback quotes around a deterministic per-symbol
// base price. Only the jitter is random.
type Synthesizer struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSynthesizer creates a Synthesizer with its own random source.
func NewSynthesizer(seed int64) *Synthesizer {
	return &Synthesizer{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// Quote returns a synthetic quote for symbol, flagged Synthetic.
func (s *Synthesizer) Quote(symbol string) model.Quote {
	base := series.BasePrice(symbol)

	s.mu.Lock()
	sign := 1.0
	if s.rng.Float64() <= 0.5 {
		sign = -1
	}
	change := sign * s.rng.Float64() * 5
	high := base + s.rng.Float64()*10
	low := base - s.rng.Float64()*10
	now := s.now()
	s.mu.Unlock()

	return model.Quote{
		Symbol:        symbol,
		Price:         base,
		Change:        round2(change),
		ChangePercent: round2(change / base * 100),
		High:          high,
		Low:           low,
		Open:          base - change/2,
		PreviousClose: base - change,
		Timestamp:     now.UnixMilli(),
		Synthetic:     true,
	}
}

// Volume returns a plausible random daily volume in [1e6, 1.1e7).
func (s *Synthesizer) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return math.Floor(s.rng.Float64()*10_000_000) + 1_000_000
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
