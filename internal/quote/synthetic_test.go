package quote

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSynthesizer_QuoteShape(t *testing.T) {
	s := NewSynthesizer(42)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	for i := 0; i < 200; i++ {
		q := s.Quote("AAPL")
		assert.True(t, q.Synthetic)
		assert.Equal(t, 386.0, q.Price, "base price is deterministic")
		assert.LessOrEqual(t, math.Abs(q.Change), 5.0)
		assert.Equal(t, q.Change, math.Round(q.Change*100)/100, "change rounded to cents")
		assert.GreaterOrEqual(t, q.High, q.Price)
		assert.LessOrEqual(t, q.High, q.Price+10)
		assert.LessOrEqual(t, q.Low, q.Price)
		assert.GreaterOrEqual(t, q.Low, q.Price-10)
		assert.InDelta(t, q.Price-q.PreviousClose, 2*(q.Price-q.Open), 1e-9)
		assert.Equal(t, fixed.UnixMilli(), q.Timestamp)
	}
}

func TestSynthesizer_SeededIsReproducible(t *testing.T) {
	a, b := NewSynthesizer(7), NewSynthesizer(7)
	fixed := time.Unix(0, 0)
	a.now = func() time.Time { return fixed }
	b.now = func() time.Time { return fixed }
	assert.Equal(t, a.Quote("TSLA"), b.Quote("TSLA"))
}

func TestSynthesizer_Volume(t *testing.T) {
	s := NewSynthesizer(1)
	for i := 0; i < 100; i++ {
		v := s.Volume()
		assert.GreaterOrEqual(t, v, 1_000_000.0)
		assert.Less(t, v, 11_000_000.0)
	}
}
