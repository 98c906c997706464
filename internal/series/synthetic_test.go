package series

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasePrice_Deterministic(t *testing.T) {
	// 'A'=65 'A'=65 'P'=80 'L'=76 → 286
	assert.Equal(t, 386.0, BasePrice("AAPL"))
	assert.Equal(t, BasePrice("MSFT"), BasePrice("MSFT"))
	// 'Z'*10 = 900 → 900 % 400 = 100
	assert.Equal(t, 200.0, BasePrice("ZZZZZZZZZZ"))
}

func TestRangeBars(t *testing.T) {
	cases := map[string]int{"1w": 7, "1m": 30, "3m": 60, "6m": 90, "1y": 120, "": 120}
	for rng, want := range cases {
		assert.Equal(t, want, RangeBars(rng), rng)
	}
}

func TestSyntheticBars_Shape(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)
	bars := SyntheticBars("AAPL", "1m", now)
	require.Len(t, bars, 30)

	assert.Equal(t, "2024-03-15", bars[29].Date)
	assert.Equal(t, "2024-02-15", bars[0].Date)
	for i := 1; i < len(bars); i++ {
		assert.Less(t, bars[i-1].Date, bars[i].Date, "dates ascend")
	}

	// Today's bar is generation step 0: base 386, wave sin(0)*15 - 2.5
	last := bars[29]
	assert.InDelta(t, 383.5, last.Close, 1e-9)
	assert.InDelta(t, 384.0, last.High, 1e-9)
	assert.InDelta(t, 382.5, last.Low, 1e-9)
	assert.InDelta(t, 383.0, last.Open, 1e-9)
	assert.Equal(t, 1_000_000.0, last.Volume)
	assert.Equal(t, 1_290_000.0, bars[0].Volume)
}

func TestSyntheticBars_Deterministic(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, SyntheticBars("TSLA", "3m", now), SyntheticBars("TSLA", "3m", now))
	assert.NotEqual(t, SyntheticBars("TSLA", "3m", now), SyntheticBars("NVDA", "3m", now))
}
