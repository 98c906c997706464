package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openJournal(t *testing.T, keep int) (*Writer, *Reader) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	w, err := New(WriterConfig{DBPath: path, Keep: keep})
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	r, err := NewReader(path)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return w, r
}

func TestJournal_RunBatchesAndFlushesOnClose(t *testing.T) {
	w, r := openJournal(t, 0)

	ch := make(chan Event, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, ch)
		close(done)
	}()

	base := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	ch <- Event{At: base, Kind: KindState, State: "CONNECTING"}
	ch <- Event{At: base.Add(time.Second), Kind: KindState, State: "CONNECTED"}
	ch <- Event{At: base.Add(2 * time.Second), Kind: KindState, State: "DISCONNECTED", Detail: "EOF", Reconnects: 1}
	close(ch)
	<-done
	cancel()

	events, err := r.Recent(10, "")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "DISCONNECTED", events[0].State)
	assert.Equal(t, "EOF", events[0].Detail)
	assert.Equal(t, 1, events[0].Reconnects)
	assert.True(t, events[0].At.Equal(base.Add(2*time.Second)))
	assert.Equal(t, "CONNECTING", events[2].State)
}

func TestJournal_FilterAndLimit(t *testing.T) {
	w, r := openJournal(t, 0)
	now := time.Now()

	require.NoError(t, w.Append(Event{At: now, Kind: KindState, State: "CONNECTED"}))
	require.NoError(t, w.Append(Event{At: now, Kind: KindReset, Detail: "supervisor"}))
	require.NoError(t, w.Append(Event{At: now, Kind: KindFallback, Detail: "AAPL"}))
	require.NoError(t, w.Append(Event{At: now, Kind: KindFallback, Detail: "MSFT"}))

	fallbacks, err := r.Recent(10, KindFallback)
	require.NoError(t, err)
	require.Len(t, fallbacks, 2)
	assert.Equal(t, "MSFT", fallbacks[0].Detail)

	latest, err := r.Recent(1, "")
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, KindFallback, latest[0].Kind)
}

func TestJournal_PrunesToKeep(t *testing.T) {
	w, r := openJournal(t, 5)
	for i := 0; i < 12; i++ {
		require.NoError(t, w.Append(Event{At: time.Now(), Kind: KindState, Reconnects: i}))
	}

	n, err := r.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	events, err := r.Recent(0, "")
	require.NoError(t, err)
	require.Len(t, events, 5)
	assert.Equal(t, 11, events[0].Reconnects)
	assert.Equal(t, 7, events[4].Reconnects)
}
