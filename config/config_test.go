package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stockpulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Feed.ReconnectDelay)
	assert.Equal(t, 60*time.Second, cfg.Quote.CacheTTL)
	assert.Equal(t, "@every 1m", cfg.Quote.Trending)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := writeYAML(t, `
feed:
  url: ws://yaml:9000
  token: yaml-token
  reconnect_delay: 2s
redis_addr: yaml:6379
watchlist: aapl, msft
`)
	t.Setenv("REDIS_ADDR", "env:6379")
	t.Setenv("RECONNECT_DELAY", "750ms")
	t.Setenv("QUOTE_RPS", "2.5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ws://yaml:9000", cfg.Feed.URL)
	assert.Equal(t, "yaml-token", cfg.Quote.Token, "quote token falls back to feed token")
	assert.Equal(t, "env:6379", cfg.RedisAddr)
	assert.Equal(t, 750*time.Millisecond, cfg.Feed.ReconnectDelay)
	assert.Equal(t, 2.5, cfg.Quote.RPS)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.ParseWatchlist())
}

func TestLoad_BadValues(t *testing.T) {
	t.Setenv("RECONNECT_DELAY", "soon")
	_, err := Load("")
	assert.Error(t, err)

	path := writeYAML(t, "feed: [not, a, map]")
	t.Setenv("RECONNECT_DELAY", "")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Feed.MaxReconnectDelay = time.Second
	assert.Error(t, cfg.Validate())

	cfg.Feed.MaxReconnectDelay = time.Minute
	cfg.Feed.MaxAttempts = -1
	assert.Error(t, cfg.Validate())
}

func TestParseWatchlist(t *testing.T) {
	cfg := &Config{Watchlist: " aapl,,MSFT,aapl, bad sym ,tsla"}
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, cfg.ParseWatchlist())
}
