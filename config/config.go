package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. Values come from an optional
// YAML file, then .env, then the process environment (highest priority).
type Config struct {
	Feed struct {
		URL               string        `yaml:"url"`
		Token             string        `yaml:"token"`
		ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
		MaxReconnectDelay time.Duration `yaml:"max_reconnect_delay"`
		MaxAttempts       int           `yaml:"max_attempts"`
	} `yaml:"feed"`

	Quote struct {
		URL       string        `yaml:"url"`
		Token     string        `yaml:"token"`
		RPS       float64       `yaml:"rps"`
		CacheTTL  time.Duration `yaml:"cache_ttl"`
		Timeout   time.Duration `yaml:"timeout"`
		Trending  string        `yaml:"trending_cron"`
		BatchSize int           `yaml:"batch_size"`
	} `yaml:"quote"`

	// Infrastructure
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	SQLitePath    string `yaml:"sqlite_path"`
	HTTPAddr      string `yaml:"http_addr"`
	MetricsAddr   string `yaml:"metrics_addr"`

	// Comma-separated symbols streamed at startup, e.g. "AAPL,MSFT"
	Watchlist string `yaml:"watchlist"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// Load reads configuration from path (optional, may not exist), .env in the
// working directory, and environment overrides, then applies defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] error loading .env: %v", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Feed.URL = getEnv("FEED_URL", c.Feed.URL)
	c.Feed.Token = getEnv("FEED_TOKEN", c.Feed.Token)
	c.Quote.URL = getEnv("QUOTE_URL", c.Quote.URL)
	c.Quote.Token = getEnv("QUOTE_TOKEN", c.Quote.Token)
	c.Quote.Trending = getEnv("TRENDING_CRON", c.Quote.Trending)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.MetricsAddr = getEnv("METRICS_ADDR", c.MetricsAddr)
	c.Watchlist = getEnv("WATCHLIST", c.Watchlist)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)

	if v := os.Getenv("RECONNECT_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse RECONNECT_DELAY %q: %w", v, err)
		}
		c.Feed.ReconnectDelay = d
	}
	if v := os.Getenv("QUOTE_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse QUOTE_RPS %q: %w", v, err)
		}
		c.Quote.RPS = rps
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Feed.URL == "" {
		c.Feed.URL = "wss://ws.finnhub.io"
	}
	if c.Feed.ReconnectDelay <= 0 {
		c.Feed.ReconnectDelay = 5 * time.Second
	}
	if c.Quote.URL == "" {
		c.Quote.URL = "https://finnhub.io/api/v1"
	}
	// The quote token defaults to the feed token; Finnhub uses one key for both.
	if c.Quote.Token == "" {
		c.Quote.Token = c.Feed.Token
	}
	if c.Quote.RPS <= 0 {
		c.Quote.RPS = 1
	}
	if c.Quote.CacheTTL <= 0 {
		c.Quote.CacheTTL = 60 * time.Second
	}
	if c.Quote.Timeout <= 0 {
		c.Quote.Timeout = 5 * time.Second
	}
	if c.Quote.Trending == "" {
		c.Quote.Trending = "@every 1m"
	}
	if c.SQLitePath == "" {
		c.SQLitePath = "data/status.db"
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9090"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks value ranges that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Feed.MaxReconnectDelay > 0 && c.Feed.MaxReconnectDelay < c.Feed.ReconnectDelay {
		return fmt.Errorf("feed.max_reconnect_delay (%s) below reconnect_delay (%s)",
			c.Feed.MaxReconnectDelay, c.Feed.ReconnectDelay)
	}
	if c.Feed.MaxAttempts < 0 {
		return fmt.Errorf("feed.max_attempts must not be negative")
	}
	return nil
}

// ParseWatchlist splits Watchlist into upper-cased, de-duplicated symbols.
func (c *Config) ParseWatchlist() []string {
	parts := strings.Split(c.Watchlist, ",")
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		if strings.ContainsAny(p, " \t/") {
			log.Printf("[config] skipping invalid symbol: %q", p)
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
