package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"stockpulse/config"
	"stockpulse/internal/breaker"
	"stockpulse/internal/gateway"
	"stockpulse/internal/live"
	"stockpulse/internal/logger"
	"stockpulse/internal/metrics"
	"stockpulse/internal/model"
	"stockpulse/internal/mux"
	"stockpulse/internal/quote"
	"stockpulse/internal/series"
	redisstore "stockpulse/internal/store/redis"
	sqlitestore "stockpulse/internal/store/sqlite"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the streaming service and HTTP/WS gateway",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, logCloser := logger.InitWithFile("stockpulse", logger.ParseLevel(cfg.LogLevel), logger.FileOptions{Path: cfg.LogFile})
	defer logCloser.Close()
	log.Info("starting", "version", version, "feed", cfg.Feed.URL, "http", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Metrics & health ----
	prom := metrics.NewMetrics(nil)
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health, nil)
	metricsSrv.Start()

	// ---- SQLite status journal (optional) ----
	var (
		jrnl     *journal
		writer   *sqlitestore.Writer
		reader   *sqlitestore.Reader
		writerWG sync.WaitGroup
	)
	if cfg.SQLitePath != "" {
		os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755)
		writer, err = sqlitestore.New(sqlitestore.WriterConfig{DBPath: cfg.SQLitePath})
		if err != nil {
			log.Warn("sqlite journal disabled", "error", err)
			health.SetSQLiteOK(false)
		} else {
			health.SetSQLiteOK(true)
			writer.OnCommit = func(d time.Duration) { prom.SQLiteCommitDur.Observe(d.Seconds()) }
			jrnl = newJournal(1024)
			writerWG.Add(1)
			go func() {
				defer writerWG.Done()
				writer.Run(ctx, jrnl.ch)
			}()
			if reader, err = sqlitestore.NewReader(cfg.SQLitePath); err != nil {
				log.Warn("sqlite reader unavailable", "error", err)
			}
		}
	}

	// ---- Redis cache + publisher (optional) ----
	var (
		rdb   *goredis.Client
		cache quote.Cache
		pub   live.Publisher
	)
	if cfg.RedisAddr != "" {
		rdb, err = redisstore.Connect(ctx, redisstore.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			log.Warn("redis disabled", "error", err)
			health.SetRedisConnected(false)
		} else {
			health.SetRedisConnected(true)

			cacheCB := breaker.New("redis_quote", 5, 10*time.Second)
			observeBreaker(cacheCB, prom, jrnl, nil)
			cache = redisstore.NewQuoteCache(rdb, cacheCB)

			pubCB := breaker.New("redis_publish", 5, 10*time.Second)
			observeBreaker(pubCB, prom, jrnl, nil)
			p := redisstore.NewPublisher(ctx, rdb, pubCB)
			p.OnBuffer = prom.RedisHeldUpdates.Inc
			p.OnFlush = func(n int) { log.Info("flushed held metrics updates", "count", n) }
			pub = p
		}
	}

	// ---- Upstream multiplexer ----
	m, err := mux.New(mux.Config{
		URL:               cfg.Feed.URL,
		Token:             cfg.Feed.Token,
		ReconnectDelay:    cfg.Feed.ReconnectDelay,
		MaxReconnectDelay: cfg.Feed.MaxReconnectDelay,
		MaxAttempts:       cfg.Feed.MaxAttempts,
	}, log)
	if err != nil {
		return err
	}
	rec := &statusRecorder{prom: prom, health: health, journal: jrnl}
	m.OnStatus = rec.observe
	m.OnTick = func(t model.Tick) {
		prom.TicksTotal.WithLabelValues(t.Symbol).Inc()
		health.SetLastTickTime(time.Now())
	}
	m.OnMalformed = prom.MalformedFrames.Inc

	// ---- Live pipeline ----
	store := series.NewStore()
	store.OnDroppedTick = func(string) { prom.DroppedTicks.Inc() }
	svc := live.New(live.MuxFeed(m), store, pub, log)
	svc.OnSnapshot = func(_ string, d time.Duration) {
		prom.SnapshotDur.Observe(d.Seconds())
		prom.SnapshotsTotal.Inc()
	}
	svc.OnLatency = func(d time.Duration) { prom.E2ELatency.Observe(d.Seconds()) }

	// ---- Quotes ----
	quotes := quote.New(quote.Config{
		BaseURL:  cfg.Quote.URL,
		Token:    cfg.Quote.Token,
		CacheTTL: cfg.Quote.CacheTTL,
		Timeout:  cfg.Quote.Timeout,
		RPS:      cfg.Quote.RPS,
	}, cache, log)
	observeBreaker(quotes.Breaker(), prom, jrnl, func(to breaker.State) { health.SetQuoteBreaker(to.String()) })
	quotes.OnCacheHit = func() { prom.QuoteRequests.WithLabelValues("cache").Inc() }
	quotes.OnFallback = func(reason string) {
		prom.QuoteRequests.WithLabelValues("synthetic").Inc()
		prom.QuoteFallbacks.WithLabelValues(reason).Inc()
		jrnl.record(sqlitestore.Event{Kind: sqlitestore.KindFallback, Detail: reason})
	}
	quotes.OnUpstream = func(d time.Duration, err error) {
		prom.QuoteUpstreamDur.Observe(d.Seconds())
		if err == nil {
			prom.QuoteRequests.WithLabelValues("upstream").Inc()
		}
	}
	trending := quote.NewTrending(quotes, nil, log)

	// ---- Scheduled trending refresh ----
	sched := cron.New()
	if _, err := sched.AddFunc(cfg.Quote.Trending, func() {
		items := trending.Refresh(ctx)
		log.Debug("trending refreshed", "items", len(items))
	}); err != nil {
		return fmt.Errorf("register trending refresh %q: %w", cfg.Quote.Trending, err)
	}
	sched.Start()
	defer sched.Stop()

	// ---- Liveness probes ----
	startProbes(ctx, health, rdb, writer)

	// ---- Start upstream + watchlist ----
	if err := m.Start(ctx); err != nil {
		return err
	}
	for _, sym := range cfg.ParseWatchlist() {
		if _, err := svc.Watch(ctx, sym, nil); err != nil {
			log.Warn("watchlist symbol skipped", "symbol", sym, "error", err)
		}
	}

	// ---- HTTP/WS gateway ----
	hub := gateway.NewHub(svc)
	hub.OnClients = func(n int) { prom.WSClients.Set(float64(n)) }
	hub.OnDropped = prom.WSDropped.Inc

	deps := gateway.Deps{
		Hub:      hub,
		Live:     svc,
		Quotes:   quotes,
		Trending: trending,
		Upstream: m,
		OnReset: func() {
			prom.ResetsTotal.Inc()
			jrnl.record(sqlitestore.Event{Kind: sqlitestore.KindReset, Detail: "requested via /api/status/reset"})
		},
	}
	if reader != nil {
		deps.Events = reader
	}
	routes := http.NewServeMux()
	gateway.RegisterRoutes(routes, deps)
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: routes}
	go func() {
		log.Info("gateway listening", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("gateway server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	httpSrv.Shutdown(shutCtx)
	hub.CloseAll()
	m.Close()
	metricsSrv.Stop(shutCtx)

	writerWG.Wait()
	if writer != nil {
		writer.Close()
	}
	if reader != nil {
		reader.Close()
	}
	if rdb != nil {
		rdb.Close()
	}
	log.Info("shutdown complete")
	return nil
}

// startProbes runs the periodic redis/sqlite health checks for whichever
// dependencies are enabled.
func startProbes(ctx context.Context, health *metrics.HealthStatus, rdb *goredis.Client, w *sqlitestore.Writer) {
	if rdb != nil && w != nil {
		health.StartLivenessChecker(ctx, rdb, w.DB(), 10*time.Second)
		return
	}
	if rdb != nil {
		health.StartLivenessChecker(ctx, rdb, nil, 10*time.Second)
		return
	}
	if w != nil {
		health.StartLivenessChecker(ctx, nil, w.DB(), 10*time.Second)
	}
}
