// Package metrics exposes Prometheus instruments and the /healthz endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for stockpulse.
type Metrics struct {
	// Upstream stream
	TicksTotal       *prometheus.CounterVec // labels: symbol
	MalformedFrames  prometheus.Counter
	UpstreamState    prometheus.Gauge // 0=disconnected, 1=connecting, 2=connected
	Reconnects       prometheus.Counter
	ResetsTotal      prometheus.Counter
	SubscribedSymbol prometheus.Gauge
	DroppedTicks     prometheus.Counter

	// Indicator engine
	SnapshotDur    prometheus.Histogram
	SnapshotsTotal prometheus.Counter

	// Quote accessor
	QuoteRequests    *prometheus.CounterVec // labels: source=cache|upstream|synthetic
	QuoteFallbacks   *prometheus.CounterVec // labels: reason
	QuoteUpstreamDur prometheus.Histogram
	BreakerState     *prometheus.GaugeVec   // labels: breaker; 0=closed, 1=open, 2=half-open
	BreakerTrips     *prometheus.CounterVec // labels: breaker

	// Storage
	RedisHeldUpdates prometheus.Counter
	SQLiteCommitDur  prometheus.Histogram

	// Downstream
	WSClients  prometheus.Gauge
	WSDropped  prometheus.Counter
	E2ELatency prometheus.Histogram // tick receipt to WS emit
}

// NewMetrics creates all metrics and registers them with reg
// (prometheus.DefaultRegisterer when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	fast := []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01}

	m := &Metrics{
		TicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpulse_ticks_total",
			Help: "Trade ticks dispatched to subscribers",
		}, []string{"symbol"}),
		MalformedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpulse_malformed_frames_total",
			Help: "Upstream frames dropped because they could not be decoded",
		}),
		UpstreamState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stockpulse_upstream_state",
			Help: "Upstream connection state (0=disconnected, 1=connecting, 2=connected)",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpulse_upstream_reconnects_total",
			Help: "Upstream reconnection attempts",
		}),
		ResetsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpulse_upstream_resets_total",
			Help: "Forced reconnects requested through the reset endpoint",
		}),
		SubscribedSymbol: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stockpulse_subscribed_symbols",
			Help: "Symbols with at least one live subscriber",
		}),
		DroppedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpulse_dropped_ticks_total",
			Help: "Ticks for symbols without loaded history",
		}),

		SnapshotDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockpulse_snapshot_duration_seconds",
			Help:    "Time to recompute a metrics snapshot",
			Buckets: fast,
		}),
		SnapshotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpulse_snapshots_total",
			Help: "Metrics snapshots computed",
		}),

		QuoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpulse_quote_requests_total",
			Help: "Quote lookups by serving source",
		}, []string{"source"}),
		QuoteFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpulse_quote_fallbacks_total",
			Help: "Quotes served synthetically, by reason",
		}, []string{"reason"}),
		QuoteUpstreamDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockpulse_quote_upstream_duration_seconds",
			Help:    "Upstream quote request latency",
			Buckets: prometheus.DefBuckets,
		}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stockpulse_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"breaker"}),
		BreakerTrips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpulse_circuit_breaker_trips_total",
			Help: "Times a circuit breaker tripped open",
		}, []string{"breaker"}),

		RedisHeldUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpulse_redis_held_updates_total",
			Help: "Snapshot publishes held back while the Redis breaker was open",
		}),
		SQLiteCommitDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockpulse_sqlite_commit_duration_seconds",
			Help:    "SQLite journal batch commit latency",
			Buckets: prometheus.DefBuckets,
		}),

		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stockpulse_ws_clients",
			Help: "Connected downstream WebSocket clients",
		}),
		WSDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stockpulse_ws_dropped_total",
			Help: "Updates dropped because a client send buffer was full",
		}),
		E2ELatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockpulse_e2e_latency_seconds",
			Help:    "Latency from tick receipt to downstream emit",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}

	reg.MustRegister(
		m.TicksTotal,
		m.MalformedFrames,
		m.UpstreamState,
		m.Reconnects,
		m.ResetsTotal,
		m.SubscribedSymbol,
		m.DroppedTicks,
		m.SnapshotDur,
		m.SnapshotsTotal,
		m.QuoteRequests,
		m.QuoteFallbacks,
		m.QuoteUpstreamDur,
		m.BreakerState,
		m.BreakerTrips,
		m.RedisHeldUpdates,
		m.SQLiteCommitDur,
		m.WSClients,
		m.WSDropped,
		m.E2ELatency,
	)

	return m
}
