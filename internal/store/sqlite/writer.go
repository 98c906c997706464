// Package sqlite journals connection-status events so operators and the
// health endpoint can see recent upstream history across restarts.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultBatchSize  = 100
	defaultFlushDelay = 200 * time.Millisecond
	defaultKeep       = 1000
)

// Event kinds.
const (
	KindState    = "state"
	KindReset    = "reset"
	KindFallback = "fallback"
	KindBreaker  = "breaker"
)

// Event is one journal entry.
type Event struct {
	At         time.Time `json:"at"`
	Kind       string    `json:"kind"`
	State      string    `json:"state,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Reconnects int       `json:"reconnects"`
}

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/stockpulse.db"

	// Keep bounds the journal to the newest Keep rows. Defaults to 1000.
	Keep int
}

// Writer is a single-goroutine SQLite writer with transaction batching.
type Writer struct {
	db   *sql.DB
	keep int

	// Metrics hook (optional)
	OnCommit func(d time.Duration)
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New creates a new SQLite Writer, initializes the database with WAL mode and schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := sql.Open("sqlite3", dsn(cfg.DBPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	keep := cfg.Keep
	if keep <= 0 {
		keep = defaultKeep
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db, keep: keep}, nil
}

func dsn(path string) string {
	return path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS status_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			at_ms       INTEGER NOT NULL,
			kind        TEXT    NOT NULL,
			state       TEXT,
			detail      TEXT,
			reconnects  INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_status_events_kind ON status_events (kind, id);
	`)
	return err
}

// Run reads events from ch and inserts them in batched transactions.
// Flushes every batchSize events OR every flushDelay, whichever first.
// Blocks until ctx is cancelled or ch is closed.
func (w *Writer) Run(ctx context.Context, ch <-chan Event) {
	batch := make([]Event, 0, defaultBatchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		if err := w.insertBatch(batch); err != nil {
			log.Printf("[sqlite] batch insert error: %v", err)
		} else if w.OnCommit != nil {
			w.OnCommit(time.Since(start))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case ev, ok := <-ch:
			if !ok {
				flush()
				return
			}
			batch = append(batch, ev)
			if len(batch) >= defaultBatchSize {
				flush()
				timer.Reset(defaultFlushDelay)
			}

		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}

// Append writes a single event immediately.
func (w *Writer) Append(ev Event) error {
	return w.insertBatch([]Event{ev})
}

// insertBatch inserts a batch of events in a single transaction and prunes
// the journal to the newest keep rows.
func (w *Writer) insertBatch(events []Event) error {
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO status_events (at_ms, kind, state, detail, reconnects)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.Exec(ev.At.UnixMilli(), ev.Kind, ev.State, ev.Detail, ev.Reconnects); err != nil {
			tx.Rollback()
			return err
		}
	}

	if _, err := tx.Exec(`DELETE FROM status_events WHERE id <= (SELECT MAX(id) FROM status_events) - ?`, w.keep); err != nil {
		tx.Rollback()
		return fmt.Errorf("prune status_events: %w", err)
	}

	return tx.Commit()
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
