package sqlite

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to the status journal.
type Reader struct {
	db *sql.DB
}

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// Recent returns up to limit events, newest first. kind filters when non-empty.
func (r *Reader) Recent(limit int, kind string) ([]Event, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT at_ms, kind, state, detail, reconnects FROM status_events`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite query status_events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var atMs int64
		var state, detail sql.NullString
		if err := rows.Scan(&atMs, &ev.Kind, &state, &detail, &ev.Reconnects); err != nil {
			return nil, fmt.Errorf("sqlite scan status_events: %w", err)
		}
		ev.At = time.UnixMilli(atMs).UTC()
		ev.State = state.String
		ev.Detail = detail.String
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Count returns the number of journaled events.
func (r *Reader) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM status_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite count status_events: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (r *Reader) Close() error {
	return r.db.Close()
}
