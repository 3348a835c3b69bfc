// Package auditlog persists the client registry's connect/disconnect
// history to SQLite, grounded in buffkit's own database/sql usage
// (auth.SQLStore, migrations.Runner): a *sql.DB, a driver name, and
// plain parameterized queries, no ORM.
package auditlog

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS connections (
	id          TEXT NOT NULL,
	remote_addr TEXT NOT NULL,
	event       TEXT NOT NULL,
	at          DATETIME NOT NULL
)`

// Store is a SQLite-backed log of every connect/disconnect event the
// client registry observes, kept independent of stats.Registry (which
// is in-memory and resets on restart) so a restart doesn't erase the
// connection history entirely.
type Store struct {
	db *sql.DB
}

// Open creates (or attaches to) a SQLite database at path and ensures
// its schema exists. path may be ":memory:" for a process-lifetime-only
// log, matching sql.Open("sqlite3", ":memory:") in buffkit's own
// migrations test.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("auditlog: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("auditlog: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// RecordConnect appends a "connect" event for id. Failures are
// returned, not swallowed — callers on the hot path log and continue,
// since a missed audit row must never fail a live connection.
func (s *Store) RecordConnect(id, remoteAddr string) error {
	return s.insert(id, remoteAddr, "connect")
}

// RecordDisconnect appends a "disconnect" event for id.
func (s *Store) RecordDisconnect(id string) error {
	return s.insert(id, "", "disconnect")
}

func (s *Store) insert(id, remoteAddr, event string) error {
	_, err := s.db.Exec(
		`INSERT INTO connections (id, remote_addr, event, at) VALUES (?, ?, ?, ?)`,
		id, remoteAddr, event, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("auditlog: insert %s for %s: %w", event, id, err)
	}
	return nil
}

// Entry is one row of connection history, returned by Recent.
type Entry struct {
	ID         string
	RemoteAddr string
	Event      string
	At         time.Time
}

// Recent returns the most recent limit events, newest first, for an
// operator wanting to inspect connection churn outside of /_stats's
// point-in-time snapshot.
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, remote_addr, event, at FROM connections ORDER BY at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("auditlog: query recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.RemoteAddr, &e.Event, &e.At); err != nil {
			return nil, fmt.Errorf("auditlog: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
