package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteOutbox keeps lifecycle events in a local SQLite file
type SQLiteOutbox struct {
	conn *sql.DB
}

// OpenSQLiteOutbox opens (or creates) the database at path
func OpenSQLiteOutbox(path string) (*SQLiteOutbox, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}

	o := &SQLiteOutbox{conn: conn}
	if err := o.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return o, nil
}

func (o *SQLiteOutbox) migrate() error {
	_, err := o.conn.Exec(`
	CREATE TABLE IF NOT EXISTS match_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		routing_key TEXT NOT NULL,
		match_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_match_events_match ON match_events(match_id);
	`)
	return err
}

// Write stores a batch of events in one transaction
func (o *SQLiteOutbox) Write(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := o.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO match_events (routing_key, match_id, payload, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, e.RoutingKey, e.MatchID.String(), string(e.Payload), e.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert %s: %w", e.RoutingKey, err)
		}
	}
	return tx.Commit()
}

// Recent returns the newest events first
func (o *SQLiteOutbox) Recent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := o.conn.QueryContext(ctx, `
		SELECT routing_key, match_id, payload, created_at FROM match_events
		ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var matchID, payload, created string
		if err := rows.Scan(&e.RoutingKey, &matchID, &payload, &created); err != nil {
			return nil, err
		}
		e.MatchID, _ = uuid.Parse(matchID)
		e.Payload = []byte(payload)
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database
func (o *SQLiteOutbox) Close() error {
	return o.conn.Close()
}
