package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresOutbox keeps lifecycle events in PostgreSQL
type PostgresOutbox struct {
	db *sql.DB
}

// OpenPostgresOutbox connects and ensures the schema exists
func OpenPostgresOutbox(connectionString string) (*PostgresOutbox, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	o := &PostgresOutbox{db: db}
	if err := o.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return o, nil
}

func (o *PostgresOutbox) initSchema() error {
	_, err := o.db.Exec(`
	CREATE TABLE IF NOT EXISTS match_events (
		id BIGSERIAL PRIMARY KEY,
		routing_key TEXT NOT NULL,
		match_id UUID NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_match_events_match ON match_events(match_id);
	`)
	return err
}

// Write stores a batch of events in one transaction
func (o *PostgresOutbox) Write(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO match_events (routing_key, match_id, payload, created_at) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, e.RoutingKey, e.MatchID.String(), string(e.Payload), e.CreatedAt); err != nil {
			return fmt.Errorf("insert %s: %w", e.RoutingKey, err)
		}
	}
	return tx.Commit()
}

// Recent returns the newest events first
func (o *PostgresOutbox) Recent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := o.db.QueryContext(ctx, `
		SELECT routing_key, match_id, payload, created_at FROM match_events
		ORDER BY id DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var matchID, payload string
		if err := rows.Scan(&e.RoutingKey, &matchID, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.MatchID, _ = uuid.Parse(matchID)
		e.Payload = []byte(payload)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the connection pool
func (o *PostgresOutbox) Close() error {
	return o.db.Close()
}
