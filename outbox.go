package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

//go:generate go tool mockgen -destination=mock_outbox_test.go -package=main . Outbox

// Event is one lifecycle notification waiting for delivery
type Event struct {
	RoutingKey string
	MatchID    uuid.UUID
	Payload    []byte // JSON body
	CreatedAt  time.Time
}

// Outbox stores lifecycle events for external delivery
type Outbox interface {
	Write(ctx context.Context, events []Event) error
	Close() error
}

// eventReader is implemented by outboxes that can list stored events
type eventReader interface {
	Recent(ctx context.Context, limit int) ([]Event, error)
}

// OpenOutbox picks the backend named by cfg.DBType
func OpenOutbox(cfg Config, logger *slog.Logger) (Outbox, error) {
	switch cfg.DBType {
	case "sqlite":
		return OpenSQLiteOutbox(cfg.DBPath)
	case "postgres":
		return OpenPostgresOutbox(cfg.DBURL)
	case "none":
		return &logOutbox{log: logger}, nil
	}
	return nil, fmt.Errorf("unknown outbox backend %q", cfg.DBType)
}

// logOutbox only logs events, for runs without a database
type logOutbox struct {
	log *slog.Logger
}

func (o *logOutbox) Write(ctx context.Context, events []Event) error {
	for _, e := range events {
		o.log.InfoContext(ctx, "lifecycle event",
			"routing_key", e.RoutingKey,
			"match_id", e.MatchID,
			"payload", string(e.Payload))
	}
	return nil
}

func (o *logOutbox) Close() error { return nil }
