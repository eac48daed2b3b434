package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSQLiteOutboxWriteAndRecent(t *testing.T) {
	o, err := OpenSQLiteOutbox(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer o.Close()

	ctx := context.Background()
	matchID := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{RoutingKey: RouteMatchStarted, MatchID: matchID, Payload: []byte(`{"player_count":2}`), CreatedAt: now},
		{RoutingKey: RouteMatchEnded, MatchID: matchID, Payload: []byte(`{"survivors":[]}`), CreatedAt: now.Add(time.Minute)},
	}
	if err := o.Write(ctx, events); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := o.Write(ctx, nil); err != nil {
		t.Fatalf("empty write: %v", err)
	}

	got, err := o.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].RoutingKey != RouteMatchEnded {
		t.Errorf("newest event should come first, got %s", got[0].RoutingKey)
	}
	if got[1].MatchID != matchID || string(got[1].Payload) != `{"player_count":2}` {
		t.Errorf("unexpected stored event %+v", got[1])
	}
	if !got[1].CreatedAt.Equal(now) {
		t.Errorf("expected created_at %s, got %s", now, got[1].CreatedAt)
	}

	limited, err := o.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestSQLiteOutboxReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	o, err := OpenSQLiteOutbox(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := o.Write(context.Background(), []Event{{RoutingKey: RouteMatchStarted, MatchID: uuid.New(), Payload: []byte(`{}`), CreatedAt: time.Now()}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	o.Close()

	o, err = OpenSQLiteOutbox(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer o.Close()
	got, err := o.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected events to survive reopen, got %d", len(got))
	}
}

func TestOpenOutboxBackends(t *testing.T) {
	o, err := OpenOutbox(Config{DBType: "none"}, discardLogger())
	if err != nil {
		t.Fatalf("none backend: %v", err)
	}
	if err := o.Write(context.Background(), []Event{{RoutingKey: RouteMatchStarted}}); err != nil {
		t.Errorf("log outbox write: %v", err)
	}
	if _, ok := o.(eventReader); ok {
		t.Error("log outbox should not list events")
	}

	if _, err := OpenOutbox(Config{DBType: "redis"}, discardLogger()); err == nil {
		t.Error("expected an error for an unknown backend")
	}
}
