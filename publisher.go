package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Routing keys for match lifecycle events
const (
	RouteMatchStarted = "match.started"
	RouteMatchEnded   = "match.ended"
)

const (
	publishQueueSize  = 1024
	publishBatchSize  = 50
	publishFlushEvery = 5 * time.Second
	publishWriteWait  = 10 * time.Second
)

// MatchStartedEvent is published when the first tick runs
type MatchStartedEvent struct {
	MatchID     uuid.UUID `json:"match_id"`
	PlayerCount int       `json:"player_count"`
	MapName     string    `json:"map_name"`
	Timestamp   int64     `json:"timestamp"`
}

// MatchEndedEvent is published once when the match stops
type MatchEndedEvent struct {
	MatchID    uuid.UUID   `json:"match_id"`
	DurationMs uint64      `json:"duration_ms"`
	Survivors  []uuid.UUID `json:"survivors"`
	Timestamp  int64       `json:"timestamp"`
}

// LifecycleSink receives match lifecycle notifications. Calls must not block.
type LifecycleSink interface {
	MatchStarted(MatchStartedEvent)
	MatchEnded(MatchEndedEvent)
}

// Publisher batches lifecycle events into an Outbox from a background writer
type Publisher struct {
	outbox  Outbox
	log     *slog.Logger
	events  chan Event
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
	dropped atomic.Int64
}

// NewPublisher creates and starts the background writer
func NewPublisher(outbox Outbox, logger *slog.Logger) *Publisher {
	p := &Publisher{
		outbox: outbox,
		log:    logger,
		events: make(chan Event, publishQueueSize),
		stop:   make(chan struct{}),
	}
	p.wg.Add(1)
	go p.writer()
	return p
}

// MatchStarted enqueues a match.started event
func (p *Publisher) MatchStarted(e MatchStartedEvent) {
	p.track(RouteMatchStarted, e.MatchID, e)
}

// MatchEnded enqueues a match.ended event
func (p *Publisher) MatchEnded(e MatchEndedEvent) {
	if e.Survivors == nil {
		e.Survivors = []uuid.UUID{}
	}
	p.track(RouteMatchEnded, e.MatchID, e)
}

// Dropped returns how many events were discarded on a full queue
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// track enqueues an event for async persistence (non-blocking)
func (p *Publisher) track(key string, matchID uuid.UUID, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		p.log.Error("encode lifecycle event", "routing_key", key, "err", err)
		return
	}
	select {
	case p.events <- Event{RoutingKey: key, MatchID: matchID, Payload: payload, CreatedAt: time.Now().UTC()}:
	default:
		p.dropped.Add(1)
		p.log.Warn("lifecycle queue full, dropping event", "routing_key", key, "match_id", matchID)
	}
}

// Stop flushes queued events and waits for the writer to exit
func (p *Publisher) Stop() {
	p.once.Do(func() { close(p.stop) })
	p.wg.Wait()
}

func (p *Publisher) writer() {
	defer p.wg.Done()

	batch := make([]Event, 0, 64)
	ticker := time.NewTicker(publishFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case evt := <-p.events:
			batch = append(batch, evt)
			if len(batch) >= publishBatchSize {
				p.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				p.flush(batch)
				batch = batch[:0]
			}
		case <-p.stop:
		drain:
			for {
				select {
				case evt := <-p.events:
					batch = append(batch, evt)
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				p.flush(batch)
			}
			return
		}
	}
}

func (p *Publisher) flush(events []Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishWriteWait)
	defer cancel()
	if err := p.outbox.Write(ctx, events); err != nil {
		p.log.Error("outbox write failed", "events", len(events), "err", err)
		return
	}
	p.log.Debug("outbox flushed", "events", len(events))
}
