package main

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"thermite-server/internal/game"
	"thermite-server/internal/protocol"
)

const commandQueueSize = 256

var (
	// ErrMatchOver is returned to callers once the coordinator has stopped
	ErrMatchOver = errors.New("match is over")

	errMatchNotStarted       = errors.New("match has not started")
	errExtractionUnavailable = errors.New("extraction not available")
)

// Broadcaster receives encoded frames for one connection
type Broadcaster interface {
	SendRaw(data []byte)
}

type commandKind int

const (
	cmdJoin commandKind = iota
	cmdLeave
	cmdMessage
)

type command struct {
	ctx      context.Context
	kind     commandKind
	playerID uuid.UUID
	peer     Broadcaster
	msg      protocol.ClientMessage
	reply    chan joinResult
}

type joinResult struct {
	id  uuid.UUID
	err error
}

// Status is a point-in-time view of the match for health checks
type Status struct {
	MatchID     uuid.UUID `json:"match_id"`
	Map         string    `json:"map"`
	Phase       string    `json:"phase"`
	Tick        uint64    `json:"tick"`
	Players     int       `json:"players"`
	Alive       int       `json:"alive"`
	Bombs       int       `json:"bombs"`
	RemainingMs uint64    `json:"remaining_ms"`
}

// Coordinator owns the match. Only its Run goroutine touches the match,
// so ticks and commands never interleave.
type Coordinator struct {
	match     *game.Match
	mapName   string
	spawns    []game.Position
	nextSpawn int
	started   bool

	peers  map[uuid.UUID]Broadcaster
	cmds   chan command
	done   chan struct{}
	sink   LifecycleSink
	log    *slog.Logger
	status atomic.Pointer[Status]
}

// NewCoordinator prepares a coordinator for match. Call Run to start it.
func NewCoordinator(match *game.Match, mapName string, spawns []game.Position, sink LifecycleSink, logger *slog.Logger) *Coordinator {
	c := &Coordinator{
		match:   match,
		mapName: mapName,
		spawns:  spawns,
		peers:   make(map[uuid.UUID]Broadcaster),
		cmds:    make(chan command, commandQueueSize),
		done:    make(chan struct{}),
		sink:    sink,
		log:     logger.With("match_id", match.ID()),
	}
	c.publishStatus()
	return c
}

// Done is closed when the match has ended and Run returned
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Status returns the latest published status
func (c *Coordinator) Status() Status {
	return *c.status.Load()
}

func (c *Coordinator) send(ctx context.Context, cmd command) error {
	select {
	case <-c.done:
		return ErrMatchOver
	default:
	}
	select {
	case c.cmds <- cmd:
		return nil
	case <-c.done:
		return ErrMatchOver
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Join spawns a new player bound to peer and returns its id.
// The Welcome message is sent to peer before any broadcast.
func (c *Coordinator) Join(ctx context.Context, peer Broadcaster) (uuid.UUID, error) {
	reply := make(chan joinResult, 1)
	if err := c.send(ctx, command{ctx: ctx, kind: cmdJoin, peer: peer, reply: reply}); err != nil {
		return uuid.Nil, err
	}
	select {
	case r := <-reply:
		return r.id, r.err
	case <-c.done:
		return uuid.Nil, ErrMatchOver
	case <-ctx.Done():
		go c.abandonJoin(reply)
		return uuid.Nil, ctx.Err()
	}
}

// abandonJoin removes a player whose join completed after the caller
// stopped waiting for it.
func (c *Coordinator) abandonJoin(reply <-chan joinResult) {
	select {
	case r := <-reply:
		if r.err != nil {
			return
		}
		if err := c.Leave(context.Background(), r.id); err != nil && !errors.Is(err, ErrMatchOver) {
			c.log.Warn("abandoned join not removed", "player_id", r.id, "err", err)
		}
	case <-c.done:
	}
}

// Submit queues a client message for player id
func (c *Coordinator) Submit(ctx context.Context, id uuid.UUID, msg protocol.ClientMessage) error {
	return c.send(ctx, command{kind: cmdMessage, playerID: id, msg: msg})
}

// Leave removes player id and forgets its connection
func (c *Coordinator) Leave(ctx context.Context, id uuid.UUID) error {
	return c.send(ctx, command{kind: cmdLeave, playerID: id})
}

// Run drives the lobby countdown and then the tick loop until the match
// ends or ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	defer close(c.done)

	cfg := c.match.Config()
	if cfg.LobbyDurationMs > 0 {
		if !c.lobby(ctx, time.Duration(cfg.LobbyDurationMs)*time.Millisecond) {
			c.shutdown()
			return nil
		}
	}
	c.start()

	ticker := time.NewTicker(time.Duration(cfg.TickRateMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !c.tick() {
				c.finish(protocol.ReasonTimerExpired)
				return nil
			}
		case cmd := <-c.cmds:
			c.handle(cmd)
		case <-ctx.Done():
			c.shutdown()
			return nil
		}
	}
}

// lobby accepts joins and counts down once per second.
// It returns false if ctx was cancelled first.
func (c *Coordinator) lobby(ctx context.Context, d time.Duration) bool {
	deadline := time.NewTimer(d)
	defer deadline.Stop()
	second := time.NewTicker(time.Second)
	defer second.Stop()

	end := time.Now().Add(d)
	c.countdown(end)
	for {
		select {
		case <-deadline.C:
			return true
		case <-second.C:
			c.countdown(end)
		case cmd := <-c.cmds:
			c.handle(cmd)
		case <-ctx.Done():
			return false
		}
	}
}

func (c *Coordinator) countdown(end time.Time) {
	left := time.Until(end).Round(time.Second)
	if left < 0 {
		left = 0
	}
	c.broadcast(protocol.LobbyCountdown{SecondsRemaining: uint32(left / time.Second)})
}

func (c *Coordinator) start() {
	c.started = true
	c.publishStatus()
	c.log.Info("match started", "map", c.mapName, "players", c.match.PlayerCount())
	c.sink.MatchStarted(MatchStartedEvent{
		MatchID:     c.match.ID(),
		PlayerCount: c.match.PlayerCount(),
		MapName:     c.mapName,
		Timestamp:   time.Now().Unix(),
	})
}

// tick advances the match and broadcasts the tick's events followed by
// the state snapshot. It returns false once the match has ended.
func (c *Coordinator) tick() bool {
	c.match.Tick()

	for _, d := range c.match.Detonations() {
		c.broadcast(protocol.BombDetonation{
			BombID:         d.BombID,
			Position:       d.Position,
			BlastTiles:     d.BlastTiles,
			DestroyedTiles: d.DestroyedTiles,
		})
	}
	for _, d := range c.match.DamageEvents() {
		c.broadcast(protocol.PlayerDamaged{
			PlayerID:     d.PlayerID,
			DamageAmount: d.Damage,
			NewHealth:    d.NewHealth,
			KillerID:     d.KillerID,
		})
	}
	for _, d := range c.match.DeathEvents() {
		c.log.Info("player died", "player_id", d.PlayerID, "killer_id", d.KillerID, "tick", c.match.CurrentTick())
		c.broadcast(protocol.PlayerDied{PlayerID: d.PlayerID, KillerID: d.KillerID, Position: d.Position})
	}
	c.broadcast(c.snapshot())
	c.publishStatus()

	return c.match.IsActive()
}

func (c *Coordinator) snapshot() protocol.StateUpdate {
	return protocol.StateUpdate{
		Tick:            c.match.CurrentTick(),
		Players:         protocol.PlayerStates(c.match.Players()),
		Bombs:           protocol.BombStates(c.match.Bombs(), c.match.Config().TickRateMs),
		TimeRemainingMs: c.match.RemainingMs(),
	}
}

func (c *Coordinator) shutdown() {
	c.match.End()
	c.finish(protocol.ReasonServerShutdown)
}

func (c *Coordinator) finish(reason protocol.MatchEndReason) {
	c.broadcast(protocol.MatchEnded{Reason: reason})
	c.publishStatus()
	o := c.match.Outcome()
	c.log.Info("match ended", "reason", reason, "duration_ms", o.DurationMs, "survivors", len(o.Survivors))
	if !c.started {
		return
	}
	c.sink.MatchEnded(MatchEndedEvent{
		MatchID:    o.MatchID,
		DurationMs: o.DurationMs,
		Survivors:  o.Survivors,
		Timestamp:  time.Now().Unix(),
	})
}

func (c *Coordinator) handle(cmd command) {
	switch cmd.kind {
	case cmdJoin:
		if cmd.ctx != nil && cmd.ctx.Err() != nil {
			cmd.reply <- joinResult{err: cmd.ctx.Err()}
			break
		}
		id, err := c.join(cmd.peer)
		cmd.reply <- joinResult{id: id, err: err}
	case cmdLeave:
		c.leave(cmd.playerID)
	case cmdMessage:
		c.dispatch(cmd.playerID, cmd.msg)
	}
	c.publishStatus()
}

func (c *Coordinator) join(peer Broadcaster) (uuid.UUID, error) {
	spawn, ok := c.pickSpawn()
	if !ok {
		return uuid.Nil, game.ErrInvalidSpawn
	}
	id := uuid.New()
	if err := c.match.AddPlayer(id, spawn); err != nil {
		c.log.Warn("join rejected", "err", err)
		return uuid.Nil, err
	}
	c.peers[id] = peer
	c.unicast(id, protocol.Welcome{PlayerID: id, TickRateMs: c.match.Config().TickRateMs})
	c.log.Info("player joined", "player_id", id, "spawn", spawn.String())
	return id, nil
}

func (c *Coordinator) leave(id uuid.UUID) {
	delete(c.peers, id)
	if _, ok := c.match.RemovePlayer(id); !ok {
		return
	}
	c.log.Info("player left", "player_id", id)
	c.broadcast(protocol.PlayerDisconnected{PlayerID: id})
}

// pickSpawn rotates through the template spawns, preferring free tiles.
// Without usable spawns it falls back to the first Floor tile.
func (c *Coordinator) pickSpawn() (game.Position, bool) {
	taken := make(map[game.Position]bool)
	for _, p := range c.match.Players() {
		taken[p.Position] = true
	}

	var fallback *game.Position
	for i := range c.spawns {
		idx := (c.nextSpawn + i) % len(c.spawns)
		p := c.spawns[idx]
		if tile, ok := c.match.TileAt(p.X, p.Y); !ok || !tile.IsWalkable() {
			continue
		}
		if !taken[p] {
			c.nextSpawn = idx + 1
			return p, true
		}
		if fallback == nil {
			fallback = &p
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	floors := c.match.GridSnapshot().FindTiles(game.Floor)
	if len(floors) == 0 {
		return game.Position{}, false
	}
	return floors[0], true
}

func (c *Coordinator) dispatch(id uuid.UUID, msg protocol.ClientMessage) {
	switch m := msg.(type) {
	case protocol.Move:
		if !c.started {
			c.reject(id, m.Sequence, errMatchNotStarted)
			return
		}
		pos, err := c.match.ProcessMove(id, m.Direction, m.Sequence)
		c.ack(id, m.Sequence, &pos, err)
	case protocol.PlaceBomb:
		if !c.started {
			c.reject(id, m.Sequence, errMatchNotStarted)
			return
		}
		b, err := c.match.PlaceBomb(id, m.Sequence)
		if err != nil {
			c.ack(id, m.Sequence, nil, err)
			return
		}
		c.ack(id, m.Sequence, &b.Position, nil)
	case protocol.Extract:
		c.reject(id, m.Sequence, errExtractionUnavailable)
	case protocol.Ping:
		c.unicast(id, protocol.Pong{Timestamp: m.Timestamp})
	default:
		c.log.Warn("unhandled client message", "player_id", id, "type", msg.Type())
	}
}

func (c *Coordinator) reject(id uuid.UUID, seq uint64, err error) {
	var pos *game.Position
	if p, ok := c.match.Player(id); ok {
		pos = &p.Position
	}
	c.ack(id, seq, pos, err)
}

// ack reports a command result to the sender only. Commands from players
// no longer in the match are dropped.
func (c *Coordinator) ack(id uuid.UUID, seq uint64, pos *game.Position, err error) {
	if errors.Is(err, game.ErrPlayerNotFound) {
		c.log.Debug("command for absent player", "player_id", id, "sequence", seq)
		return
	}
	ack := protocol.CommandAck{Sequence: seq, Success: err == nil, Position: pos}
	if err != nil {
		ack.Error = err.Error()
		c.log.Debug("command rejected", "player_id", id, "sequence", seq, "err", err)
	}
	c.unicast(id, ack)
}

func (c *Coordinator) unicast(id uuid.UUID, msg protocol.ServerMessage) {
	peer, ok := c.peers[id]
	if !ok {
		return
	}
	data, err := protocol.EncodeServer(msg)
	if err != nil {
		c.log.Error("encode message", "type", msg.Type(), "err", err)
		return
	}
	peer.SendRaw(data)
}

// broadcast encodes msg once and queues it on every connection
func (c *Coordinator) broadcast(msg protocol.ServerMessage) {
	if len(c.peers) == 0 {
		return
	}
	data, err := protocol.EncodeServer(msg)
	if err != nil {
		c.log.Error("encode message", "type", msg.Type(), "err", err)
		return
	}
	for _, peer := range c.peers {
		peer.SendRaw(data)
	}
}

func (c *Coordinator) publishStatus() {
	phase := "lobby"
	switch {
	case !c.match.IsActive():
		phase = "ended"
	case c.started:
		phase = "active"
	}
	c.status.Store(&Status{
		MatchID:     c.match.ID(),
		Map:         c.mapName,
		Phase:       phase,
		Tick:        c.match.CurrentTick(),
		Players:     c.match.PlayerCount(),
		Alive:       c.match.AlivePlayerCount(),
		Bombs:       len(c.match.Bombs()),
		RemainingMs: c.match.RemainingMs(),
	})
}
