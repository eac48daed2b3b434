package game

import (
	"slices"

	"github.com/google/uuid"
)

// DetonationEvent records one bomb going off
type DetonationEvent struct {
	BombID         uuid.UUID
	Position       Position
	BlastTiles     []Position
	DestroyedTiles []Position
}

// DamageEvent records one hit on a player
type DamageEvent struct {
	PlayerID  uuid.UUID
	Damage    int
	NewHealth int
	KillerID  uuid.UUID
}

// DeathEvent records a player dying, at the position they died
type DeathEvent struct {
	PlayerID uuid.UUID
	KillerID uuid.UUID
	Position Position
}

// Outcome summarises a match for lifecycle reporting
type Outcome struct {
	MatchID    uuid.UUID
	DurationMs uint64
	Survivors  []uuid.UUID
}

// Match is the authoritative state of one game. It is not safe for
// concurrent use; a single owner must serialize every call.
type Match struct {
	id          uuid.UUID
	tick        uint64
	grid        *Grid
	cfg         MatchConfig
	remainingMs uint64
	active      bool

	// players and bombs keep insertion order so ticks are reproducible
	players []*Player
	bombs   []*Bomb

	detonations []DetonationEvent
	damage      []DamageEvent
	deaths      []DeathEvent
}

// NewMatch starts an active match on grid. The match takes ownership of grid.
func NewMatch(id uuid.UUID, grid *Grid, cfg MatchConfig) *Match {
	return &Match{
		id:          id,
		grid:        grid,
		cfg:         cfg,
		remainingMs: cfg.DurationMs,
		active:      true,
	}
}

// ID returns the match id
func (m *Match) ID() uuid.UUID { return m.id }

// CurrentTick returns the number of ticks processed
func (m *Match) CurrentTick() uint64 { return m.tick }

// Config returns the rules the match was created with
func (m *Match) Config() MatchConfig { return m.cfg }

// RemainingMs returns the time left on the match clock
func (m *Match) RemainingMs() uint64 { return m.remainingMs }

// IsActive reports whether the match clock is still running
func (m *Match) IsActive() bool { return m.active }

// PlayerCount returns the number of players in the match, dead or alive
func (m *Match) PlayerCount() int { return len(m.players) }

// TileAt reads one tile of the match grid
func (m *Match) TileAt(x, y uint32) (Tile, bool) { return m.grid.TileAt(x, y) }

// GridSnapshot returns a copy of the grid
func (m *Match) GridSnapshot() *Grid { return m.grid.Clone() }

// End stops the match. Later ticks are no-ops.
func (m *Match) End() {
	m.active = false
}

func (m *Match) findPlayer(id uuid.UUID) *Player {
	for _, p := range m.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (m *Match) bombAt(pos Position) bool {
	for _, b := range m.bombs {
		if b.Position == pos {
			return true
		}
	}
	return false
}

// AddPlayer spawns a new player at spawn
func (m *Match) AddPlayer(id uuid.UUID, spawn Position) error {
	if m.findPlayer(id) != nil {
		return ErrDuplicatePlayer
	}
	if !m.grid.IsWalkable(spawn.X, spawn.Y) {
		return ErrInvalidSpawn
	}
	m.players = append(m.players, NewPlayer(id, spawn, m.cfg.StartingHealth, m.cfg.StartingBombs))
	return nil
}

// RemovePlayer drops a player and returns its final state
func (m *Match) RemovePlayer(id uuid.UUID) (Player, bool) {
	i := slices.IndexFunc(m.players, func(p *Player) bool { return p.ID == id })
	if i < 0 {
		return Player{}, false
	}
	p := *m.players[i]
	m.players = slices.Delete(m.players, i, i+1)
	return p, true
}

// Player returns a copy of one player's state
func (m *Match) Player(id uuid.UUID) (Player, bool) {
	p := m.findPlayer(id)
	if p == nil {
		return Player{}, false
	}
	return *p, true
}

// Players returns copies of all players in join order
func (m *Match) Players() []Player {
	out := make([]Player, len(m.players))
	for i, p := range m.players {
		out[i] = *p
	}
	return out
}

// Bombs returns copies of all armed bombs in placement order
func (m *Match) Bombs() []Bomb {
	out := make([]Bomb, len(m.bombs))
	for i, b := range m.bombs {
		out[i] = *b
	}
	return out
}

// AlivePlayerCount counts players still alive
func (m *Match) AlivePlayerCount() int {
	n := 0
	for _, p := range m.players {
		if p.Alive {
			n++
		}
	}
	return n
}

// ProcessMove moves a player one tile. The sequence is committed only
// when the move succeeds; on failure the unchanged position is returned.
func (m *Match) ProcessMove(id uuid.UUID, d Direction, sequence uint64) (Position, error) {
	p := m.findPlayer(id)
	if p == nil {
		return Position{}, ErrPlayerNotFound
	}
	pos, err := p.TryMove(d, m.grid)
	if err != nil {
		return pos, err
	}
	p.LastProcessedSequence = sequence
	return pos, nil
}

// PlaceBomb arms a bomb on the player's tile
func (m *Match) PlaceBomb(id uuid.UUID, sequence uint64) (Bomb, error) {
	p := m.findPlayer(id)
	if p == nil {
		return Bomb{}, ErrPlayerNotFound
	}
	if err := p.bombCheck(m.tick, m.cfg.BombCooldownTicks); err != nil {
		return Bomb{}, err
	}
	if m.bombAt(p.Position) {
		return Bomb{}, ErrTileOccupied
	}
	if err := p.PlaceBomb(m.tick); err != nil {
		return Bomb{}, err
	}
	b := NewBomb(p.ID, p.Position, m.cfg.BombFuseTicks, m.cfg.BombRange)
	m.bombs = append(m.bombs, b)
	p.LastProcessedSequence = sequence
	return *b, nil
}

// Tick advances the match by one step. It is a no-op once the match ended.
func (m *Match) Tick() {
	if !m.active {
		return
	}
	m.tick++
	m.detonations = m.detonations[:0]
	m.damage = m.damage[:0]
	m.deaths = m.deaths[:0]

	if m.remainingMs > m.cfg.TickRateMs {
		m.remainingMs -= m.cfg.TickRateMs
	} else {
		m.remainingMs = 0
		m.active = false
	}

	m.updateBombs()
}

// updateBombs burns every fuse and resolves this tick's detonation batch.
// Bombs caught in a blast are set to detonate on the next tick.
func (m *Match) updateBombs() {
	var batch []*Bomb
	for _, b := range m.bombs {
		if b.TicksRemaining > 0 {
			b.TicksRemaining--
		}
		if b.TicksRemaining == 0 {
			batch = append(batch, b)
		}
	}
	if len(batch) == 0 {
		return
	}

	blasts := make([]Blast, len(batch))
	for i, b := range batch {
		blasts[i] = CalculateBlast(m.grid, b.Position, b.Range)
		for _, p := range blasts[i].Destroyed {
			m.grid.SetTileAt(p.X, p.Y, Floor)
		}
	}

	for i, b := range batch {
		for _, p := range m.players {
			if !p.Alive || !blasts[i].Contains(p.Position) {
				continue
			}
			died := p.TakeDamage(m.cfg.BombDamage)
			m.damage = append(m.damage, DamageEvent{
				PlayerID:  p.ID,
				Damage:    m.cfg.BombDamage,
				NewHealth: p.Health,
				KillerID:  b.OwnerID,
			})
			if died {
				m.deaths = append(m.deaths, DeathEvent{
					PlayerID: p.ID,
					KillerID: b.OwnerID,
					Position: p.Position,
				})
			}
		}
	}

	for _, other := range m.bombs {
		if other.TicksRemaining == 0 {
			continue
		}
		for i := range blasts {
			if blasts[i].Contains(other.Position) {
				other.TicksRemaining = 0
				break
			}
		}
	}

	m.bombs = slices.DeleteFunc(m.bombs, func(b *Bomb) bool { return slices.Contains(batch, b) })
	for i, b := range batch {
		if owner := m.findPlayer(b.OwnerID); owner != nil {
			owner.RefundBomb()
		}
		m.detonations = append(m.detonations, DetonationEvent{
			BombID:         b.ID,
			Position:       b.Position,
			BlastTiles:     blasts[i].Tiles,
			DestroyedTiles: blasts[i].Destroyed,
		})
	}
}

// Detonations returns this tick's detonation events
func (m *Match) Detonations() []DetonationEvent {
	return slices.Clone(m.detonations)
}

// DamageEvents returns this tick's damage events in application order
func (m *Match) DamageEvents() []DamageEvent {
	return slices.Clone(m.damage)
}

// DeathEvents returns this tick's death events
func (m *Match) DeathEvents() []DeathEvent {
	return slices.Clone(m.deaths)
}

// Outcome reports elapsed simulated time and the surviving players
func (m *Match) Outcome() Outcome {
	o := Outcome{MatchID: m.id, DurationMs: m.tick * m.cfg.TickRateMs}
	for _, p := range m.players {
		if p.Alive {
			o.Survivors = append(o.Survivors, p.ID)
		}
	}
	return o
}
