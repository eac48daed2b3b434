package game

import "github.com/google/uuid"

// Player is one participant in a match
type Player struct {
	ID                    uuid.UUID
	Position              Position
	Health                int
	MaxHealth             int
	Alive                 bool
	LastProcessedSequence uint64
	BombsRemaining        int
	// LastBombTick is 0 until the first placement
	LastBombTick uint64
}

// NewPlayer creates a live player at the spawn position
func NewPlayer(id uuid.UUID, spawn Position, health, bombs int) *Player {
	return &Player{
		ID:             id,
		Position:       spawn,
		Health:         health,
		MaxHealth:      health,
		Alive:          true,
		BombsRemaining: bombs,
	}
}

func (p *Player) destination(d Direction, g *Grid) (Position, error) {
	if !p.Alive {
		return p.Position, ErrPlayerDead
	}
	next, ok := p.Position.Step(d)
	if !ok || !g.InBounds(next.X, next.Y) {
		return p.Position, ErrOutOfBounds
	}
	if !g.IsWalkable(next.X, next.Y) {
		return p.Position, ErrTileBlocked
	}
	return next, nil
}

// CanMove reports whether TryMove would succeed, without moving
func (p *Player) CanMove(d Direction, g *Grid) bool {
	_, err := p.destination(d, g)
	return err == nil
}

// TryMove moves one tile in direction d. On failure the position is
// unchanged and returned alongside the error.
func (p *Player) TryMove(d Direction, g *Grid) (Position, error) {
	next, err := p.destination(d, g)
	if err != nil {
		return p.Position, err
	}
	p.Position = next
	return next, nil
}

// TakeDamage subtracts health and returns true if this hit killed the player.
// Dead players are unaffected.
func (p *Player) TakeDamage(amount int) (died bool) {
	if !p.Alive || amount <= 0 {
		return false
	}
	p.Health -= amount
	if p.Health <= 0 {
		p.Health = 0
		p.Alive = false
		return true
	}
	return false
}

// CanPlaceBomb checks liveness, inventory and cooldown
func (p *Player) CanPlaceBomb(currentTick, cooldownTicks uint64) bool {
	return p.bombCheck(currentTick, cooldownTicks) == nil
}

func (p *Player) bombCheck(currentTick, cooldownTicks uint64) error {
	if !p.Alive {
		return ErrPlayerDead
	}
	if p.BombsRemaining <= 0 {
		return ErrNoBombsRemaining
	}
	if p.LastBombTick == 0 {
		return nil
	}
	var since uint64
	if currentTick > p.LastBombTick {
		since = currentTick - p.LastBombTick
	}
	if since < cooldownTicks {
		return ErrCooldownNotElapsed
	}
	return nil
}

// PlaceBomb spends one bomb and records the placement tick.
// Cooldown is enforced by the match, not here.
func (p *Player) PlaceBomb(currentTick uint64) error {
	if !p.Alive {
		return ErrPlayerDead
	}
	if p.BombsRemaining <= 0 {
		return ErrNoBombsRemaining
	}
	p.BombsRemaining--
	p.LastBombTick = currentTick
	return nil
}

// RefundBomb returns a detonated bomb to the inventory
func (p *Player) RefundBomb() {
	p.BombsRemaining++
}
