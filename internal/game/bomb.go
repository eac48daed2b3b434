package game

import "github.com/google/uuid"

// Bomb is an armed explosive on the grid
type Bomb struct {
	ID             uuid.UUID
	Position       Position
	OwnerID        uuid.UUID
	TicksRemaining uint32
	Range          uint32
}

// NewBomb creates an armed bomb with a fresh id
func NewBomb(owner uuid.UUID, pos Position, fuseTicks, blastRange uint32) *Bomb {
	return &Bomb{
		ID:             uuid.New(),
		Position:       pos,
		OwnerID:        owner,
		TicksRemaining: fuseTicks,
		Range:          blastRange,
	}
}

// TimerMs converts the remaining fuse to milliseconds
func (b *Bomb) TimerMs(tickRateMs uint64) uint64 {
	return uint64(b.TicksRemaining) * tickRateMs
}

// Blast is the footprint of one detonation
type Blast struct {
	// Tiles starts with the bomb's own position
	Tiles     []Position
	Destroyed []Position
}

// Contains reports whether p lies in the blast
func (b Blast) Contains(p Position) bool {
	for _, t := range b.Tiles {
		if t == p {
			return true
		}
	}
	return false
}

// CalculateBlast computes a cross-shaped blast of the given range.
// Each ray stops before a Wall, and stops after including the first
// Destructible, which is also reported in Destroyed.
func CalculateBlast(g *Grid, center Position, blastRange uint32) Blast {
	blast := Blast{Tiles: []Position{center}}
	for _, d := range Directions {
		cur := center
		for i := uint32(0); i < blastRange; i++ {
			next, ok := cur.Step(d)
			if !ok {
				break
			}
			tile, ok := g.TileAt(next.X, next.Y)
			if !ok || tile == Wall {
				break
			}
			blast.Tiles = append(blast.Tiles, next)
			if tile == Destructible {
				blast.Destroyed = append(blast.Destroyed, next)
				break
			}
			cur = next
		}
	}
	return blast
}
