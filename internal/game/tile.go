package game

import "fmt"

// Tile is the contents of one grid cell
type Tile uint8

const (
	Floor Tile = iota
	Wall
	Destructible
	Loot
	Extraction
)

// IsWalkable reports whether a player may stand on the tile
func (t Tile) IsWalkable() bool {
	switch t {
	case Floor, Loot, Extraction:
		return true
	default:
		return false
	}
}

// BlocksMovement is the negation of IsWalkable
func (t Tile) BlocksMovement() bool {
	return !t.IsWalkable()
}

func (t Tile) String() string {
	switch t {
	case Floor:
		return "Floor"
	case Wall:
		return "Wall"
	case Destructible:
		return "Destructible"
	case Loot:
		return "Loot"
	case Extraction:
		return "Extraction"
	default:
		return fmt.Sprintf("Tile(%d)", uint8(t))
	}
}
