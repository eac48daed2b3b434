package game

import "fmt"

// Position is a grid coordinate: X is the column, Y the row
type Position struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
}

// Pos is shorthand for Position{X: x, Y: y}
func Pos(x, y uint32) Position {
	return Position{X: x, Y: y}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Step returns the adjacent position in direction d.
// It returns false when the step would go below zero on either axis.
// The upper bound is not checked here; callers consult the Grid.
func (p Position) Step(d Direction) (Position, bool) {
	switch d {
	case North:
		if p.Y == 0 {
			return p, false
		}
		return Position{X: p.X, Y: p.Y - 1}, true
	case South:
		return Position{X: p.X, Y: p.Y + 1}, true
	case East:
		return Position{X: p.X + 1, Y: p.Y}, true
	case West:
		if p.X == 0 {
			return p, false
		}
		return Position{X: p.X - 1, Y: p.Y}, true
	default:
		return p, false
	}
}

// Direction is one of the four cardinal directions
type Direction uint8

const (
	North Direction = iota
	South
	East
	West
)

// Directions lists the cardinal directions in blast propagation order
var Directions = [4]Direction{North, South, East, West}

func (d Direction) String() string {
	switch d {
	case North:
		return "North"
	case South:
		return "South"
	case East:
		return "East"
	case West:
		return "West"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// ParseDirection parses the wire name of a direction
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "North":
		return North, nil
	case "South":
		return South, nil
	case "East":
		return East, nil
	case "West":
		return West, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// MarshalText encodes the direction by name
func (d Direction) MarshalText() ([]byte, error) {
	if d > West {
		return nil, fmt.Errorf("invalid direction %d", uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name
func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
