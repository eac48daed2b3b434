package game

// Grid is a width x height tile map stored row-major.
// Out-of-bounds queries never panic: they report not-walkable or absent.
type Grid struct {
	width  uint32
	height uint32
	tiles  []Tile
}

// NewGrid creates a grid of Floor tiles
func NewGrid(width, height uint32) *Grid {
	return &Grid{
		width:  width,
		height: height,
		tiles:  make([]Tile, int(width)*int(height)),
	}
}

// Width returns the number of columns
func (g *Grid) Width() uint32 { return g.width }

// Height returns the number of rows
func (g *Grid) Height() uint32 { return g.height }

// InBounds reports whether (x, y) lies on the grid
func (g *Grid) InBounds(x, y uint32) bool {
	return x < g.width && y < g.height
}

func (g *Grid) index(x, y uint32) int {
	return int(y)*int(g.width) + int(x)
}

// TileAt returns the tile at (x, y), or false if out of bounds
func (g *Grid) TileAt(x, y uint32) (Tile, bool) {
	if !g.InBounds(x, y) {
		return 0, false
	}
	return g.tiles[g.index(x, y)], true
}

// SetTileAt replaces the tile at (x, y). It returns false if out of bounds.
func (g *Grid) SetTileAt(x, y uint32, t Tile) bool {
	if !g.InBounds(x, y) {
		return false
	}
	g.tiles[g.index(x, y)] = t
	return true
}

// IsWalkable reports whether (x, y) is in bounds and walkable
func (g *Grid) IsWalkable(x, y uint32) bool {
	t, ok := g.TileAt(x, y)
	return ok && t.IsWalkable()
}

// IsOccupied is the negation of IsWalkable, so it is true out of bounds
func (g *Grid) IsOccupied(x, y uint32) bool {
	return !g.IsWalkable(x, y)
}

// Neighbors returns the in-bounds cardinal neighbors of (x, y)
// in North, South, East, West order
func (g *Grid) Neighbors(x, y uint32) []Position {
	out := make([]Position, 0, 4)
	from := Position{X: x, Y: y}
	for _, d := range Directions {
		n, ok := from.Step(d)
		if ok && g.InBounds(n.X, n.Y) {
			out = append(out, n)
		}
	}
	return out
}

// WalkableNeighbors filters Neighbors by walkability
func (g *Grid) WalkableNeighbors(x, y uint32) []Position {
	all := g.Neighbors(x, y)
	out := all[:0]
	for _, n := range all {
		if g.IsWalkable(n.X, n.Y) {
			out = append(out, n)
		}
	}
	return out
}

// FindTiles returns every position holding t, in row-major order
func (g *Grid) FindTiles(t Tile) []Position {
	var out []Position
	for y := uint32(0); y < g.height; y++ {
		for x := uint32(0); x < g.width; x++ {
			if g.tiles[g.index(x, y)] == t {
				out = append(out, Position{X: x, Y: y})
			}
		}
	}
	return out
}

// Equal reports whether both grids have the same size and tiles
func (g *Grid) Equal(o *Grid) bool {
	if g.width != o.width || g.height != o.height {
		return false
	}
	for i := range g.tiles {
		if g.tiles[i] != o.tiles[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy
func (g *Grid) Clone() *Grid {
	c := &Grid{width: g.width, height: g.height, tiles: make([]Tile, len(g.tiles))}
	copy(c.tiles, g.tiles)
	return c
}

// hasPath runs a breadth-first search over walkable tiles
func (g *Grid) hasPath(from, to Position) bool {
	if !g.IsWalkable(from.X, from.Y) || !g.IsWalkable(to.X, to.Y) {
		return false
	}
	visited := make([]bool, len(g.tiles))
	visited[g.index(from.X, from.Y)] = true
	queue := []Position{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			return true
		}
		for _, n := range g.WalkableNeighbors(cur.X, cur.Y) {
			i := g.index(n.X, n.Y)
			if !visited[i] {
				visited[i] = true
				queue = append(queue, n)
			}
		}
	}
	return false
}
