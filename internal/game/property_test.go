package game

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"pgregory.net/rapid"
)

var allTiles = []Tile{Floor, Wall, Destructible, Loot, Extraction}

func drawGrid(t *rapid.T) *Grid {
	w := rapid.Uint32Range(1, 12).Draw(t, "width")
	h := rapid.Uint32Range(1, 12).Draw(t, "height")
	g := NewGrid(w, h)
	for y := uint32(0); y < h; y++ {
		for x := uint32(0); x < w; x++ {
			g.SetTileAt(x, y, rapid.SampledFrom(allTiles).Draw(t, "tile"))
		}
	}
	return g
}

func TestPropertyMoveLegality(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := drawGrid(t)
		x := rapid.Uint32Range(0, g.Width()-1).Draw(t, "x")
		y := rapid.Uint32Range(0, g.Height()-1).Draw(t, "y")
		d := rapid.SampledFrom(Directions[:]).Draw(t, "dir")
		alive := rapid.Bool().Draw(t, "alive")

		p := NewPlayer(uuid.New(), Pos(x, y), 100, 1)
		if !alive {
			p.TakeDamage(100)
		}
		dest, stepped := Pos(x, y).Step(d)
		legal := alive && stepped && g.IsWalkable(dest.X, dest.Y)

		if p.CanMove(d, g) != legal {
			t.Fatalf("CanMove disagrees: legal=%v", legal)
		}
		got, err := p.TryMove(d, g)
		if legal {
			if err != nil || got != dest || p.Position != dest {
				t.Fatalf("legal move failed: %v at %s", err, got)
			}
			return
		}
		if err == nil {
			t.Fatal("illegal move succeeded")
		}
		if p.Position != Pos(x, y) || got != Pos(x, y) {
			t.Fatalf("illegal move changed position to %s", p.Position)
		}
		switch {
		case !alive:
			if !errors.Is(err, ErrPlayerDead) {
				t.Fatalf("expected ErrPlayerDead, got %v", err)
			}
		case !stepped || !g.InBounds(dest.X, dest.Y):
			if !errors.Is(err, ErrOutOfBounds) {
				t.Fatalf("expected ErrOutOfBounds, got %v", err)
			}
		default:
			if !errors.Is(err, ErrTileBlocked) {
				t.Fatalf("expected ErrTileBlocked, got %v", err)
			}
		}
	})
}

func TestPropertyDamageMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := NewPlayer(uuid.New(), Pos(0, 0), 100, 1)
		hits := rapid.SliceOf(rapid.IntRange(0, 150)).Draw(t, "hits")
		wasDead := false
		for _, h := range hits {
			before := p.Health
			p.TakeDamage(h)
			if p.Health > before {
				t.Fatalf("health rose from %d to %d", before, p.Health)
			}
			if p.Health < 0 {
				t.Fatalf("health below zero: %d", p.Health)
			}
			if p.Alive != (p.Health > 0) {
				t.Fatalf("alive=%v with health %d", p.Alive, p.Health)
			}
			if wasDead && (p.Alive || p.Health != 0) {
				t.Fatal("a dead player came back")
			}
			wasDead = !p.Alive
		}
	})
}

func TestPropertyBlastShape(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := drawGrid(t)
		cx := rapid.Uint32Range(0, g.Width()-1).Draw(t, "cx")
		cy := rapid.Uint32Range(0, g.Height()-1).Draw(t, "cy")
		r := rapid.Uint32Range(0, 5).Draw(t, "range")
		center := Pos(cx, cy)

		blast := CalculateBlast(g, center, r)
		if blast.Tiles[0] != center {
			t.Fatal("center must be first")
		}
		if len(blast.Tiles) > 1+4*int(r) {
			t.Fatalf("blast has %d tiles for range %d", len(blast.Tiles), r)
		}
		for _, p := range blast.Tiles[1:] {
			if p.X != cx && p.Y != cy {
				t.Fatalf("%s is not on the cross through %s", p, center)
			}
			tile, ok := g.TileAt(p.X, p.Y)
			if !ok || tile == Wall {
				t.Fatalf("blast includes %s tile at %s", tile, p)
			}
		}
		for _, p := range blast.Destroyed {
			if tile, _ := g.TileAt(p.X, p.Y); tile != Destructible {
				t.Fatalf("destroyed %s is %s", p, tile)
			}
			if !blast.Contains(p) {
				t.Fatalf("destroyed %s not in blast", p)
			}
		}
		if len(blast.Destroyed) > 4 {
			t.Fatalf("at most one destructible per ray, got %d", len(blast.Destroyed))
		}
	})
}

func TestPropertyGenerationDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := borderTemplate(14, 14)
		for y := uint32(3); y <= 11; y += 2 {
			for x := uint32(3); x <= 11; x++ {
				m.DestructibleZones = append(m.DestructibleZones, Pos(x, y))
			}
		}
		m.VariationPercentage = rapid.Float64Range(0, 1).Draw(t, "variation")
		s := rapid.Uint64().Draw(t, "seed")

		a, errA := m.GenerateGrid(&s)
		b, errB := m.GenerateGrid(&s)
		if (errA == nil) != (errB == nil) {
			t.Fatalf("same seed gave different results: %v / %v", errA, errB)
		}
		if errA != nil {
			if !errors.Is(errA, ErrConnectivity) {
				t.Fatalf("unexpected error %v", errA)
			}
			return
		}
		if !a.Equal(b) {
			t.Fatal("same seed produced different grids")
		}
		if got := len(a.FindTiles(Destructible)); got != m.DestructibleCount() {
			t.Fatalf("expected %d destructibles, got %d", m.DestructibleCount(), got)
		}
	})
}
