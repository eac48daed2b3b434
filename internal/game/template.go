package game

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	DefaultVariationPercentage = 0.25
	DefaultRaidDurationSeconds = 300
)

// LootTier ranks a zone by risk and reward
type LootTier uint8

const (
	Common LootTier = iota
	Uncommon
	Rare
)

func (t LootTier) String() string {
	switch t {
	case Common:
		return "Common"
	case Uncommon:
		return "Uncommon"
	case Rare:
		return "Rare"
	default:
		return fmt.Sprintf("LootTier(%d)", uint8(t))
	}
}

// MarshalText encodes the tier by name
func (t LootTier) MarshalText() ([]byte, error) {
	if t > Rare {
		return nil, fmt.Errorf("invalid loot tier %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name
func (t *LootTier) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Common":
		*t = Common
	case "Uncommon":
		*t = Uncommon
	case "Rare":
		*t = Rare
	default:
		return fmt.Errorf("unknown loot tier %q", b)
	}
	return nil
}

// Zone is a named area of the map with a loot tier
type Zone struct {
	ID       string     `json:"id"`
	LootTier LootTier   `json:"loot_tier"`
	Area     []Position `json:"area"`
}

// MapTemplate describes a map layout and its procedural variation
type MapTemplate struct {
	Name                string     `json:"name"`
	Width               uint32     `json:"width"`
	Height              uint32     `json:"height"`
	Walls               []Position `json:"walls"`
	SpawnPoints         []Position `json:"spawn_points"`
	ExtractionPoints    []Position `json:"extraction_points"`
	LootSpawns          []Position `json:"loot_spawns"`
	Zones               []Zone     `json:"zones"`
	DestructibleZones   []Position `json:"destructible_zones"`
	VariationPercentage float64    `json:"variation_percentage"`
	RaidDurationSeconds uint64     `json:"raid_duration_seconds"`
}

// ParseTemplate decodes a JSON template, fills defaults and validates it
func ParseTemplate(data []byte) (*MapTemplate, error) {
	t := &MapTemplate{
		VariationPercentage: DefaultVariationPercentage,
		RaidDurationSeconds: DefaultRaidDurationSeconds,
	}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("%w: parse: %v", ErrInvalidTemplate, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks dimensions, required points, bounds and variation range
func (t *MapTemplate) Validate() error {
	if t.Width == 0 || t.Height == 0 {
		return fmt.Errorf("%w: map dimensions must be greater than zero", ErrInvalidTemplate)
	}
	if len(t.SpawnPoints) == 0 {
		return fmt.Errorf("%w: template must have at least one spawn point", ErrInvalidTemplate)
	}
	if len(t.ExtractionPoints) == 0 {
		return fmt.Errorf("%w: template must have at least one extraction point", ErrInvalidTemplate)
	}
	lists := [][]Position{t.Walls, t.SpawnPoints, t.ExtractionPoints, t.LootSpawns, t.DestructibleZones}
	for _, pts := range lists {
		for _, p := range pts {
			if p.X >= t.Width || p.Y >= t.Height {
				return fmt.Errorf("%w: point %s is out of bounds", ErrInvalidTemplate, p)
			}
		}
	}
	for _, z := range t.Zones {
		for _, p := range z.Area {
			if p.X >= t.Width || p.Y >= t.Height {
				return fmt.Errorf("%w: zone %s point %s is out of bounds", ErrInvalidTemplate, z.ID, p)
			}
		}
	}
	if math.IsNaN(t.VariationPercentage) || t.VariationPercentage < 0 || t.VariationPercentage > 1 {
		return fmt.Errorf("%w: variation percentage must be between 0.0 and 1.0", ErrInvalidTemplate)
	}
	return nil
}

// RaidDurationMs returns the template's raid length in milliseconds
func (t *MapTemplate) RaidDurationMs() uint64 {
	return t.RaidDurationSeconds * 1000
}

// DestructibleCount is the number of candidate cells filled per generation
func (t *MapTemplate) DestructibleCount() int {
	return int(math.Round(float64(len(t.DestructibleZones)) * t.VariationPercentage))
}

// GenerateGrid builds a grid from the template. A non-nil seed makes the
// layout reproducible; nil draws a fresh seed. The grid is discarded and
// ErrConnectivity returned if any spawn cannot reach any extraction point.
func (t *MapTemplate) GenerateGrid(seed *uint64) (*Grid, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	var s uint64
	if seed != nil {
		s = *seed
	} else {
		s = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))

	grid := NewGrid(t.Width, t.Height)
	for _, p := range t.Walls {
		grid.SetTileAt(p.X, p.Y, Wall)
	}
	for _, p := range t.ExtractionPoints {
		grid.SetTileAt(p.X, p.Y, Extraction)
	}
	for _, p := range t.LootSpawns {
		grid.SetTileAt(p.X, p.Y, Loot)
	}

	candidates := append([]Position(nil), t.DestructibleZones...)
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	for _, p := range candidates[:t.DestructibleCount()] {
		grid.SetTileAt(p.X, p.Y, Destructible)
	}

	if err := t.validateConnectivity(grid); err != nil {
		return nil, err
	}
	return grid, nil
}

func (t *MapTemplate) validateConnectivity(g *Grid) error {
	for _, s := range t.SpawnPoints {
		for _, e := range t.ExtractionPoints {
			if !g.hasPath(s, e) {
				return fmt.Errorf("%w: spawn %s cannot reach extract %s", ErrConnectivity, s, e)
			}
		}
	}
	return nil
}
