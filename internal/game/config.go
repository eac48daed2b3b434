package game

import "fmt"

// MatchConfig holds the rules for one match
type MatchConfig struct {
	DurationMs        uint64
	TickRateMs        uint64
	LobbyDurationMs   uint64
	BombFuseTicks     uint32
	BombRange         uint32
	BombCooldownTicks uint64
	BombDamage        int
	StartingHealth    int
	StartingBombs     int
}

// DefaultConfig is a five minute match at 20 Hz
func DefaultConfig() MatchConfig {
	return MatchConfig{
		DurationMs:        5 * 60 * 1000,
		TickRateMs:        50,
		LobbyDurationMs:   0,
		BombFuseTicks:     60,
		BombRange:         2,
		BombCooldownTicks: 20,
		BombDamage:        100,
		StartingHealth:    100,
		StartingBombs:     1,
	}
}

// Validate rejects configurations the simulation cannot run
func (c MatchConfig) Validate() error {
	if c.TickRateMs == 0 {
		return fmt.Errorf("tick rate must be positive")
	}
	if c.DurationMs == 0 {
		return fmt.Errorf("match duration must be positive")
	}
	if c.BombFuseTicks == 0 {
		return fmt.Errorf("bomb fuse must be at least one tick")
	}
	if c.StartingHealth <= 0 {
		return fmt.Errorf("starting health must be positive")
	}
	if c.StartingBombs < 0 || c.BombDamage < 0 {
		return fmt.Errorf("bomb inventory and damage must not be negative")
	}
	return nil
}
