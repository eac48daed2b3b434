package main

import (
	"flag"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"thermite-server/internal/game"
)

// Config is the server configuration, read from flags with env fallbacks
type Config struct {
	Addr      string
	PublicURL string
	MapDir    string
	MapID     string
	// Seed is nil when the map layout should be random
	Seed     *uint64
	Match    game.MatchConfig
	DBType   string
	DBPath   string
	DBURL    string
	LogLevel slog.Level
}

// LoadConfig parses args (without the program name) over env defaults
func LoadConfig(args []string) (Config, error) {
	var cfg Config
	def := game.DefaultConfig()

	durationMs, err := getEnvUint("MATCH_DURATION_MS", def.DurationMs)
	if err != nil {
		return cfg, err
	}
	tickMs, err := getEnvUint("TICK_RATE_MS", def.TickRateMs)
	if err != nil {
		return cfg, err
	}
	lobbyMs, err := getEnvUint("LOBBY_DURATION_MS", def.LobbyDurationMs)
	if err != nil {
		return cfg, err
	}
	fuse, err := getEnvUint("BOMB_FUSE_TICKS", uint64(def.BombFuseTicks))
	if err != nil {
		return cfg, err
	}
	blastRange, err := getEnvUint("BOMB_RANGE", uint64(def.BombRange))
	if err != nil {
		return cfg, err
	}
	cooldown, err := getEnvUint("BOMB_COOLDOWN_TICKS", def.BombCooldownTicks)
	if err != nil {
		return cfg, err
	}
	damage, err := getEnvUint("BOMB_DAMAGE", uint64(def.BombDamage))
	if err != nil {
		return cfg, err
	}
	health, err := getEnvUint("STARTING_HEALTH", uint64(def.StartingHealth))
	if err != nil {
		return cfg, err
	}
	bombs, err := getEnvUint("STARTING_BOMBS", uint64(def.StartingBombs))
	if err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("thermite-server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", GetEnvDefault("ADDR", ":8080"), "HTTP listen address")
	fs.StringVar(&cfg.PublicURL, "public-url", GetEnvDefault("PUBLIC_URL", ""), "Externally reachable base URL for the join QR code")
	fs.StringVar(&cfg.MapDir, "maps", GetEnvDefault("MAP_DIR", ""), "Directory of JSON map templates (empty: built-in maps)")
	fs.StringVar(&cfg.MapID, "map", GetEnvDefault("MAP_ID", "factory_01"), "Map template id")
	seed := fs.String("seed", GetEnvDefault("MAP_SEED", ""), "Map generation seed (empty: random)")
	fs.Uint64Var(&cfg.Match.DurationMs, "duration-ms", durationMs, "Match duration in milliseconds")
	fs.Uint64Var(&cfg.Match.TickRateMs, "tick-ms", tickMs, "Tick interval in milliseconds")
	fs.Uint64Var(&cfg.Match.LobbyDurationMs, "lobby-ms", lobbyMs, "Lobby countdown before the first tick")
	fs.StringVar(&cfg.DBType, "db", GetEnvDefault("DB_TYPE", "sqlite"), "Event outbox backend: sqlite, postgres or none")
	fs.StringVar(&cfg.DBPath, "db-path", GetEnvDefault("DB_PATH", "thermite.db"), "SQLite database path")
	fs.StringVar(&cfg.DBURL, "db-url", GetEnvDefault("DATABASE_URL", ""), "PostgreSQL connection string")
	level := fs.String("log-level", GetEnvDefault("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	cfg.Match.BombFuseTicks = uint32(fuse)
	cfg.Match.BombRange = uint32(blastRange)
	cfg.Match.BombCooldownTicks = cooldown
	cfg.Match.BombDamage = int(damage)
	cfg.Match.StartingHealth = int(health)
	cfg.Match.StartingBombs = int(bombs)

	if *seed != "" {
		s, err := strconv.ParseUint(*seed, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("seed: %w", err)
		}
		cfg.Seed = &s
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(*level)); err != nil {
		return cfg, fmt.Errorf("log level: %w", err)
	}
	cfg.DBType = strings.ToLower(cfg.DBType)
	switch cfg.DBType {
	case "sqlite", "postgres", "none":
	default:
		return cfg, fmt.Errorf("unknown DB_TYPE %q", cfg.DBType)
	}
	if cfg.DBType == "postgres" && cfg.DBURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required for postgres")
	}
	if err := cfg.Match.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
