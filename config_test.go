package main

import (
	"log/slog"
	"testing"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ADDR", "PUBLIC_URL", "MAP_DIR", "MAP_ID", "MAP_SEED", "DB_TYPE", "DB_PATH", "DATABASE_URL", "LOG_LEVEL",
		"MATCH_DURATION_MS", "TICK_RATE_MS", "LOBBY_DURATION_MS", "BOMB_FUSE_TICKS", "BOMB_RANGE",
		"BOMB_COOLDOWN_TICKS", "BOMB_DAMAGE", "STARTING_HEALTH", "STARTING_BOMBS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.MapID != "factory_01" || cfg.DBType != "sqlite" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Seed != nil {
		t.Errorf("seed should be random by default, got %d", *cfg.Seed)
	}
	if cfg.Match.TickRateMs != 50 || cfg.Match.BombFuseTicks != 60 || cfg.Match.BombRange != 2 {
		t.Errorf("unexpected match defaults %+v", cfg.Match)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %s", cfg.LogLevel)
	}
}

func TestLoadConfigEnvAndFlags(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("BOMB_RANGE", "4")
	t.Setenv("TICK_RATE_MS", "100")
	t.Setenv("DB_TYPE", "None")

	cfg, err := LoadConfig([]string{"-tick-ms", "25", "-seed", "42", "-map", "arena", "-log-level", "debug"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Match.BombRange != 4 {
		t.Errorf("expected range from env, got %d", cfg.Match.BombRange)
	}
	if cfg.Match.TickRateMs != 25 {
		t.Errorf("flags should override env, got tick %d", cfg.Match.TickRateMs)
	}
	if cfg.Seed == nil || *cfg.Seed != 42 {
		t.Errorf("expected seed 42, got %v", cfg.Seed)
	}
	if cfg.MapID != "arena" || cfg.DBType != "none" || cfg.LogLevel != slog.LevelDebug {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"bad env number", map[string]string{"BOMB_DAMAGE": "lots"}, nil},
		{"bad seed", nil, []string{"-seed", "-1"}},
		{"unknown backend", map[string]string{"DB_TYPE": "mongo"}, nil},
		{"postgres without url", map[string]string{"DB_TYPE": "postgres"}, nil},
		{"zero tick", nil, []string{"-tick-ms", "0"}},
		{"zero fuse", map[string]string{"BOMB_FUSE_TICKS": "0"}, nil},
		{"bad log level", nil, []string{"-log-level", "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(tt.args); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
