package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tg-gift-roulette/gamble"
)

func env(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"BOT_TOKEN": "123:abc",
		"ADMIN_ID":  "42",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}

	if cfg.AdminID != 42 || cfg.AdminIDString() != "42" {
		t.Errorf("AdminID = %d", cfg.AdminID)
	}
	if cfg.MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d, want 2", cfg.MaxAttempts)
	}
	if cfg.StoreBackend != BackendFile || cfg.DataFile != "user_data.json" {
		t.Errorf("store = %s %s", cfg.StoreBackend, cfg.DataFile)
	}
	if cfg.HTTPAddr != ":8080" || cfg.InitDataTTL != 24*time.Hour {
		t.Errorf("HTTPAddr = %s, InitDataTTL = %s", cfg.HTTPAddr, cfg.InitDataTTL)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"BOT_DISABLED":  "true",
		"ADMIN_ID":      "7",
		"MAX_ATTEMPTS":  "5",
		"STORE_BACKEND": "Redis",
		"REDIS_DB":      "3",
		"INIT_DATA_TTL": "1h",
		"DEBUG":         "true",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.MaxAttempts != 5 || cfg.StoreBackend != BackendRedis || cfg.RedisDB != 3 {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.InitDataTTL != time.Hour || cfg.LogLevel != "DEBUG" {
		t.Errorf("InitDataTTL = %s, LogLevel = %s", cfg.InitDataTTL, cfg.LogLevel)
	}
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"missing admin", map[string]string{"BOT_TOKEN": "t"}},
		{"admin not a number", map[string]string{"BOT_TOKEN": "t", "ADMIN_ID": "abc"}},
		{"admin not positive", map[string]string{"BOT_TOKEN": "t", "ADMIN_ID": "0"}},
		{"missing token", map[string]string{"ADMIN_ID": "1"}},
		{"zero attempts", map[string]string{"BOT_TOKEN": "t", "ADMIN_ID": "1", "MAX_ATTEMPTS": "0"}},
		{"bad attempts", map[string]string{"BOT_TOKEN": "t", "ADMIN_ID": "1", "MAX_ATTEMPTS": "two"}},
		{"unknown backend", map[string]string{"BOT_TOKEN": "t", "ADMIN_ID": "1", "STORE_BACKEND": "mongo"}},
		{"bad ttl", map[string]string{"BOT_TOKEN": "t", "ADMIN_ID": "1", "INIT_DATA_TTL": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromEnv(env(tt.vars)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadPrizeConfigDefaults(t *testing.T) {
	cfg, err := LoadPrizeConfig("")
	if err != nil {
		t.Fatalf("LoadPrizeConfig: %v", err)
	}
	if len(cfg.Prizes) != len(gamble.DefaultCatalog) || len(cfg.Tiers) != len(gamble.DefaultTiers) {
		t.Errorf("got %d prizes, %d tiers", len(cfg.Prizes), len(cfg.Tiers))
	}
	if _, err := cfg.Table(); err != nil {
		t.Errorf("default table invalid: %v", err)
	}
}

func TestLoadPrizeConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prizes.toml")
	content := `
[[prizes]]
name = "Мишка"
star_price = 15
img = "/images/bear.png"

[[tiers]]
star_price = 15
percent = 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadPrizeConfig(path)
	if err != nil {
		t.Fatalf("LoadPrizeConfig: %v", err)
	}
	if len(cfg.Prizes) != 1 || cfg.Prizes[0].Name != "Мишка" || cfg.Prizes[0].StarPrice != 15 {
		t.Errorf("prizes = %+v", cfg.Prizes)
	}
	table, err := cfg.Table()
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if table.EmptyChance() != 50 {
		t.Errorf("EmptyChance = %d, want 50", table.EmptyChance())
	}
}

func TestPrizeConfigInconsistentTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prizes.toml")
	content := `
[[tiers]]
star_price = 99
percent = 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadPrizeConfig(path)
	if err != nil {
		t.Fatalf("LoadPrizeConfig: %v", err)
	}
	if _, err := cfg.Table(); !errors.Is(err, gamble.ErrInvalidTable) {
		t.Errorf("got %v, want ErrInvalidTable", err)
	}
}
