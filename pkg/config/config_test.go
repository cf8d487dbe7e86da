package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.StoreDriver != DriverPostgres {
		t.Errorf("unexpected defaults: port=%s driver=%s", cfg.Port, cfg.StoreDriver)
	}
	if cfg.ContestDailySpots != 100 || cfg.ContestWinProbability != 0.10 {
		t.Errorf("contest defaults = %d / %v", cfg.ContestDailySpots, cfg.ContestWinProbability)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("shutdown timeout = %s", cfg.ShutdownTimeout)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("location = %v, %v; want UTC", loc, err)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.yaml")
	body := `
port: "9090"
store_driver: mongo
mongodb_database: promo
jwt_secret: from-file
contest_daily_spots: 50
contest_win_probability: 0.25
shutdown_timeout: 10s
cors_allowed_origins:
  - https://shop.example.com
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LEDGER_CONFIG", path)
	t.Setenv("PORT", "7070")
	t.Setenv("CONTEST_DAILY_SPOTS", "20")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Errorf("port = %s, want env override 7070", cfg.Port)
	}
	if cfg.StoreDriver != DriverMongo || cfg.MongoDatabase != "promo" || cfg.JWTSecret != "from-file" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.ContestDailySpots != 20 {
		t.Errorf("spots = %d, want 20", cfg.ContestDailySpots)
	}
	if cfg.ContestWinProbability != 0.25 || cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("probability/timeout = %v / %s", cfg.ContestWinProbability, cfg.ShutdownTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("origins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CONTEST_WIN_PROBABILITY", "often")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparsable probability")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.StoreDriver = "sqlite" }},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }},
		{"zero spots", func(c *Config) { c.ContestDailySpots = 0 }},
		{"probability above one", func(c *Config) { c.ContestWinProbability = 1.5 }},
		{"negative probability", func(c *Config) { c.ContestWinProbability = -0.1 }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus_Mons" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.JWTSecret = "s3cret"
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	cfg := Default()
	cfg.JWTSecret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config with secret should be valid: %v", err)
	}
}
