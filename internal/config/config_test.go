package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("default port = %d, want 8080", cfg.Server.Port)
	}
	if !cfg.Simulation.AlwaysOpen {
		t.Fatal("default alwaysOpen should be true")
	}
	if cfg.Live.CacheTTLMS != 5000 {
		t.Fatalf("default live cache TTL = %d, want 5000", cfg.Live.CacheTTLMS)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
simulation:
  seed: 42
  speed: 2
  update_interval_ms: 1000
recorder:
  mongo_uri: mongodb://localhost:27017/ticks
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Simulation.Seed != 42 || cfg.Simulation.Speed != 2 {
		t.Fatalf("simulation section not applied: %+v", cfg.Simulation)
	}
	if cfg.Recorder.MongoURI != "mongodb://localhost:27017/ticks" {
		t.Fatalf("mongo URI = %q", cfg.Recorder.MongoURI)
	}
	// Untouched sections keep their defaults.
	if cfg.Simulation.PriceTickSize != 0.05 {
		t.Fatalf("tick size = %f, want default 0.05", cfg.Simulation.PriceTickSize)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NSESIM_PORT", "7070")
	t.Setenv("NSESIM_SEED", "99")
	t.Setenv("NSESIM_MONGO_URI", "mongodb://db:27017/nsesim")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("port = %d, want env 7070", cfg.Server.Port)
	}
	if cfg.Simulation.Seed != 99 {
		t.Fatalf("seed = %d, want env 99", cfg.Simulation.Seed)
	}
	if cfg.Recorder.MongoURI != "mongodb://db:27017/nsesim" {
		t.Fatalf("mongo URI = %q, want env value", cfg.Recorder.MongoURI)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"speed high", func(c *Config) { c.Simulation.Speed = 11 }},
		{"speed zero", func(c *Config) { c.Simulation.Speed = 0 }},
		{"vol multiplier", func(c *Config) { c.Simulation.VolatilityMultiplier = 6 }},
		{"interval low", func(c *Config) { c.Simulation.UpdateIntervalMS = 100 }},
		{"interval high", func(c *Config) { c.Simulation.UpdateIntervalMS = 20000 }},
		{"tick size", func(c *Config) { c.Simulation.PriceTickSize = 0.07 }},
		{"max tick", func(c *Config) { c.Simulation.MaxTickMultiplier = 11 }},
		{"history days", func(c *Config) { c.Simulation.HistoryDays = 0 }},
		{"send buffer", func(c *Config) { c.Stream.SendBuffer = 0 }},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestSettingsMapping(t *testing.T) {
	cfg := Default()
	cfg.Simulation.Speed = 3
	cfg.Simulation.AlwaysOpen = false

	s := cfg.Settings()
	if s.Speed != 3 || s.AlwaysOpen {
		t.Fatalf("settings mapping wrong: %+v", s)
	}
	if s.UpdateIntervalMS != cfg.Simulation.UpdateIntervalMS {
		t.Fatal("update interval not mapped")
	}
}
