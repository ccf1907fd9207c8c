package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/marketmock/nsesim/internal/engine"
)

// Config holds all simulator configuration. Values come from the YAML file,
// then environment variables override the sensitive or deploy-specific ones.
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`

	Simulation struct {
		Seed                 int64   `yaml:"seed"`
		Speed                float64 `yaml:"speed"`
		VolatilityMultiplier float64 `yaml:"volatility_multiplier"`
		UpdateIntervalMS     int     `yaml:"update_interval_ms"`
		AlwaysOpen           bool    `yaml:"always_open"`
		PriceTickSize        float64 `yaml:"price_tick_size"`
		MaxTickMultiplier    int     `yaml:"max_tick_multiplier"`
		HistoryDays          int     `yaml:"history_days"`
	} `yaml:"simulation"`

	Stream struct {
		SendBuffer int `yaml:"send_buffer"`
	} `yaml:"stream"`

	Recorder struct {
		// MongoURI empty = recorder disabled.
		MongoURI      string `yaml:"mongo_uri"`
		RetentionDays int    `yaml:"retention_days"`
		Archive       struct {
			// Dir empty = archiver disabled.
			Dir           string `yaml:"dir"`
			MaxGB         int    `yaml:"max_gb"`
			IntervalHours int    `yaml:"interval_hours"`
			AfterHours    int    `yaml:"after_hours"`
		} `yaml:"archive"`
	} `yaml:"recorder"`

	Live struct {
		BaseURL    string `yaml:"base_url"`
		CacheTTLMS int    `yaml:"cache_ttl_ms"`
		TimeoutMS  int    `yaml:"timeout_ms"`
		SearchCap  int    `yaml:"search_cap"`
	} `yaml:"live"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	c.Server.Host = "0.0.0.0"
	c.Server.Port = 8080
	c.Logging.Level = "info"
	c.Logging.Dir = "logs"

	c.Simulation.Speed = 1
	c.Simulation.VolatilityMultiplier = 1
	c.Simulation.UpdateIntervalMS = 2000
	c.Simulation.AlwaysOpen = true
	c.Simulation.PriceTickSize = 0.05
	c.Simulation.MaxTickMultiplier = 2
	c.Simulation.HistoryDays = 365

	c.Stream.SendBuffer = 4096

	c.Recorder.RetentionDays = 7
	c.Recorder.Archive.MaxGB = 2
	c.Recorder.Archive.IntervalHours = 6
	c.Recorder.Archive.AfterHours = 24

	c.Live.BaseURL = "https://query1.finance.yahoo.com"
	c.Live.CacheTTLMS = 5000
	c.Live.TimeoutMS = 4000
	c.Live.SearchCap = 15
	return c
}

// Load reads the config file, applies environment overrides and validates.
// A missing file is not an error: defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// run on defaults
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// overrideWithEnv applies the deploy-facing environment variables.
func overrideWithEnv(c *Config) {
	if v := os.Getenv("NSESIM_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := envInt("NSESIM_PORT"); v != nil {
		c.Server.Port = *v
	}
	if v := os.Getenv("NSESIM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := envInt64("NSESIM_SEED"); v != nil {
		c.Simulation.Seed = *v
	}
	if v := os.Getenv("NSESIM_MONGO_URI"); v != "" {
		c.Recorder.MongoURI = v
	}
	if v := os.Getenv("NSESIM_LIVE_BASE_URL"); v != "" {
		c.Live.BaseURL = v
	}
}

func envInt(key string) *int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return &n
		}
	}
	return nil
}

func envInt64(key string) *int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return &n
		}
	}
	return nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Simulation.Speed <= 0 || c.Simulation.Speed > 10 {
		return fmt.Errorf("simulation.speed out of (0,10]: %v", c.Simulation.Speed)
	}
	if c.Simulation.VolatilityMultiplier <= 0 || c.Simulation.VolatilityMultiplier > 5 {
		return fmt.Errorf("simulation.volatility_multiplier out of (0,5]: %v", c.Simulation.VolatilityMultiplier)
	}
	if c.Simulation.UpdateIntervalMS < 500 || c.Simulation.UpdateIntervalMS > 10000 {
		return fmt.Errorf("simulation.update_interval_ms out of [500,10000]: %d", c.Simulation.UpdateIntervalMS)
	}
	if c.Simulation.MaxTickMultiplier < 1 || c.Simulation.MaxTickMultiplier > 10 {
		return fmt.Errorf("simulation.max_tick_multiplier out of [1,10]: %d", c.Simulation.MaxTickMultiplier)
	}
	if c.Simulation.HistoryDays < 1 {
		return fmt.Errorf("simulation.history_days must be positive: %d", c.Simulation.HistoryDays)
	}
	if c.Stream.SendBuffer < 1 {
		return fmt.Errorf("stream.send_buffer must be positive: %d", c.Stream.SendBuffer)
	}

	if !engine.ValidTickSize(c.Simulation.PriceTickSize) {
		return fmt.Errorf("simulation.price_tick_size not in allowed set: %v", c.Simulation.PriceTickSize)
	}
	return nil
}

// Settings maps the simulation section onto the engine's settings record.
func (c *Config) Settings() engine.Settings {
	return engine.Settings{
		Speed:                c.Simulation.Speed,
		VolatilityMultiplier: c.Simulation.VolatilityMultiplier,
		UpdateIntervalMS:     c.Simulation.UpdateIntervalMS,
		AlwaysOpen:           c.Simulation.AlwaysOpen,
		PriceTickSize:        c.Simulation.PriceTickSize,
		MaxTickMultiplier:    c.Simulation.MaxTickMultiplier,
	}
}
