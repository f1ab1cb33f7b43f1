package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"vocab-quiz-service/internal/game"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	WordLists struct {
		TTL string `yaml:"ttl"`
	} `yaml:"wordLists"`
	Game struct {
		DefaultDifficulty string  `yaml:"defaultDifficulty"`
		MatchRate         float64 `yaml:"matchRate"`
	} `yaml:"game"`
	Leaderboard struct {
		CacheTTL string `yaml:"cacheTTL"`
		TopN     int    `yaml:"topN"`
	} `yaml:"leaderboard"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default is the zero-dependency setup: in-memory stores, normal difficulty.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Game.DefaultDifficulty = "normal"
	cfg.Game.MatchRate = 0.5
	cfg.Leaderboard.TopN = 10
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	return cfg
}

// Load reads YAML config from path on top of Default and validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the services would otherwise ignore or misread.
func (c Config) Validate() error {
	var errs []error
	if c.Game.MatchRate < 0 || c.Game.MatchRate > 1 {
		errs = append(errs, fmt.Errorf("game.matchRate must be within [0, 1], got %v", c.Game.MatchRate))
	}
	if _, err := game.ParseDifficulty(c.Game.DefaultDifficulty); err != nil {
		errs = append(errs, fmt.Errorf("game.defaultDifficulty: %w", err))
	}
	if c.Leaderboard.TopN < 0 {
		errs = append(errs, fmt.Errorf("leaderboard.topN must not be negative, got %d", c.Leaderboard.TopN))
	}
	for name, raw := range map[string]string{
		"redis.ttl":            c.Redis.TTL,
		"wordLists.ttl":        c.WordLists.TTL,
		"leaderboard.cacheTTL": c.Leaderboard.CacheTTL,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// LoadOrDefault is Load, except a missing file yields Default.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	return cfg, err
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
