// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultCacheKey is the single storage slot every kind shares.
const DefaultCacheKey = "localData"

type Config struct {
	CollectorMode   string        `env:"COLLECTOR_MODE"           envDefault:"public"`
	BaseURL         string        `env:"COLLECTOR_BASE_URL"       envDefault:"https://jsonplaceholder.typicode.com"`
	EndpointsFile   string        `env:"COLLECTOR_ENDPOINTS_FILE"`
	Timeout         time.Duration `env:"COLLECTOR_TIMEOUT"        envDefault:"10s"`
	RateInterval    time.Duration `env:"COLLECTOR_RATE_INTERVAL"  envDefault:"2s"`
	MockCount       int           `env:"COLLECTOR_MOCK_COUNT"     envDefault:"5"`
	MockLatency     time.Duration `env:"COLLECTOR_MOCK_LATENCY"   envDefault:"0s"`
	UserAgent       string        `env:"USER_AGENT"               envDefault:"recordsync/1.0"`
	StoreBackend    string        `env:"STORE_BACKEND"            envDefault:"file"`
	StorePath       string        `env:"STORE_PATH"               envDefault:"data"`
	RedisURL        string        `env:"REDIS_URL"                envDefault:"redis://localhost:6379/0"`
	CacheKey        string        `env:"CACHE_KEY"                envDefault:"localData"`
	SerializeScreen bool          `env:"SCREEN_SERIALIZE"         envDefault:"true"`
	Port            string        `env:"PORT"                     envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL"                envDefault:"info"`
}

// Load reads the given .env files (missing files are ignored) and then parses
// the environment. Variables already set in the process win over .env values.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.CacheKey == "" {
		cfg.CacheKey = DefaultCacheKey
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	return cfg, nil
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
