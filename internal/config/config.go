// Package config loads server settings from flags, the environment and
// an optional gameplay tuning file.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/floydverse/flappy-floyd/internal/game"
	"github.com/floydverse/flappy-floyd/internal/session"
)

// Config is everything the server process needs to start.
type Config struct {
	Addr       string
	TickRate   int
	DBPath     string
	PublicURL  string
	TuningPath string
	LogLevel   string
	Session    session.Config
}

// GetEnv returns the value of key, or fallback when it is unset.
func GetEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(GetEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(GetEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

// Load reads .env (if present), then flags whose defaults come from the
// environment, then the tuning file named by -tuning.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{Session: session.DefaultConfig()}
	fset := flag.NewFlagSet("floydserver", flag.ContinueOnError)
	fset.StringVar(&cfg.Addr, "addr", GetEnv("FLOYD_ADDR", ":3000"), "HTTP listen address")
	fset.IntVar(&cfg.TickRate, "tick-rate", getEnvInt("FLOYD_TICK_RATE", 20), "simulation ticks per second")
	fset.StringVar(&cfg.DBPath, "db", GetEnv("FLOYD_DB", "floyd.db"), "SQLite database path (empty disables persistence)")
	fset.StringVar(&cfg.PublicURL, "public-url", GetEnv("FLOYD_PUBLIC_URL", ""), "public URL encoded by /qr")
	fset.StringVar(&cfg.TuningPath, "tuning", GetEnv("FLOYD_TUNING", ""), "JSON gameplay tuning file")
	fset.StringVar(&cfg.LogLevel, "log-level", GetEnv("FLOYD_LOG_LEVEL", "info"), "debug, info, warn or error")
	fset.IntVar(&cfg.Session.Capacity, "capacity", getEnvInt("FLOYD_CAPACITY", cfg.Session.Capacity), "players per session")
	fset.IntVar(&cfg.Session.MinimumPlayers, "min-players", getEnvInt("FLOYD_MIN_PLAYERS", cfg.Session.MinimumPlayers), "players needed to start when the lobby times out")
	fset.DurationVar(&cfg.Session.LobbyTimeout, "lobby-timeout", getEnvDuration("FLOYD_LOBBY_TIMEOUT", cfg.Session.LobbyTimeout), "how long a lobby waits for players")
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.TuningPath != "" {
		tuned, err := LoadTuning(cfg.TuningPath, cfg.Session.Game)
		if err != nil {
			return Config{}, err
		}
		cfg.Session.Game = tuned
	}

	if cfg.TickRate < 1 {
		cfg.TickRate = 1
	}
	if cfg.TickRate > 120 {
		cfg.TickRate = 120
	}
	cfg.Session.Clamp()
	return cfg, nil
}

// LoadTuning overlays the JSON file at path onto base. Fields absent
// from the file keep their base values.
func LoadTuning(path string, base game.Config) (game.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read tuning: %w", err)
	}
	cfg := base
	if err := json.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	return cfg, nil
}
