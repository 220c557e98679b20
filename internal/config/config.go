// Package config reads server settings from command-line flags, falling back
// to TTT_* environment variables and then to built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

// Config holds everything the server needs at startup.
type Config struct {
	ListenAddr    string
	LogLevel      string
	LogFormat     string
	AIDelay       time.Duration
	GameExpiry    time.Duration
	SweepInterval time.Duration
	Heartbeat     time.Duration
	Seed          uint64
}

var ErrInvalid = errors.New("invalid config")

// Default returns the built-in settings.
func Default() Config {
	return Config{
		ListenAddr:    ":8080",
		LogLevel:      "info",
		LogFormat:     "console",
		AIDelay:       500 * time.Millisecond,
		GameExpiry:    24 * time.Hour,
		SweepInterval: 10 * time.Minute,
		Heartbeat:     15 * time.Second,
	}
}

// Load parses args (without the program name). getenv supplies environment
// overrides for the defaults; pass os.Getenv in production.
func Load(args []string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if err := cfg.fromEnv(getenv); err != nil {
		return cfg, err
	}

	fs := pflag.NewFlagSet("tictactoe", pflag.ContinueOnError)
	fs.StringVarP(&cfg.ListenAddr, "listen-addr", "l", cfg.ListenAddr, "address to listen on")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (console or json)")
	fs.DurationVar(&cfg.AIDelay, "ai-delay", cfg.AIDelay, "pause before the computer answers a move")
	fs.DurationVar(&cfg.GameExpiry, "game-expiry", cfg.GameExpiry, "idle time after which a game is deleted")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "how often expired games are swept")
	fs.DurationVar(&cfg.Heartbeat, "heartbeat", cfg.Heartbeat, "event stream keep-alive interval")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed for the computer player (0 = time based)")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) fromEnv(getenv func(string) string) error {
	if getenv == nil {
		return nil
	}
	if v := getenv("TTT_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := getenv("TTT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("TTT_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"TTT_AI_DELAY", &c.AIDelay},
		{"TTT_GAME_EXPIRY", &c.GameExpiry},
		{"TTT_SWEEP_INTERVAL", &c.SweepInterval},
		{"TTT_HEARTBEAT", &c.Heartbeat},
	}
	for _, d := range durations {
		v := getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, d.key, err)
		}
		*d.dst = parsed
	}
	if v := getenv("TTT_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: TTT_SEED: %v", ErrInvalid, err)
		}
		c.Seed = seed
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("%w: empty listen address", ErrInvalid)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.LogLevel)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.LogFormat)
	}
	if c.AIDelay < 0 {
		return fmt.Errorf("%w: negative ai delay", ErrInvalid)
	}
	if c.GameExpiry <= 0 || c.SweepInterval <= 0 || c.Heartbeat <= 0 {
		return fmt.Errorf("%w: expiry, sweep interval and heartbeat must be positive", ErrInvalid)
	}
	return nil
}
