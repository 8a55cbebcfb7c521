package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// DefaultRooms is the room set used when ROOMS is not configured. Rooms are
// fixed for the process lifetime; there is no dynamic creation or deletion.
var DefaultRooms = []string{"SubMundo", "Recanto dos pecadores", "Vozes sem fim", "Solidão"}

type AppConfig struct {
	ListenAddr string
	StatusAddr string

	RedisURL    string
	DatabaseURL string

	Rooms []string

	ClockSeconds int
	RankingSize  int

	MessageOverridePath string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:   ":3000",
		ClockSeconds: 300,
		RankingSize:  5,
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	cfg.StatusAddr = strings.TrimSpace(os.Getenv("STATUS_ADDR"))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MessageOverridePath = strings.TrimSpace(os.Getenv("MESSAGES_FILE"))

	if v := strings.TrimSpace(os.Getenv("ROOMS")); v != "" {
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				cfg.Rooms = append(cfg.Rooms, s)
			}
		}
	}
	if len(cfg.Rooms) == 0 {
		cfg.Rooms = append(cfg.Rooms, DefaultRooms...)
	}

	if v := strings.TrimSpace(os.Getenv("CLOCK_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ClockSeconds = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("RANKING_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RankingSize = n
		}
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}
