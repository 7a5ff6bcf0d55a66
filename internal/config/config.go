package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/caarlos0/env/v11"
)

const (
	StoreMemory   = "memory"
	StoreSqlite   = "sqlite"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

var storeBackends = []string{StoreMemory, StoreSqlite, StorePostgres, StoreRedis}

type Config struct {
	ServerAddr     string   `env:"ADDR" envDefault:"localhost:8000"`
	RoomName       string   `env:"ROOM" envDefault:"friends-room"`
	StoreBackend   string   `env:"STORE" envDefault:"sqlite"`
	SqlitePath     string   `env:"SQLITE_PATH" envDefault:"friends-room.db"`
	DatabaseDSN    string   `env:"DATABASE_DSN"`
	RedisAddr      string   `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPrefix    string   `env:"REDIS_PREFIX" envDefault:"friends-room:"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// FromEnv loads a Config from FRIENDSROOM_* variables, falling back to
// the envDefault tags. The result is not validated.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "FRIENDSROOM_"}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerAddr == "" {
		return errors.New("server address cannot be empty")
	}
	if c.RoomName == "" {
		return errors.New("room name cannot be empty")
	}
	if !slices.Contains(storeBackends, c.StoreBackend) {
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}

	switch c.StoreBackend {
	case StoreSqlite:
		if c.SqlitePath == "" {
			return errors.New("sqlite path cannot be empty")
		}
	case StorePostgres:
		if c.DatabaseDSN == "" {
			return errors.New("database DSN cannot be empty")
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return errors.New("redis address cannot be empty")
		}
	}

	return nil
}
