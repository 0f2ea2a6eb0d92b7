// Package config loads service configuration from defaults, an optional
// YAML file and PNL_-prefixed environment variables, in that order.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/warp/pnl-ledger/aggregate"
)

// EnvPrefix marks environment variables read by Load.
// PNL_STORE__DRIVER=redis sets store.driver.
const EnvPrefix = "PNL_"

type Config struct {
	Server ServerConfig `koanf:"server"`
	Log    LogConfig    `koanf:"log"`
	Ledger LedgerConfig `koanf:"ledger"`
	Store  StoreConfig  `koanf:"store"`
}

type ServerConfig struct {
	Port           int      `koanf:"port"`
	Host           string   `koanf:"host"`
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type LogConfig struct {
	Mode string `koanf:"mode"` // development | production
}

type LedgerConfig struct {
	Policy      string `koanf:"policy"`
	Guard       string `koanf:"guard"` // empty keeps the policy's own guard
	DefaultText string `koanf:"default_text"`
}

type StoreConfig struct {
	Driver      string `koanf:"driver"` // memory | sqlite | postgres | redis
	DSN         string `koanf:"dsn"`
	Collection  string `koanf:"collection"`
	RedisAddr   string `koanf:"redis_addr"`
	RedisDB     int    `koanf:"redis_db"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.port":            8080,
		"server.host":            "0.0.0.0",
		"server.allowed_origins": []string{"http://localhost:5173", "http://localhost:8080"},
		"log.mode":               "development",
		"ledger.policy":          aggregate.PolicyLastWrite,
		"ledger.guard":           "",
		"ledger.default_text":    aggregate.DefaultGreeting,
		"store.driver":           "sqlite",
		"store.dsn":              "pnl.db",
		"store.collection":       aggregate.DefaultCollection,
		"store.redis_addr":       "localhost:6379",
		"store.redis_db":         0,
		"store.auto_migrate":     true,
	}
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}

	switch c.Ledger.Policy {
	case aggregate.PolicyLastWrite, aggregate.PolicyPairwiseAverage, aggregate.PolicyCumulativeSum:
	default:
		return fmt.Errorf("invalid ledger.policy %q: %w", c.Ledger.Policy, aggregate.ErrUnknownPolicy)
	}
	if c.Ledger.Guard != "" {
		if _, err := aggregate.ParseGuard(c.Ledger.Guard); err != nil {
			return fmt.Errorf("invalid ledger.guard: %w", err)
		}
		if c.Ledger.Policy == aggregate.PolicyLastWrite {
			return fmt.Errorf("ledger.guard %q does not apply to policy %s", c.Ledger.Guard, c.Ledger.Policy)
		}
	}

	switch c.Store.Driver {
	case "memory":
	case "sqlite", "postgres":
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("store.dsn is required for driver %q", c.Store.Driver)
		}
	case "redis":
		if strings.TrimSpace(c.Store.RedisAddr) == "" {
			return fmt.Errorf("store.redis_addr is required for driver redis")
		}
	default:
		return fmt.Errorf("unsupported store.driver %q", c.Store.Driver)
	}
	if strings.TrimSpace(c.Store.Collection) == "" {
		return fmt.Errorf("store.collection is required")
	}

	return nil
}

// Load parses config from defaults, the file at configPath (if non-empty)
// and the environment, then validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults() {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
