// Package store selects and opens the configured aggregate.Store backend.
package store

import (
	"context"
	"fmt"
	"io"

	"github.com/warp/pnl-ledger/aggregate"
	memstore "github.com/warp/pnl-ledger/aggregate/store"
	"github.com/warp/pnl-ledger/config"
	"github.com/warp/pnl-ledger/logger"
	"github.com/warp/pnl-ledger/store/postgres"
	"github.com/warp/pnl-ledger/store/redis"
	"github.com/warp/pnl-ledger/store/sqlite"
)

// Backend is an open store that must be closed on shutdown.
type Backend interface {
	aggregate.Store
	io.Closer
}

type memoryBackend struct {
	*memstore.Memory
}

func (memoryBackend) Close() error { return nil }

// Open returns the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig, log *logger.Logger) (Backend, error) {
	switch cfg.Driver {
	case "memory":
		log.Warn("using in-memory store; records are lost on exit")
		return memoryBackend{memstore.NewMemory(cfg.Collection)}, nil
	case "sqlite":
		s, err := sqlite.New(cfg.DSN, cfg.Collection)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := postgres.Open(ctx, cfg.DSN, cfg.Collection, cfg.AutoMigrate, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		s, err := redis.Open(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.Collection)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
}
