// Package redis provides a Redis-backed aggregate.Store.
//
// Each collection is one hash, "<collection>:records", whose fields are
// account ids. HSET overwrites a field and there is no HDEL path. How
// durable a write is follows the server's persistence settings (AOF with
// appendfsync always gives per-write durability).
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/warp/pnl-ledger/aggregate"
)

type Store struct {
	rdb *goredis.Client
	key string
}

// New scopes an existing client to collection.
func New(rdb *goredis.Client, collection string) *Store {
	if collection == "" {
		collection = aggregate.DefaultCollection
	}
	return &Store{rdb: rdb, key: HashKey(collection)}
}

// Open dials addr, checks the connection, and returns a Store.
func Open(ctx context.Context, addr string, db int, collection string) (*Store, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, collection), nil
}

// HashKey is the Redis key holding every record of collection.
func HashKey(collection string) string {
	return collection + ":records"
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) Get(ctx context.Context, account aggregate.AccountID) (aggregate.Record, bool, error) {
	v, err := s.rdb.HGet(ctx, s.key, string(account)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis hget: %w", err)
	}
	return aggregate.Record(v), true, nil
}

func (s *Store) Put(ctx context.Context, account aggregate.AccountID, rec aggregate.Record) error {
	if err := s.rdb.HSet(ctx, s.key, string(account), string(rec)).Err(); err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

var _ aggregate.Store = (*Store)(nil)
