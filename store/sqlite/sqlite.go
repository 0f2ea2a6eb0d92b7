/*
Package sqlite provides a SQLite-backed aggregate.Store.

PURPOSE:
  Persists one record per (collection, account) in a single table. The
  ledger owns all policy logic; this package only reads and upserts text.

KEY TABLE:
  records:
    collection  TEXT  - namespace prefix shared by every record of a ledger
    account_id  TEXT  - opaque account identifier
    value       TEXT  - encoded aggregate (see aggregate.Codec)
    updated_at  TEXT  - RFC3339, informational only
  PRIMARY KEY (collection, account_id) rules out collisions inside a
  collection.

NO DELETE:
  There is no DELETE statement. Put is an upsert.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, opened in WAL mode so readers don't
  block the writer.

USAGE:
  store, err := sqlite.New("./data/pnl.db", "a")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := aggregate.NewLedger[float64](store, aggregate.NewCumulativeSum(), aggregate.Float64Codec{})

MIGRATION:
  Schema is auto-migrated on New().
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/pnl-ledger/aggregate"
)

// Store implements aggregate.Store using SQLite.
type Store struct {
	db         *sql.DB
	mu         sync.RWMutex
	collection string
}

// New opens (or creates) the database at dbPath and scopes the store to
// collection. Use ":memory:" for an in-memory database.
func New(dbPath, collection string) (*Store, error) {
	if collection == "" {
		collection = aggregate.DefaultCollection
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// :memory: databases are per-connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, collection: collection}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Collection returns the namespace this store reads and writes.
func (s *Store) Collection() string {
	return s.collection
}

// InCollection returns a store over the same database scoped to another
// collection. Closing either store closes the shared database.
func (s *Store) InCollection(collection string) *Store {
	return &Store{db: s.db, collection: collection}
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		collection TEXT NOT NULL,
		account_id TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (collection, account_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD STORE (aggregate.Store interface)
// =============================================================================

// Get returns the record for account, if any.
func (s *Store) Get(ctx context.Context, account aggregate.AccountID) (aggregate.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM records WHERE collection = ? AND account_id = ?",
		s.collection, string(account),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load record: %w", err)
	}
	return aggregate.Record(value), true, nil
}

// Put creates or replaces the record for account.
func (s *Store) Put(ctx context.Context, account aggregate.AccountID, rec aggregate.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO records (collection, account_id, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, account_id)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		s.collection,
		string(account),
		string(rec),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	return nil
}

var _ aggregate.Store = (*Store)(nil)
